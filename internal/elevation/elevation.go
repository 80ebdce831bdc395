// Package elevation supplies digital elevation models on a requested grid.
//
// DEM rasters are read as 8- or 16-bit grayscale TIFFs. Float coverages are
// not supported; request an integer format from the service. Elevations
// below zero need either a signed 16-bit coverage (Calibration.Signed) or
// an Offset that shifts the stored numbers.
package elevation

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mangroves/internal/raster"
)

// BandName is the name given to every elevation band.
const BandName = "elevation"

// ErrUnavailable means the source holds no elevation for the requested grid.
var ErrUnavailable = eris.New("elevation: unavailable")

// Calibration converts stored digital numbers to metres.
type Calibration struct {
	Scale  float64
	Offset float64
	// NoData marks missing pixels. It is compared after the Signed
	// conversion. NaN disables the check.
	NoData float64
	// Signed reads 16-bit numbers as two's complement int16.
	Signed bool
}

// DefaultCalibration stores metres directly with 65535 as nodata.
func DefaultCalibration() Calibration {
	return Calibration{Scale: 1, Offset: 0, NoData: 65535}
}

func (c Calibration) apply(data []float64) {
	scale := c.Scale
	if scale == 0 {
		scale = 1
	}
	for i, dn := range data {
		if c.Signed && !math.IsNaN(dn) {
			dn = float64(int16(uint16(dn)))
		}
		if dn == c.NoData || math.IsNaN(dn) {
			data[i] = math.NaN()
			continue
		}
		data[i] = dn*scale + c.Offset
	}
}

func newBand(gb raster.Geobox, data []float64, cal Calibration) *raster.Band {
	cal.apply(data)
	return &raster.Band{Name: BandName, Geobox: gb, Data: data}
}
