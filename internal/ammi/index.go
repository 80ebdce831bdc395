// Package ammi classifies mangrove density on a raster tile from the AMMI
// spectral index, then removes water and elevation false positives.
package ammi

import (
	"math"

	"github.com/sells-group/mangroves/internal/raster"
)

// Band names produced by the classifier.
const (
	BandAMMI          = "ammi"
	BandMangroves     = "mangroves"
	BandPreMask       = "mangroves_pre_mask"
	BandNDWI          = "ndwi"
	BandMNDWI         = "mndwi"
	BandWater         = "water"
	BandWaterMask     = "water_mask"
	BandElevationMask = "elevation_mask"
)

// redWeight is the red coefficient in the second AMMI denominator.
const redWeight = 0.65

// Index computes AMMI for every pixel:
//
//	((nir - red) / (red + swir16)) * ((nir - swir16) / (swir16 - 0.65*red))
//
// Pixels where the arithmetic is undefined (zero denominators, NaN inputs,
// infinite results) are NaN.
func Index(nir, red, swir16 *raster.Band) *raster.Band {
	out := raster.NewBand(BandAMMI, nir.Geobox)
	for i := range out.Data {
		out.Data[i] = ammiPixel(nir.Data[i], red.Data[i], swir16.Data[i])
	}
	return out
}

func ammiPixel(nir, red, swir float64) float64 {
	v := ((nir - red) / (red + swir)) * ((nir - swir) / (swir - redWeight*red))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// NormalizedDifference computes (a - b) / (a + b) per pixel, NaN where
// undefined.
func NormalizedDifference(name string, a, b *raster.Band) *raster.Band {
	out := raster.NewBand(name, a.Geobox)
	for i := range out.Data {
		v := (a.Data[i] - b.Data[i]) / (a.Data[i] + b.Data[i])
		if math.IsInf(v, 0) {
			v = math.NaN()
		}
		out.Data[i] = v
	}
	return out
}
