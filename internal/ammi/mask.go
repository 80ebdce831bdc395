package ammi

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mangroves/internal/morph"
	"github.com/sells-group/mangroves/internal/raster"
)

// DefaultMorphRadius is the disk radius of the water mask closing.
const DefaultMorphRadius = 5

// DefaultElevationThreshold is the elevation below which pixels are excluded.
const DefaultElevationThreshold = 30

// ApplyMask returns a copy of classes, laid out on gb, with every pixel
// where mask is true set to Unclassified. The mask must be on gb. The input
// is not modified, and applying the same mask again is a no-op.
func ApplyMask(classes []uint8, gb raster.Geobox, mask *raster.Mask) ([]uint8, error) {
	if len(classes) != gb.Size() {
		return nil, eris.Wrapf(raster.ErrMalformedTile, "classes have %d pixels, want %d", len(classes), gb.Size())
	}
	if err := mask.Conforms(gb); err != nil {
		return nil, err
	}
	out := make([]uint8, len(classes))
	for i, c := range classes {
		if mask.Data[i] {
			out[i] = Unclassified
			continue
		}
		out[i] = c
	}
	return out, nil
}

// Water holds the water indices and masks derived from a tile.
type Water struct {
	NDWI  *raster.Band
	MNDWI *raster.Band
	// Raw is true where ndwi + mndwi < 0.
	Raw *raster.Mask
	// Mask is Raw after dilation then erosion with a disk.
	Mask *raster.Mask
}

// WaterMask derives the water exclusion mask from green, nir and swir16
// reflectance. The raw test is ndwi + mndwi < 0; the result is cleaned up
// by dilation followed by erosion with a disk of the given radius.
func WaterMask(green, nir, swir16 *raster.Band, radius int) (*Water, error) {
	gb := green.Geobox
	ndwi := NormalizedDifference(BandNDWI, green, nir)
	mndwi := NormalizedDifference(BandMNDWI, green, swir16)

	raw := raster.NewMask(BandWater, gb)
	for i := range raw.Data {
		// NaN sums compare false and are never water.
		raw.Data[i] = ndwi.Data[i]+mndwi.Data[i] < 0
	}

	cleaned, err := morph.Cleanup(raw.Data, gb.Width, gb.Height, []morph.Op{
		{Kind: morph.OpDilation, Radius: radius},
		{Kind: morph.OpErosion, Radius: radius},
	})
	if err != nil {
		return nil, eris.Wrap(err, "ammi: water mask cleanup")
	}

	return &Water{
		NDWI:  ndwi,
		MNDWI: mndwi,
		Raw:   raw,
		Mask:  &raster.Mask{Name: BandWaterMask, Geobox: gb, Data: cleaned},
	}, nil
}

// ElevationMask is true where elevation is below threshold. Missing (NaN)
// elevation is never masked.
func ElevationMask(elevation *raster.Band, threshold float64) *raster.Mask {
	m := raster.NewMask(BandElevationMask, elevation.Geobox)
	for i, v := range elevation.Data {
		m.Data[i] = !math.IsNaN(v) && v < threshold
	}
	return m
}
