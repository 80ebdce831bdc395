package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mangroves/internal/raster"
)

func dataset(data []uint8) *raster.Dataset {
	nodata := uint8(255)
	return &raster.Dataset{Bands: []raster.OutputBand{{Name: "mangroves", Data: data, NoData: &nodata}}}
}

func TestSummarize(t *testing.T) {
	ds := dataset([]uint8{255, 10, 10, 40, 100, 255, 255, 255})
	s, err := Summarize(ds, "mangroves", []uint8{10, 40, 100})
	require.NoError(t, err)

	assert.Equal(t, 8, s.Pixels)
	assert.Equal(t, 4, s.Mangrove)
	assert.InDelta(t, 0.5, s.MangroveFraction, 1e-12)
	assert.InDelta(t, 40, s.MeanDensity, 1e-12)
	assert.InDelta(t, 36.742346, s.StdDevDensity, 1e-6)
	assert.Equal(t, map[uint8]int{10: 2, 40: 1, 100: 1}, s.Histogram)
}

func TestSummarize_NoMangroves(t *testing.T) {
	s, err := Summarize(dataset([]uint8{255, 255}), "mangroves", []uint8{10})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Mangrove)
	assert.Zero(t, s.MeanDensity)
	assert.Empty(t, s.Histogram)
}

func TestSummarize_OutOfRangeValuesSkippedInHistogram(t *testing.T) {
	s, err := Summarize(dataset([]uint8{10, 250}), "mangroves", []uint8{10, 16})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Mangrove)
	assert.Equal(t, map[uint8]int{10: 1}, s.Histogram)
}

func TestSummarize_Errors(t *testing.T) {
	_, err := Summarize(nil, "mangroves", nil)
	assert.Error(t, err)
	_, err = Summarize(dataset(nil), "water", nil)
	assert.Error(t, err)
}

func TestFields(t *testing.T) {
	assert.Len(t, Summary{}.Fields(), 4)
}
