package raster

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGeobox(w, h int) Geobox {
	return Geobox{EPSG: 3832, X0: 1000, Y0: 2000, ResX: 10, ResY: -10, Width: w, Height: h}
}

func TestGeobox_Bounds(t *testing.T) {
	gb := testGeobox(4, 3)
	b := gb.Bounds()
	assert.InDelta(t, 1000, b.Min(0), 1e-9)
	assert.InDelta(t, 1970, b.Min(1), 1e-9)
	assert.InDelta(t, 1040, b.Max(0), 1e-9)
	assert.InDelta(t, 2000, b.Max(1), 1e-9)
	assert.Equal(t, 12, gb.Size())
}

func TestGeobox_ZoomOut(t *testing.T) {
	gb := testGeobox(95, 100)
	z := gb.ZoomOut(10)
	assert.Equal(t, 10, z.Width)
	assert.Equal(t, 10, z.Height)
	assert.InDelta(t, 100, z.ResX, 1e-9)
	assert.InDelta(t, -100, z.ResY, 1e-9)
	assert.Equal(t, gb.X0, z.X0)
	assert.Equal(t, gb, gb.ZoomOut(1))
}

func TestGeobox_Empty(t *testing.T) {
	assert.True(t, Geobox{}.Empty())
	assert.True(t, testGeobox(0, 5).Empty())
	assert.False(t, testGeobox(1, 1).Empty())
}

func TestScaleReflectance(t *testing.T) {
	tests := []struct {
		name string
		dn   float64
		want float64
	}{
		{"mid range", 5000, 0.5},
		{"clipped low", 0.2, ReflectanceMin},
		{"clipped high", 12000, ReflectanceMax},
		{"one", 1, 0.0001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ScaleReflectance(tt.dn), 1e-12)
		})
	}
	assert.True(t, math.IsNaN(ScaleReflectance(0)), "zero is source no-data")
	assert.True(t, math.IsNaN(ScaleReflectance(math.NaN())))
}

func TestTile_ScaleDoesNotMutate(t *testing.T) {
	gb := testGeobox(2, 1)
	tile := NewTile(gb)
	require.NoError(t, tile.Add(&Band{Name: BandNIR, Geobox: gb, Data: []float64{0, 5000}}))

	scaled := tile.Scale()
	nir, _ := scaled.Band(BandNIR)
	assert.True(t, math.IsNaN(nir.Data[0]))
	assert.InDelta(t, 0.5, nir.Data[1], 1e-12)

	orig, _ := tile.Band(BandNIR)
	assert.Equal(t, []float64{0, 5000}, orig.Data)
}

func TestTile_Validate(t *testing.T) {
	gb := testGeobox(2, 2)

	full := NewTile(gb)
	for _, name := range RequiredBands {
		require.NoError(t, full.Add(NewBand(name, gb)))
	}
	assert.NoError(t, full.Validate(RequiredBands...))

	missing := NewTile(gb)
	require.NoError(t, missing.Add(NewBand(BandNIR, gb)))
	err := missing.Validate(RequiredBands...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedTile))
	assert.Contains(t, err.Error(), "missing band")

	empty := NewTile(Geobox{})
	assert.True(t, errors.Is(empty.Validate(), ErrMalformedTile))

	var nilTile *Tile
	assert.True(t, errors.Is(nilTile.Validate(), ErrMalformedTile))

	mismatched := NewTile(gb)
	mismatched.Bands[BandRed] = NewBand(BandRed, testGeobox(3, 2))
	assert.True(t, errors.Is(mismatched.Validate(), ErrMalformedTile))
}

func TestTile_AddRejectsForeignGrid(t *testing.T) {
	tile := NewTile(testGeobox(2, 2))
	err := tile.Add(NewBand(BandRed, testGeobox(2, 3)))
	assert.True(t, errors.Is(err, ErrMalformedTile))
}

func TestMask_Conforms(t *testing.T) {
	gb := testGeobox(3, 2)
	m := NewMask("water", gb)
	require.NoError(t, m.Conforms(gb))

	moved := gb
	moved.Y0 -= 10
	assert.True(t, errors.Is(m.Conforms(moved), ErrMalformedTile))

	m.Data = m.Data[:5]
	assert.True(t, errors.Is(m.Conforms(gb), ErrMalformedTile))
}

func TestResample_NearestNeighbour(t *testing.T) {
	src := &Band{Name: "dem", Geobox: testGeobox(4, 2), Data: []float64{
		1, 2, 3, 4,
		5, 6, 7, 8,
	}}
	dst := src.Geobox.ZoomOut(2)

	out, err := Resample(src, dst)
	require.NoError(t, err)
	// Each 20 m pixel centre lands on the lower-right source pixel of its block.
	assert.Equal(t, []float64{6, 8}, out.Data)
}

func TestResample_OutsideIsNaN(t *testing.T) {
	src := &Band{Name: "dem", Geobox: testGeobox(1, 1), Data: []float64{42}}
	dst := testGeobox(2, 1)

	out, err := Resample(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 42.0, out.Data[0])
	assert.True(t, math.IsNaN(out.Data[1]))
}

func TestResample_CRSMismatch(t *testing.T) {
	src := NewBand("dem", testGeobox(1, 1))
	dst := testGeobox(1, 1)
	dst.EPSG = 4326
	_, err := Resample(src, dst)
	assert.True(t, errors.Is(err, ErrMalformedTile))
}

func TestDataset_Band(t *testing.T) {
	nd := uint8(255)
	ds := &Dataset{Bands: []OutputBand{{Name: "mangroves", NoData: &nd}, {Name: "ammi"}}}
	b, ok := ds.Band("mangroves")
	require.True(t, ok)
	assert.Equal(t, uint8(255), *b.NoData)
	_, ok = ds.Band("nir")
	assert.False(t, ok)
	assert.Equal(t, []string{"mangroves", "ammi"}, ds.Names())
}
