package ammi

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mangroves/internal/raster"
)

// flatElevation returns a source that reports v everywhere.
func flatElevation(v float64) ElevationSource {
	return ElevationFunc(func(_ context.Context, gb raster.Geobox) (*raster.Band, error) {
		return raster.NewBandFill("elevation", gb, v), nil
	})
}

// reflectanceTile builds a prescaled tile where every pixel has the same
// reflectance in each band.
func reflectanceTile(gb raster.Geobox, nir, red, green, swir float64) *raster.Tile {
	tile := raster.NewTile(gb)
	tile.Bands[raster.BandNIR] = raster.NewBandFill(raster.BandNIR, gb, nir)
	tile.Bands[raster.BandRed] = raster.NewBandFill(raster.BandRed, gb, red)
	tile.Bands[raster.BandGreen] = raster.NewBandFill(raster.BandGreen, gb, green)
	tile.Bands[raster.BandSWIR16] = raster.NewBandFill(raster.BandSWIR16, gb, swir)
	return tile
}

// Reflectances that classify as dense, medium and no mangrove while never
// testing as water.
var (
	dense  = [4]float64{0.3, 0.1, 0.5, 0.066}
	medium = [4]float64{0.3, 0.1, 0.5, 0.1}
	bare   = [4]float64{0.3, 0.1, 0.5, 0.2}
)

func setPixel(tile *raster.Tile, i int, v [4]float64) {
	tile.Bands[raster.BandNIR].Data[i] = v[0]
	tile.Bands[raster.BandRed].Data[i] = v[1]
	tile.Bands[raster.BandGreen].Data[i] = v[2]
	tile.Bands[raster.BandSWIR16].Data[i] = v[3]
}

func newTestProcessor(t *testing.T, src ElevationSource, opts ...Option) *Processor {
	t.Helper()
	p, err := NewProcessor(src, append([]Option{WithPrescaled()}, opts...)...)
	require.NoError(t, err)
	return p
}

func TestNewProcessor_Validation(t *testing.T) {
	_, err := NewProcessor(nil)
	assert.Error(t, err)

	_, err = NewProcessor(flatElevation(100), WithThresholds(Thresholds{5, 4}))
	assert.Error(t, err)

	_, err = NewProcessor(flatElevation(100), WithMorphRadius(-1))
	assert.Error(t, err)
}

func TestProcess_UniformReflectanceIsNoData(t *testing.T) {
	gb := testGeobox(6, 6)
	p := newTestProcessor(t, flatElevation(100))

	ds, err := p.Process(context.Background(), reflectanceTile(gb, 0.5, 0.5, 0.5, 0.5), false)
	require.NoError(t, err)

	require.Equal(t, []string{BandMangroves}, ds.Names())
	m, _ := ds.Band(BandMangroves)
	require.NotNil(t, m.NoData)
	assert.Equal(t, OutputNoData, *m.NoData)
	for _, v := range m.Data {
		assert.Equal(t, OutputNoData, v)
	}
}

func TestProcess_RawDigitalNumbers(t *testing.T) {
	gb := testGeobox(3, 3)
	tile := reflectanceTile(gb, 3000, 1000, 5000, 660)
	tile.Bands[raster.BandNIR].Data[4] = 0 // source no-data

	p, err := NewProcessor(flatElevation(100))
	require.NoError(t, err)
	ds, err := p.Process(context.Background(), tile, false)
	require.NoError(t, err)

	m, _ := ds.Band(BandMangroves)
	assert.Equal(t, uint8(100), m.Data[0])
	assert.Equal(t, OutputNoData, m.Data[4])
	assert.Equal(t, 3000.0, tile.Bands[raster.BandNIR].Data[0], "input tile is not rescaled in place")
}

func TestProcess_DivideByZeroIsNoData(t *testing.T) {
	gb := testGeobox(3, 3)
	tile := reflectanceTile(gb, dense[0], dense[1], dense[2], dense[3])
	red := 0.4
	setPixel(tile, 4, [4]float64{0.5, red, 0.9, 0.65 * red})

	p := newTestProcessor(t, flatElevation(100))
	ds, err := p.Process(context.Background(), tile, true)
	require.NoError(t, err)

	m, _ := ds.Band(BandMangroves)
	assert.Equal(t, OutputNoData, m.Data[4])
	assert.Equal(t, uint8(100), m.Data[0])
	idx, _ := ds.Band(BandAMMI)
	assert.Equal(t, OutputNoData, idx.Data[4])
}

func TestProcess_DebugBands(t *testing.T) {
	gb := testGeobox(4, 4)
	p := newTestProcessor(t, flatElevation(100))

	ds, err := p.Process(context.Background(), reflectanceTile(gb, dense[0], dense[1], dense[2], dense[3]), true)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		BandMangroves, BandAMMI, BandPreMask, BandElevationMask, BandWater, BandWaterMask,
	}, ds.Names())
	for _, dropped := range append([]string{BandNDWI, BandMNDWI}, raster.RequiredBands...) {
		_, ok := ds.Band(dropped)
		assert.False(t, ok, "band %s must not be in debug output", dropped)
	}
	for _, b := range ds.Bands {
		assert.Len(t, b.Data, gb.Size(), b.Name)
		if b.Name != BandMangroves {
			assert.Nil(t, b.NoData, b.Name)
		}
	}
}

func TestProcess_ElevationMasksLowGround(t *testing.T) {
	gb := testGeobox(4, 1)
	tile := reflectanceTile(gb, dense[0], dense[1], dense[2], dense[3])
	setPixel(tile, 1, medium)

	src := ElevationFunc(func(_ context.Context, g raster.Geobox) (*raster.Band, error) {
		return &raster.Band{Name: "dem", Geobox: g, Data: []float64{5, 50, 29, 30}}, nil
	})
	p := newTestProcessor(t, src)

	ds, err := p.Process(context.Background(), tile, false)
	require.NoError(t, err)
	m, _ := ds.Band(BandMangroves)
	assert.Equal(t, []uint8{255, 16, 255, 100}, m.Data)
}

func TestProcess_Composition(t *testing.T) {
	gb := testGeobox(24, 20)
	r := rand.New(rand.NewPCG(11, 12))
	tile := reflectanceTile(gb, 0, 0, 0, 0)
	for i := 0; i < gb.Size(); i++ {
		switch r.IntN(4) {
		case 0:
			setPixel(tile, i, dense)
		case 1:
			setPixel(tile, i, medium)
		case 2:
			setPixel(tile, i, bare)
		default:
			setPixel(tile, i, [4]float64{0.3, 0.1, 0.05, 0.2}) // water
		}
	}
	elev := make([]float64, gb.Size())
	for i := range elev {
		elev[i] = r.Float64() * 60
	}
	src := ElevationFunc(func(_ context.Context, g raster.Geobox) (*raster.Band, error) {
		return &raster.Band{Name: "dem", Geobox: g, Data: elev}, nil
	})
	p := newTestProcessor(t, src, WithMorphRadius(2))

	ds, err := p.Process(context.Background(), tile, true)
	require.NoError(t, err)

	final, _ := ds.Band(BandMangroves)
	pre, _ := ds.Band(BandPreMask)
	water, _ := ds.Band(BandWaterMask)
	low, _ := ds.Band(BandElevationMask)

	for i := range final.Data {
		keep := pre.Data[i] != OutputNoData && water.Data[i] == 0 && low.Data[i] == 0
		if keep {
			assert.Equal(t, pre.Data[i], final.Data[i], "pixel %d", i)
		} else {
			assert.Equal(t, OutputNoData, final.Data[i], "pixel %d", i)
		}
		assert.Equal(t, low.Data[i] == 1, elev[i] < DefaultElevationThreshold, "pixel %d", i)
	}
}

func TestProcess_OutputValuesAreClassesOrNoData(t *testing.T) {
	gb := testGeobox(30, 30)
	r := rand.New(rand.NewPCG(13, 14))
	tile := reflectanceTile(gb, 0, 0, 0, 0)
	for i := 0; i < gb.Size(); i++ {
		setPixel(tile, i, [4]float64{r.Float64(), r.Float64(), r.Float64(), r.Float64()})
	}
	p := newTestProcessor(t, flatElevation(45))

	ds, err := p.Process(context.Background(), tile, false)
	require.NoError(t, err)

	allowed := map[uint8]bool{OutputNoData: true}
	for _, d := range DefaultThresholds().Densities() {
		allowed[d] = true
	}
	m, _ := ds.Band(BandMangroves)
	for i, v := range m.Data {
		assert.True(t, allowed[v], "pixel %d has value %d", i, v)
	}
}

func TestProcess_ElevationFailure(t *testing.T) {
	gb := testGeobox(3, 3)
	boom := eris.New("dem service down")
	p := newTestProcessor(t, ElevationFunc(func(context.Context, raster.Geobox) (*raster.Band, error) {
		return nil, boom
	}))

	ds, err := p.Process(context.Background(), reflectanceTile(gb, dense[0], dense[1], dense[2], dense[3]), false)
	require.Error(t, err)
	assert.Nil(t, ds)
	assert.True(t, errors.Is(err, boom))
}

func TestProcess_ElevationWrongGrid(t *testing.T) {
	gb := testGeobox(3, 3)
	p := newTestProcessor(t, ElevationFunc(func(_ context.Context, g raster.Geobox) (*raster.Band, error) {
		return raster.NewBand("dem", g.ZoomOut(3)), nil
	}))

	_, err := p.Process(context.Background(), reflectanceTile(gb, dense[0], dense[1], dense[2], dense[3]), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, raster.ErrMalformedTile))
}

func TestProcess_MalformedTile(t *testing.T) {
	gb := testGeobox(3, 3)
	tile := reflectanceTile(gb, 0.3, 0.1, 0.5, 0.1)
	delete(tile.Bands, raster.BandSWIR16)

	p := newTestProcessor(t, flatElevation(100))
	_, err := p.Process(context.Background(), tile, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, raster.ErrMalformedTile))

	_, err = p.Process(context.Background(), raster.NewTile(raster.Geobox{}), false)
	assert.True(t, errors.Is(err, raster.ErrMalformedTile))
}

func TestProcess_SkipEmptyElevation(t *testing.T) {
	gb := testGeobox(3, 3)
	var calls int
	src := ElevationFunc(func(context.Context, raster.Geobox) (*raster.Band, error) {
		calls++
		return nil, eris.New("should not be called")
	})
	p := newTestProcessor(t, src, WithSkipEmptyElevation(true))

	ds, err := p.Process(context.Background(), reflectanceTile(gb, 0.5, 0.5, 0.5, 0.5), false)
	require.NoError(t, err)
	assert.Equal(t, 0, calls)
	assert.Equal(t, []string{BandMangroves}, ds.Names())

	// Debug output always needs the real elevation mask.
	_, err = p.Process(context.Background(), reflectanceTile(gb, 0.5, 0.5, 0.5, 0.5), true)
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestProcess_Concurrent(t *testing.T) {
	gb := testGeobox(16, 16)
	p := newTestProcessor(t, flatElevation(100))
	want, err := p.Process(context.Background(), reflectanceTile(gb, dense[0], dense[1], dense[2], dense[3]), false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*raster.Dataset, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = p.Process(context.Background(), reflectanceTile(gb, dense[0], dense[1], dense[2], dense[3]), false)
		}(i)
	}
	wg.Wait()
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want, results[i])
	}
}
