package ammi

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mangroves/internal/raster"
)

// ElevationSource returns an elevation band laid out on exactly the given
// geobox. Pixels without data are NaN; an error means the elevation could
// not be obtained at all.
type ElevationSource interface {
	Elevation(ctx context.Context, gb raster.Geobox) (*raster.Band, error)
}

// ElevationFunc adapts a function to ElevationSource.
type ElevationFunc func(ctx context.Context, gb raster.Geobox) (*raster.Band, error)

// Elevation calls f.
func (f ElevationFunc) Elevation(ctx context.Context, gb raster.Geobox) (*raster.Band, error) {
	return f(ctx, gb)
}

// Option configures a Processor.
type Option func(*Processor)

// WithThresholds sets the AMMI levels.
func WithThresholds(t Thresholds) Option {
	return func(p *Processor) {
		p.thresholds = t
	}
}

// WithElevationThreshold sets the elevation below which pixels are excluded.
func WithElevationThreshold(v float64) Option {
	return func(p *Processor) {
		p.elevationThreshold = v
	}
}

// WithMorphRadius sets the disk radius of the water mask cleanup.
func WithMorphRadius(r int) Option {
	return func(p *Processor) {
		p.morphRadius = r
	}
}

// WithPrescaled marks input tiles as already in reflectance units, so the
// digital-number scaling step is skipped.
func WithPrescaled() Option {
	return func(p *Processor) {
		p.prescaled = true
	}
}

// WithSkipEmptyElevation skips the elevation fetch of non-debug runs when
// nothing is left to mask after water masking.
func WithSkipEmptyElevation(skip bool) Option {
	return func(p *Processor) {
		p.skipEmptyElevation = skip
	}
}

// Processor turns a loaded tile into a classified dataset. It holds no
// mutable state and is safe for concurrent use.
type Processor struct {
	elevation          ElevationSource
	thresholds         Thresholds
	elevationThreshold float64
	morphRadius        int
	prescaled          bool
	skipEmptyElevation bool
}

// NewProcessor creates a Processor that fetches elevation from src.
func NewProcessor(src ElevationSource, opts ...Option) (*Processor, error) {
	p := &Processor{
		elevation:          src,
		thresholds:         DefaultThresholds(),
		elevationThreshold: DefaultElevationThreshold,
		morphRadius:        DefaultMorphRadius,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.elevation == nil {
		return nil, eris.New("ammi: elevation source is required")
	}
	if err := p.thresholds.Validate(); err != nil {
		return nil, err
	}
	if p.morphRadius < 0 {
		return nil, eris.Errorf("ammi: negative morph radius %d", p.morphRadius)
	}
	return p, nil
}

// Densities returns the class values the processor can emit, ascending.
func (p *Processor) Densities() []uint8 {
	return p.thresholds.Densities()
}

// Process classifies tile. With debug set the dataset also carries the
// index, the unmasked classification and every mask; otherwise it holds
// only the mangroves band.
func (p *Processor) Process(ctx context.Context, tile *raster.Tile, debug bool) (*raster.Dataset, error) {
	if err := tile.Validate(raster.RequiredBands...); err != nil {
		return nil, eris.Wrap(err, "ammi: validate tile")
	}
	if !p.prescaled {
		tile = tile.Scale()
	}
	gb := tile.Geobox

	nir, _ := tile.Band(raster.BandNIR)
	red, _ := tile.Band(raster.BandRed)
	green, _ := tile.Band(raster.BandGreen)
	swir, _ := tile.Band(raster.BandSWIR16)

	index := Index(nir, red, swir)
	preMask := Classify(index.Data, p.thresholds)

	water, err := WaterMask(green, nir, swir, p.morphRadius)
	if err != nil {
		return nil, err
	}
	classes, err := ApplyMask(preMask, gb, water.Mask)
	if err != nil {
		return nil, err
	}

	elevationMask, err := p.elevationMask(ctx, gb, classes, debug)
	if err != nil {
		return nil, err
	}
	classes, err = ApplyMask(classes, gb, elevationMask)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("ammi: tile classified",
		zap.Stringer("geobox", gb),
		zap.Int("classified", countClassified(preMask)),
		zap.Int("water", water.Mask.Count()),
		zap.Int("low_elevation", elevationMask.Count()),
		zap.Int("mangroves", countClassified(classes)),
	)

	ds := &raster.Dataset{Geobox: gb}
	ds.Bands = append(ds.Bands, encodeClasses(BandMangroves, classes, true))
	if debug {
		ds.Bands = append(ds.Bands,
			encodeIndex(index),
			encodeClasses(BandPreMask, preMask, false),
			encodeMask(elevationMask),
			encodeMask(water.Raw),
			encodeMask(water.Mask),
		)
	}
	return ds, nil
}

func (p *Processor) elevationMask(ctx context.Context, gb raster.Geobox, classes []uint8, debug bool) (*raster.Mask, error) {
	if p.skipEmptyElevation && !debug && countClassified(classes) == 0 {
		zap.L().Debug("ammi: nothing left to mask, skipping elevation", zap.Stringer("geobox", gb))
		return raster.NewMask(BandElevationMask, gb), nil
	}

	elevation, err := p.elevation.Elevation(ctx, gb)
	if err != nil {
		return nil, eris.Wrap(err, "ammi: fetch elevation")
	}
	if elevation == nil {
		return nil, eris.New("ammi: elevation source returned no band")
	}
	if err := elevation.Conforms(gb); err != nil {
		return nil, eris.Wrap(err, "ammi: elevation grid")
	}
	return ElevationMask(elevation, p.elevationThreshold), nil
}

func countClassified(classes []uint8) int {
	n := 0
	for _, c := range classes {
		if c != Unclassified {
			n++
		}
	}
	return n
}
