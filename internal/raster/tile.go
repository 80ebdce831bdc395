package raster

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// Input band names.
const (
	BandNIR    = "nir"
	BandRed    = "red"
	BandGreen  = "green"
	BandSWIR16 = "swir16"
)

// RequiredBands lists the reflectance bands a tile must carry.
var RequiredBands = []string{BandNIR, BandRed, BandGreen, BandSWIR16}

// Reflectance scaling of the source data.
const (
	ReflectanceScale = 0.0001
	ReflectanceMin   = 0.0001
	ReflectanceMax   = 1.0
)

// Tile is a set of named bands sharing one geobox.
type Tile struct {
	Geobox Geobox
	Bands  map[string]*Band
}

// NewTile returns an empty tile on gb.
func NewTile(gb Geobox) *Tile {
	return &Tile{Geobox: gb, Bands: make(map[string]*Band)}
}

// Add inserts b, which must conform to the tile grid.
func (t *Tile) Add(b *Band) error {
	if err := b.Conforms(t.Geobox); err != nil {
		return err
	}
	t.Bands[b.Name] = b
	return nil
}

// Band returns the named band.
func (t *Tile) Band(name string) (*Band, bool) {
	b, ok := t.Bands[name]
	return b, ok
}

// Names returns the band names in sorted order.
func (t *Tile) Names() []string {
	names := make([]string, 0, len(t.Bands))
	for n := range t.Bands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks that the tile has pixels, carries every required band and
// that every band sits on the tile grid.
func (t *Tile) Validate(required ...string) error {
	if t == nil {
		return eris.Wrap(ErrMalformedTile, "nil tile")
	}
	if t.Geobox.Empty() {
		return eris.Wrapf(ErrMalformedTile, "empty geobox %s", t.Geobox)
	}
	for _, name := range required {
		if _, ok := t.Bands[name]; !ok {
			return eris.Wrapf(ErrMalformedTile, "missing band %s", name)
		}
	}
	for _, name := range t.Names() {
		if err := t.Bands[name].Conforms(t.Geobox); err != nil {
			return err
		}
	}
	return nil
}

// Scale converts raw digital numbers to reflectance. Zero is the source
// no-data value and becomes NaN; everything else is multiplied by
// ReflectanceScale and clipped to [ReflectanceMin, ReflectanceMax].
// The receiver is not modified.
func (t *Tile) Scale() *Tile {
	out := NewTile(t.Geobox)
	for name, b := range t.Bands {
		sb := NewBand(name, b.Geobox)
		for i, v := range b.Data {
			sb.Data[i] = ScaleReflectance(v)
		}
		out.Bands[name] = sb
	}
	return out
}

// ScaleReflectance converts one digital number to clipped reflectance.
func ScaleReflectance(dn float64) float64 {
	if dn == 0 || math.IsNaN(dn) {
		return math.NaN()
	}
	v := dn * ReflectanceScale
	if v < ReflectanceMin {
		return ReflectanceMin
	}
	if v > ReflectanceMax {
		return ReflectanceMax
	}
	return v
}
