package raster

import (
	"math"

	"github.com/rotisserie/eris"
)

// Band is a float raster on a geobox. NaN marks invalid pixels.
type Band struct {
	Name   string
	Geobox Geobox
	Data   []float64
}

// NewBand allocates a zero-filled band on gb.
func NewBand(name string, gb Geobox) *Band {
	return &Band{Name: name, Geobox: gb, Data: make([]float64, gb.Size())}
}

// NewBandFill allocates a band on gb with every pixel set to v.
func NewBandFill(name string, gb Geobox, v float64) *Band {
	b := NewBand(name, gb)
	for i := range b.Data {
		b.Data[i] = v
	}
	return b
}

// At returns the value of pixel (col, row).
func (b *Band) At(col, row int) float64 {
	return b.Data[row*b.Geobox.Width+col]
}

// Set assigns the value of pixel (col, row).
func (b *Band) Set(col, row int, v float64) {
	b.Data[row*b.Geobox.Width+col] = v
}

// ValidCount returns the number of non-NaN pixels.
func (b *Band) ValidCount() int {
	n := 0
	for _, v := range b.Data {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Conforms checks that the band is laid out on gb.
func (b *Band) Conforms(gb Geobox) error {
	if !b.Geobox.Equal(gb) {
		return eris.Wrapf(ErrMalformedTile, "band %s: grid %s does not match %s", b.Name, b.Geobox, gb)
	}
	if len(b.Data) != gb.Size() {
		return eris.Wrapf(ErrMalformedTile, "band %s: %d pixels, want %d", b.Name, len(b.Data), gb.Size())
	}
	return nil
}

// Mask is a boolean raster on a geobox. True marks pixels to exclude.
type Mask struct {
	Name   string
	Geobox Geobox
	Data   []bool
}

// NewMask allocates an all-false mask on gb.
func NewMask(name string, gb Geobox) *Mask {
	return &Mask{Name: name, Geobox: gb, Data: make([]bool, gb.Size())}
}

// Count returns the number of true pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Data {
		if v {
			n++
		}
	}
	return n
}

// Conforms checks that the mask is laid out on gb.
func (m *Mask) Conforms(gb Geobox) error {
	if !m.Geobox.Equal(gb) {
		return eris.Wrapf(ErrMalformedTile, "mask %s: grid %s does not match %s", m.Name, m.Geobox, gb)
	}
	if len(m.Data) != gb.Size() {
		return eris.Wrapf(ErrMalformedTile, "mask %s: %d pixels, want %d", m.Name, len(m.Data), gb.Size())
	}
	return nil
}

// Clone returns a deep copy of m under a new name.
func (m *Mask) Clone(name string) *Mask {
	out := &Mask{Name: name, Geobox: m.Geobox, Data: make([]bool, len(m.Data))}
	copy(out.Data, m.Data)
	return out
}

// Resample maps src onto dst by nearest neighbour. Pixels of dst whose
// centre falls outside src are NaN. Both grids must share a CRS.
func Resample(src *Band, dst Geobox) (*Band, error) {
	if src.Geobox.EPSG != dst.EPSG {
		return nil, eris.Wrapf(ErrMalformedTile, "resample %s: EPSG:%d onto EPSG:%d", src.Name, src.Geobox.EPSG, dst.EPSG)
	}
	if src.Geobox.Equal(dst) {
		out := NewBand(src.Name, dst)
		copy(out.Data, src.Data)
		return out, nil
	}

	sg := src.Geobox
	out := NewBand(src.Name, dst)
	for row := 0; row < dst.Height; row++ {
		for col := 0; col < dst.Width; col++ {
			x, y := dst.PixelCenter(col, row)
			sc := int(math.Floor((x - sg.X0) / sg.ResX))
			sr := int(math.Floor((y - sg.Y0) / sg.ResY))
			if sc < 0 || sr < 0 || sc >= sg.Width || sr >= sg.Height {
				out.Set(col, row, math.NaN())
				continue
			}
			out.Set(col, row, src.At(sc, sr))
		}
	}
	return out, nil
}
