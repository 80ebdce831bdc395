// Package morph implements binary morphology on flat row-major masks.
// Structuring elements are described as horizontal runs and applied through
// OpenCV (gocv).
package morph

import (
	"math"

	"gocv.io/x/gocv"
)

// Span is one row of a structuring element: offsets DX in [Left, Right] on
// row offset DY are members.
type Span struct {
	DY    int
	Left  int
	Right int
}

// Element is a structuring element. The origin is offset (0, 0).
type Element struct {
	Spans []Span
}

// Disk returns the digital disk of the given radius: every offset with
// dx*dx + dy*dy <= r*r. Disk(0) is the single origin pixel.
func Disk(radius int) Element {
	if radius < 0 {
		radius = 0
	}
	spans := make([]Span, 0, 2*radius+1)
	for dy := -radius; dy <= radius; dy++ {
		w := int(math.Floor(math.Sqrt(float64(radius*radius - dy*dy))))
		spans = append(spans, Span{DY: dy, Left: -w, Right: w})
	}
	return Element{Spans: spans}
}

// Size returns the number of member offsets.
func (e Element) Size() int {
	n := 0
	for _, s := range e.Spans {
		n += s.Right - s.Left + 1
	}
	return n
}

// Reflect returns the element mirrored through the origin.
func (e Element) Reflect() Element {
	out := Element{Spans: make([]Span, len(e.Spans))}
	for i, s := range e.Spans {
		out.Spans[i] = Span{DY: -s.DY, Left: -s.Right, Right: -s.Left}
	}
	return out
}

// reach returns the largest offset of e along either axis.
func (e Element) reach() int {
	r := 0
	for _, s := range e.Spans {
		for _, v := range []int{s.DY, s.Left, s.Right} {
			if v < 0 {
				v = -v
			}
			if v > r {
				r = v
			}
		}
	}
	return r
}

// kernel returns e as a square CV_8U OpenCV kernel centred on the origin.
// The caller closes it.
func (e Element) kernel() gocv.Mat {
	r := e.reach()
	k := gocv.Zeros(2*r+1, 2*r+1, gocv.MatTypeCV8U)
	for _, s := range e.Spans {
		for dx := s.Left; dx <= s.Right; dx++ {
			k.SetUCharAt(r+s.DY, r+dx, 1)
		}
	}
	return k
}
