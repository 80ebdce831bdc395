package morph

import (
	"strings"

	"github.com/rotisserie/eris"
	"gocv.io/x/gocv"
)

// Dilate returns the dilation of mask (width × height) by e. Pixels outside
// the grid count as false.
func Dilate(mask []bool, width, height int, e Element) []bool {
	return apply(mask, width, height, e.Reflect(), gocv.MorphDilate)
}

// Erode returns the erosion of mask (width × height) by e. Pixels outside
// the grid count as true, so regions touching the border are not eaten.
func Erode(mask []bool, width, height int, e Element) []bool {
	return apply(mask, width, height, e, gocv.MorphErode)
}

// apply runs an OpenCV dilation or erosion with kernel k over mask. OpenCV's
// default constant border is the identity of each operator, which gives
// the border behaviour documented on Dilate and Erode. len(mask) must be
// width*height.
func apply(mask []bool, width, height int, k Element, op gocv.MorphType) []bool {
	out := make([]bool, len(mask))
	if len(mask) == 0 {
		return out
	}

	pix := make([]byte, len(mask))
	for i, v := range mask {
		if v {
			pix[i] = 1
		}
	}
	src, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8U, pix)
	if err != nil {
		panic(eris.Wrap(err, "morph: wrap mask"))
	}
	defer src.Close()

	kernel := k.kernel()
	defer kernel.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	if op == gocv.MorphDilate {
		gocv.Dilate(src, &dst, kernel)
	} else {
		gocv.Erode(src, &dst, kernel)
	}

	for i, v := range dst.ToBytes() {
		out[i] = v != 0
	}
	return out
}

// Close is dilation followed by erosion with the same element.
func Close(mask []bool, width, height int, e Element) []bool {
	return Erode(Dilate(mask, width, height, e), width, height, e)
}

// Open is erosion followed by dilation with the same element.
func Open(mask []bool, width, height int, e Element) []bool {
	return Dilate(Erode(mask, width, height, e), width, height, e)
}

// Operation kinds accepted by Cleanup.
const (
	OpDilation = "dilation"
	OpErosion  = "erosion"
	OpOpening  = "opening"
	OpClosing  = "closing"
)

// Op is one step of a cleanup sequence: a disk of Radius applied with Kind.
type Op struct {
	Kind   string
	Radius int
}

// Cleanup applies ops in order, each with a disk of the op's radius. A
// radius of zero leaves the mask unchanged. The input is never modified.
func Cleanup(mask []bool, width, height int, ops []Op) ([]bool, error) {
	if len(mask) != width*height {
		return nil, eris.Errorf("morph: mask has %d pixels, want %dx%d", len(mask), width, height)
	}
	out := make([]bool, len(mask))
	copy(out, mask)
	for _, op := range ops {
		if op.Radius < 0 {
			return nil, eris.Errorf("morph: negative radius %d for %s", op.Radius, op.Kind)
		}
		if op.Radius == 0 {
			continue
		}
		e := Disk(op.Radius)
		switch strings.ToLower(op.Kind) {
		case OpDilation:
			out = Dilate(out, width, height, e)
		case OpErosion:
			out = Erode(out, width, height, e)
		case OpOpening:
			out = Open(out, width, height, e)
		case OpClosing:
			out = Close(out, width, height, e)
		default:
			return nil, eris.Errorf("morph: unknown operation %q", op.Kind)
		}
	}
	return out, nil
}
