// Package tiffio reads and writes single-band grayscale TIFF rasters.
package tiffio

import (
	"image"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/image/tiff"
)

// Decode reads an 8- or 16-bit grayscale TIFF and returns its pixels as
// float64 in row-major order. Samples are returned unsigned; float TIFFs are
// rejected.
func Decode(r io.Reader) (width, height int, data []float64, err error) {
	img, err := tiff.Decode(r)
	if err != nil {
		return 0, 0, nil, eris.Wrap(err, "tiffio: decode")
	}
	b := img.Bounds()
	width, height = b.Dx(), b.Dy()
	data = make([]float64, width*height)

	switch im := img.(type) {
	case *image.Gray16:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				data[y*width+x] = float64(im.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	case *image.Gray:
		for y := 0; y < height; y++ {
			row := im.Pix[y*im.Stride : y*im.Stride+width]
			for x, v := range row {
				data[y*width+x] = float64(v)
			}
		}
	default:
		return 0, 0, nil, eris.Errorf("tiffio: unsupported image type %T", img)
	}
	return width, height, data, nil
}

// EncodeGray writes an 8-bit deflate-compressed TIFF.
func EncodeGray(w io.Writer, width, height int, pix []uint8) error {
	if len(pix) != width*height {
		return eris.Errorf("tiffio: %d pixels for %dx%d", len(pix), width, height)
	}
	img := &image.Gray{Pix: pix, Stride: width, Rect: image.Rect(0, 0, width, height)}
	if err := tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
		return eris.Wrap(err, "tiffio: encode gray")
	}
	return nil
}

// EncodeGray16 writes a 16-bit deflate-compressed TIFF. Values are
// truncated to uint16.
func EncodeGray16(w io.Writer, width, height int, vals []uint16) error {
	if len(vals) != width*height {
		return eris.Errorf("tiffio: %d pixels for %dx%d", len(vals), width, height)
	}
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for i, v := range vals {
		img.Pix[2*i] = uint8(v >> 8)
		img.Pix[2*i+1] = uint8(v)
	}
	if err := tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
		return eris.Wrap(err, "tiffio: encode gray16")
	}
	return nil
}
