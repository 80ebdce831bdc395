// Package raster holds the in-memory grid types shared by the loader, the
// classifier and the writer.
package raster

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
)

// Geobox is the pixel grid of a raster: its CRS, the top-left corner in CRS
// units, the pixel size and the pixel shape. ResY is negative for north-up
// grids.
type Geobox struct {
	EPSG   int     `json:"epsg"`
	X0     float64 `json:"x0"`
	Y0     float64 `json:"y0"`
	ResX   float64 `json:"res_x"`
	ResY   float64 `json:"res_y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// Size returns the number of pixels on the grid.
func (g Geobox) Size() int {
	if g.Width <= 0 || g.Height <= 0 {
		return 0
	}
	return g.Width * g.Height
}

// Empty reports whether the grid has no pixels.
func (g Geobox) Empty() bool {
	return g.Size() == 0
}

// Equal reports whether both grids have the same CRS, alignment and shape.
func (g Geobox) Equal(o Geobox) bool {
	return g == o
}

// Transform returns the GDAL-ordered affine transform of the grid.
func (g Geobox) Transform() [6]float64 {
	return [6]float64{g.ResX, 0, g.X0, 0, g.ResY, g.Y0}
}

// Bounds returns the extent of the grid in CRS units.
func (g Geobox) Bounds() *geom.Bounds {
	x1 := g.X0 + float64(g.Width)*g.ResX
	y1 := g.Y0 + float64(g.Height)*g.ResY
	return geom.NewBounds(geom.XY).Set(
		math.Min(g.X0, x1), math.Min(g.Y0, y1),
		math.Max(g.X0, x1), math.Max(g.Y0, y1),
	)
}

// Extent returns the grid footprint as a closed polygon in CRS units.
func (g Geobox) Extent() *geom.Polygon {
	return g.Bounds().Polygon()
}

// ZoomOut returns a grid over the same extent with pixels factor times
// larger. The shape is rounded up so the extent is fully covered.
func (g Geobox) ZoomOut(factor int) Geobox {
	if factor <= 1 {
		return g
	}
	out := g
	out.ResX = g.ResX * float64(factor)
	out.ResY = g.ResY * float64(factor)
	out.Width = (g.Width + factor - 1) / factor
	out.Height = (g.Height + factor - 1) / factor
	return out
}

// PixelCenter returns the CRS coordinate of the centre of pixel (col, row).
func (g Geobox) PixelCenter(col, row int) (float64, float64) {
	return g.X0 + (float64(col)+0.5)*g.ResX, g.Y0 + (float64(row)+0.5)*g.ResY
}

func (g Geobox) String() string {
	return fmt.Sprintf("EPSG:%d %dx%d @ (%g, %g) res (%g, %g)",
		g.EPSG, g.Width, g.Height, g.X0, g.Y0, g.ResX, g.ResY)
}
