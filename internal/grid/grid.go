// Package grid defines the tiling of the processing region and the tile
// index that lists which tiles cover which countries.
package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mangroves/internal/raster"
)

// PacificEPSG is WGS 84 / PDC Mercator, the CRS of the Pacific grids.
const PacificEPSG = 3832

// GridSpec is a regular tiling anchored at Origin (the south-west corner of
// tile 0,0). Tile Y indices increase northwards.
type GridSpec struct {
	EPSG       int
	OriginX    float64
	OriginY    float64
	Resolution float64
	TileWidth  int
	TileHeight int
}

// PacificGrid10 is the 10 m Pacific tiling.
var PacificGrid10 = GridSpec{
	EPSG:       PacificEPSG,
	OriginX:    -3000000,
	OriginY:    -4000000,
	Resolution: 10,
	TileWidth:  9600,
	TileHeight: 9600,
}

// PacificGrid30 is the 30 m Pacific tiling over the same tile footprints.
var PacificGrid30 = GridSpec{
	EPSG:       PacificEPSG,
	OriginX:    -3000000,
	OriginY:    -4000000,
	Resolution: 30,
	TileWidth:  3200,
	TileHeight: 3200,
}

// TileIndex addresses one tile of a GridSpec.
type TileIndex struct {
	X int
	Y int
}

// ParseTileID parses "x,y".
func ParseTileID(id string) (TileIndex, error) {
	parts := strings.Split(strings.TrimSpace(id), ",")
	if len(parts) != 2 {
		return TileIndex{}, eris.Errorf("grid: invalid tile id %q", id)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return TileIndex{}, eris.Wrapf(err, "grid: invalid tile column in %q", id)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return TileIndex{}, eris.Wrapf(err, "grid: invalid tile row in %q", id)
	}
	return TileIndex{X: x, Y: y}, nil
}

// String returns the "x,y" form accepted by ParseTileID.
func (t TileIndex) String() string {
	return fmt.Sprintf("%d,%d", t.X, t.Y)
}

// Padded returns the zero-padded column and row used in output paths.
func (t TileIndex) Padded() (string, string) {
	return fmt.Sprintf("%03d", t.X), fmt.Sprintf("%03d", t.Y)
}

// TileGeobox returns the north-up pixel grid of tile t.
func (g GridSpec) TileGeobox(t TileIndex) raster.Geobox {
	spanX := float64(g.TileWidth) * g.Resolution
	spanY := float64(g.TileHeight) * g.Resolution
	return raster.Geobox{
		EPSG:   g.EPSG,
		X0:     g.OriginX + float64(t.X)*spanX,
		Y0:     g.OriginY + float64(t.Y+1)*spanY,
		ResX:   g.Resolution,
		ResY:   -g.Resolution,
		Width:  g.TileWidth,
		Height: g.TileHeight,
	}
}

// TileOf returns the tile containing the CRS point (x, y).
func (g GridSpec) TileOf(x, y float64) TileIndex {
	spanX := float64(g.TileWidth) * g.Resolution
	spanY := float64(g.TileHeight) * g.Resolution
	return TileIndex{
		X: floorDiv(x-g.OriginX, spanX),
		Y: floorDiv(y-g.OriginY, spanY),
	}
}

func floorDiv(v, span float64) int {
	return int(math.Floor(v / span))
}
