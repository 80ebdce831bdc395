package elevation

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mangroves/internal/grid"
	"github.com/sells-group/mangroves/internal/raster"
	"github.com/sells-group/mangroves/internal/tiffio"
)

// DirSource reads pre-gridded DEM tiles named <x>_<y>.tif from a directory.
// Each file covers one tile of the grid, at the grid resolution or already
// at the requested geobox.
type DirSource struct {
	dir  string
	grid grid.GridSpec
	cal  Calibration
}

// NewDirSource returns a source reading tiles of g from dir.
func NewDirSource(dir string, g grid.GridSpec, cal Calibration) *DirSource {
	return &DirSource{dir: dir, grid: g, cal: cal}
}

// Path returns the DEM file holding tile.
func (s *DirSource) Path(tile grid.TileIndex) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d_%d.tif", tile.X, tile.Y))
}

// Elevation reads the tile whose origin gb shares.
func (s *DirSource) Elevation(ctx context.Context, gb raster.Geobox) (*raster.Band, error) {
	if gb.Empty() {
		return nil, eris.Wrap(raster.ErrMalformedTile, "elevation: empty geobox")
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "elevation: cancelled")
	}

	// A point just inside the grid origin stays within the tile even when
	// a zoomed-out geobox overhangs it.
	half := s.grid.Resolution / 2
	tile := s.grid.TileOf(gb.X0+math.Copysign(half, gb.ResX), gb.Y0+math.Copysign(half, gb.ResY))
	path := s.Path(tile)

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, eris.Wrapf(ErrUnavailable, "elevation: no dem for tile %s", tile)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "elevation: open %s", path)
	}
	defer f.Close()

	w, h, data, err := tiffio.Decode(f)
	if err != nil {
		return nil, eris.Wrapf(err, "elevation: decode %s", path)
	}

	if w == gb.Width && h == gb.Height {
		return newBand(gb, data, s.cal), nil
	}

	native := s.grid.TileGeobox(tile)
	if w != native.Width || h != native.Height {
		return nil, eris.Wrapf(raster.ErrMalformedTile, "elevation: %s is %dx%d, want %dx%d", path, w, h, native.Width, native.Height)
	}
	return raster.Resample(newBand(native, data, s.cal), gb)
}
