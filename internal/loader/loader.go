// Package loader reads annual surface reflectance composites from a
// directory tree of single-band TIFFs.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mangroves/internal/grid"
	"github.com/sells-group/mangroves/internal/raster"
	"github.com/sells-group/mangroves/internal/tiffio"
)

// DefaultCollection is the composite collection read when none is configured.
const DefaultCollection = "dep_s2_geomad"

// FSLoader reads <root>/<collection>/<x>_<y>/<year>/<band>.tif.
type FSLoader struct {
	root       string
	collection string
	grid       grid.GridSpec
	bands      []string
}

// Option configures an FSLoader.
type Option func(*FSLoader)

// WithCollection overrides the collection directory name.
func WithCollection(name string) Option {
	return func(l *FSLoader) {
		if name != "" {
			l.collection = name
		}
	}
}

// WithBands overrides the bands read for each tile. Duplicates are ignored.
func WithBands(bands ...string) Option {
	return func(l *FSLoader) {
		l.bands = dedupe(bands)
	}
}

// New returns a loader rooted at root. Band files are expected at the
// native resolution of g or already at the requested geobox.
func New(root string, g grid.GridSpec, opts ...Option) *FSLoader {
	l := &FSLoader{
		root:       root,
		collection: DefaultCollection,
		grid:       g,
		bands:      dedupe(raster.RequiredBands),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// TileDir returns the directory holding the bands of one tile-year.
func (l *FSLoader) TileDir(tile grid.TileIndex, year string) string {
	return filepath.Join(l.root, l.collection, fmt.Sprintf("%d_%d", tile.X, tile.Y), year)
}

// Load reads every configured band of tile for year onto gb. A missing
// tile-year directory yields raster.ErrEmptyCollection.
func (l *FSLoader) Load(ctx context.Context, tile grid.TileIndex, year string, gb raster.Geobox) (*raster.Tile, error) {
	dir := l.TileDir(tile, year)
	info, err := os.Stat(dir)
	if os.IsNotExist(err) || (err == nil && !info.IsDir()) {
		return nil, eris.Wrapf(raster.ErrEmptyCollection, "loader: no %s data for tile %s year %s", l.collection, tile, year)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "loader: stat %s", dir)
	}

	native := l.grid.TileGeobox(tile)
	out := raster.NewTile(gb)
	for _, name := range l.bands {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "loader: cancelled")
		}
		b, err := l.readBand(filepath.Join(dir, name+".tif"), name, native, gb)
		if err != nil {
			return nil, err
		}
		if err := out.Add(b); err != nil {
			return nil, eris.Wrapf(err, "loader: add band %s", name)
		}
	}

	zap.L().Debug("loaded tile",
		zap.String("tile", tile.String()),
		zap.String("year", year),
		zap.Strings("bands", l.bands),
		zap.Stringer("geobox", gb),
	)
	return out, nil
}

func (l *FSLoader) readBand(path, name string, native, gb raster.Geobox) (*raster.Band, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, eris.Wrapf(raster.ErrMalformedTile, "loader: band %s missing", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open %s", path)
	}
	defer f.Close()

	w, h, data, err := tiffio.Decode(f)
	if err != nil {
		return nil, eris.Wrapf(raster.ErrMalformedTile, "loader: band %s: %v", name, err)
	}

	switch {
	case w == gb.Width && h == gb.Height:
		return &raster.Band{Name: name, Geobox: gb, Data: data}, nil
	case w == native.Width && h == native.Height:
		src := &raster.Band{Name: name, Geobox: native, Data: data}
		return raster.Resample(src, gb)
	default:
		return nil, eris.Wrapf(raster.ErrMalformedTile,
			"loader: band %s is %dx%d, want %dx%d or %dx%d", name, w, h, gb.Width, gb.Height, native.Width, native.Height)
	}
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
