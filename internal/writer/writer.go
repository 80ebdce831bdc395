package writer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mangroves/internal/grid"
	"github.com/sells-group/mangroves/internal/raster"
	"github.com/sells-group/mangroves/internal/summary"
	"github.com/sells-group/mangroves/internal/tiffio"
)

// FSWriter writes items below a root directory.
type FSWriter struct {
	root string
	now  func() time.Time
}

// NewFSWriter returns a writer rooted at root.
func NewFSWriter(root string) *FSWriter {
	return &FSWriter{root: root, now: time.Now}
}

// Exists reports whether the STAC item of tile has been written.
func (w *FSWriter) Exists(_ context.Context, item ItemPath, tile grid.TileIndex) (bool, error) {
	_, err := os.Stat(w.abs(item.StacPath(tile)))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, eris.Wrap(err, "writer: stat item")
	}
}

// Write stores every band of ds and then the STAC item. A present item
// therefore implies complete band files.
func (w *FSWriter) Write(ctx context.Context, item ItemPath, tile grid.TileIndex, ds *raster.Dataset, sum *summary.Summary) (string, error) {
	if ds == nil || len(ds.Bands) == 0 {
		return "", eris.New("writer: empty dataset")
	}
	dir := w.abs(item.Dir(tile))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "writer: create %s", dir)
	}

	for _, b := range ds.Bands {
		if err := ctx.Err(); err != nil {
			return "", eris.Wrap(err, "writer: cancelled")
		}
		var buf bytes.Buffer
		if err := tiffio.EncodeGray(&buf, ds.Geobox.Width, ds.Geobox.Height, b.Data); err != nil {
			return "", eris.Wrapf(err, "writer: band %s", b.Name)
		}
		if err := writeAtomic(w.abs(item.BandPath(tile, b.Name)), buf.Bytes()); err != nil {
			return "", err
		}
	}

	doc, err := buildItem(item, tile, ds, sum, w.now())
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "writer: marshal item")
	}
	stacPath := w.abs(item.StacPath(tile))
	if err := writeAtomic(stacPath, data); err != nil {
		return "", err
	}

	zap.L().Info("wrote item",
		zap.String("id", doc.ID),
		zap.String("path", stacPath),
		zap.Strings("bands", ds.Names()),
	)
	return stacPath, nil
}

func (w *FSWriter) abs(rel string) string {
	return filepath.Join(w.root, filepath.FromSlash(rel))
}

// writeAtomic writes data next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "writer: temp file for %s", path)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return eris.Wrapf(err, "writer: write %s", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return eris.Wrapf(err, "writer: close %s", path)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return eris.Wrapf(err, "writer: rename %s", path)
	}
	return nil
}
