// Package writer persists classified datasets as per-band TIFFs described
// by a STAC item.
package writer

import (
	"path"
	"strings"

	"github.com/sells-group/mangroves/internal/grid"
)

// ItemPath names the output location of one tile-year.
type ItemPath struct {
	Prefix    string
	Sensor    string
	DatasetID string
	Version   string
	Year      string
}

// Collection returns <prefix>_<sensor>_<dataset>.
func (p ItemPath) Collection() string {
	return p.Prefix + "_" + p.Sensor + "_" + p.DatasetID
}

// Dir returns the slash-separated directory of tile relative to the output root.
func (p ItemPath) Dir(tile grid.TileIndex) string {
	x, y := tile.Padded()
	return path.Join(p.Collection(), strings.ReplaceAll(p.Version, ".", "-"), x, y, p.Year)
}

// Stem returns the file name prefix shared by every file of tile.
func (p ItemPath) Stem(tile grid.TileIndex) string {
	x, y := tile.Padded()
	return p.Collection() + "_" + x + "_" + y + "_" + p.Year
}

// BandPath returns the relative path of one band file.
func (p ItemPath) BandPath(tile grid.TileIndex, band string) string {
	return path.Join(p.Dir(tile), p.Stem(tile)+"_"+band+".tif")
}

// StacPath returns the relative path of the STAC item document.
func (p ItemPath) StacPath(tile grid.TileIndex) string {
	return path.Join(p.Dir(tile), p.Stem(tile)+".stac-item.json")
}
