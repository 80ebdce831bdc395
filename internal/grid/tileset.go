package grid

import (
	"sort"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Attribute names read from the tile index shapefile.
const (
	fieldTileID  = "tile_id"
	fieldCountry = "country"
)

type tileEntry struct {
	tile    TileIndex
	country string
}

// TileSet is the list of grid tiles covering the processing region, each
// tagged with the country it belongs to.
type TileSet struct {
	entries []tileEntry
}

// NewTileSet builds a TileSet from explicit tile/country pairs.
func NewTileSet(countries map[TileIndex]string) *TileSet {
	ts := &TileSet{}
	for t, c := range countries {
		ts.entries = append(ts.entries, tileEntry{tile: t, country: strings.ToUpper(c)})
	}
	return ts
}

// LoadTileSet reads a tile index shapefile. Each record needs a tile_id
// attribute ("x,y"); the country attribute is optional.
func LoadTileSet(path string) (*TileSet, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "grid: open tile index %s", path)
	}
	defer func() { _ = reader.Close() }()

	fieldIdx := make(map[string]int)
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}
	tileCol, ok := fieldIdx[fieldTileID]
	if !ok {
		return nil, eris.Errorf("grid: tile index %s has no %s attribute", path, fieldTileID)
	}
	countryCol, hasCountry := fieldIdx[fieldCountry]

	ts := &TileSet{}
	var skipped int
	for reader.Next() {
		raw := strings.TrimSpace(strings.TrimRight(reader.Attribute(tileCol), "\x00"))
		tile, err := ParseTileID(raw)
		if err != nil {
			skipped++
			continue
		}
		entry := tileEntry{tile: tile}
		if hasCountry {
			entry.country = strings.ToUpper(strings.TrimSpace(strings.TrimRight(reader.Attribute(countryCol), "\x00")))
		}
		ts.entries = append(ts.entries, entry)
	}

	if skipped > 0 {
		zap.L().Warn("grid: skipped tile index records with invalid tile ids",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return ts, nil
}

// Tiles returns the unique tiles of the given countries, sorted by column
// then row. No country codes means every tile.
func (ts *TileSet) Tiles(countries []string) []TileIndex {
	want := make(map[string]bool, len(countries))
	for _, c := range countries {
		want[strings.ToUpper(strings.TrimSpace(c))] = true
	}

	seen := make(map[TileIndex]bool)
	var out []TileIndex
	for _, e := range ts.entries {
		if len(want) > 0 && !want[e.country] {
			continue
		}
		if seen[e.tile] {
			continue
		}
		seen[e.tile] = true
		out = append(out, e.tile)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

// ParseRegions turns the --regions flag into country codes; "ALL" or an
// empty value selects every country.
func ParseRegions(regions string) []string {
	regions = strings.TrimSpace(regions)
	if regions == "" || strings.EqualFold(regions, "ALL") {
		return nil
	}
	var out []string
	for _, r := range strings.Split(regions, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, strings.ToUpper(r))
		}
	}
	return out
}
