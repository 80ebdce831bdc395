package writer

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/mangroves/internal/grid"
	"github.com/sells-group/mangroves/internal/raster"
	"github.com/sells-group/mangroves/internal/summary"
)

const stacVersion = "1.0.0"

var stacExtensions = []string{
	"https://stac-extensions.github.io/projection/v1.1.0/schema.json",
	"https://stac-extensions.github.io/raster/v1.1.0/schema.json",
}

// Item is a STAC item describing one written tile-year.
type Item struct {
	Type           string            `json:"type"`
	STACVersion    string            `json:"stac_version"`
	StacExtensions []string          `json:"stac_extensions"`
	ID             string            `json:"id"`
	Collection     string            `json:"collection"`
	Geometry       *geojson.Geometry `json:"geometry"`
	BBox           []float64         `json:"bbox"`
	Properties     map[string]any    `json:"properties"`
	Assets         map[string]Asset  `json:"assets"`
	Links          []Link            `json:"links"`
}

// Asset is one band file of an item.
type Asset struct {
	Href        string       `json:"href"`
	Type        string       `json:"type"`
	Title       string       `json:"title,omitempty"`
	Roles       []string     `json:"roles"`
	RasterBands []RasterBand `json:"raster:bands"`
}

// RasterBand is the raster extension entry of an asset.
type RasterBand struct {
	DataType string `json:"data_type"`
	NoData   *uint8 `json:"nodata,omitempty"`
}

// Link is a STAC link object.
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
	Type string `json:"type,omitempty"`
}

func buildItem(item ItemPath, tile grid.TileIndex, ds *raster.Dataset, sum *summary.Summary, created time.Time) (*Item, error) {
	footprint, bbox := lonLatFootprint(ds.Geobox)
	g, err := geojson.Encode(footprint)
	if err != nil {
		return nil, eris.Wrap(err, "writer: encode geometry")
	}

	props := map[string]any{
		"datetime":       yearStart(item.Year),
		"start_datetime": yearStart(item.Year),
		"end_datetime":   yearEnd(item.Year),
		"created":        created.UTC().Format(time.RFC3339),
		"proj:epsg":      ds.Geobox.EPSG,
		"proj:shape":     []int{ds.Geobox.Height, ds.Geobox.Width},
		"proj:transform": ds.Geobox.Transform(),
		"tile_id":        tile.String(),
		"version":        item.Version,
	}
	if sum != nil {
		props["mangroves:summary"] = sum
	}

	stem := item.Stem(tile)
	assets := make(map[string]Asset, len(ds.Bands))
	for _, b := range ds.Bands {
		assets[b.Name] = Asset{
			Href:        stem + "_" + b.Name + ".tif",
			Type:        "image/tiff",
			Title:       b.Name,
			Roles:       []string{"data"},
			RasterBands: []RasterBand{{DataType: "uint8", NoData: b.NoData}},
		}
	}

	return &Item{
		Type:           "Feature",
		STACVersion:    stacVersion,
		StacExtensions: stacExtensions,
		ID:             stem,
		Collection:     item.Collection(),
		Geometry:       g,
		BBox:           bbox,
		Properties:     props,
		Assets:         assets,
		Links: []Link{
			{Rel: "self", Href: stem + ".stac-item.json", Type: "application/json"},
		},
	}, nil
}

// lonLatFootprint maps a projected grid to WGS 84. An axis-aligned Mercator
// box stays a lon/lat box; one crossing the antimeridian is split in two.
func lonLatFootprint(gb raster.Geobox) (geom.T, []float64) {
	b := gb.Bounds()
	west, south := grid.ToLonLat(b.Min(0), b.Min(1))
	east, north := grid.ToLonLat(b.Max(0), b.Max(1))
	bbox := []float64{west, south, east, north}

	if west <= east {
		return lonLatBox(west, south, east, north), bbox
	}
	mp := geom.NewMultiPolygon(geom.XY)
	_ = mp.Push(lonLatBox(west, south, 180, north))
	_ = mp.Push(lonLatBox(-180, south, east, north))
	return mp, bbox
}

func lonLatBox(west, south, east, north float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{west, south}, {east, south}, {east, north}, {west, north}, {west, south},
	}})
}

func yearStart(year string) string {
	return year + "-01-01T00:00:00Z"
}

func yearEnd(year string) string {
	return year + "-12-31T23:59:59Z"
}
