package raster

// OutputBand is an 8-bit band of a classified dataset. NoData is nil when
// the band carries no explicit sentinel.
type OutputBand struct {
	Name   string
	Data   []uint8
	NoData *uint8
}

// Dataset is the finished, writer-ready result of classifying a tile.
type Dataset struct {
	Geobox Geobox
	Bands  []OutputBand
}

// Band returns the named band.
func (d *Dataset) Band(name string) (*OutputBand, bool) {
	for i := range d.Bands {
		if d.Bands[i].Name == name {
			return &d.Bands[i], true
		}
	}
	return nil, false
}

// Names returns the band names in output order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.Bands))
	for i, b := range d.Bands {
		names[i] = b.Name
	}
	return names
}
