// Package summary computes per-tile statistics of a classified dataset.
package summary

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/mangroves/internal/raster"
)

// Summary describes the mangrove band of one tile.
type Summary struct {
	Pixels           int           `json:"pixels"`
	Mangrove         int           `json:"mangrove"`
	MangroveFraction float64       `json:"mangrove_fraction"`
	MeanDensity      float64       `json:"mean_density"`
	StdDevDensity    float64       `json:"stddev_density"`
	Histogram        map[uint8]int `json:"histogram"`
}

// Fields returns the summary as zap fields.
func (s Summary) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("pixels", s.Pixels),
		zap.Int("mangrove_pixels", s.Mangrove),
		zap.Float64("mangrove_fraction", s.MangroveFraction),
		zap.Float64("mean_density", s.MeanDensity),
	}
}

// Summarize reads the named class band of ds. Pixels equal to the band's
// nodata value are not mangrove. densities lists the possible class values
// in ascending order and fixes the histogram bins.
func Summarize(ds *raster.Dataset, band string, densities []uint8) (Summary, error) {
	if ds == nil {
		return Summary{}, eris.New("summary: nil dataset")
	}
	b, ok := ds.Band(band)
	if !ok {
		return Summary{}, eris.Errorf("summary: band %q not in dataset", band)
	}

	s := Summary{Pixels: len(b.Data), Histogram: make(map[uint8]int, len(densities))}
	values := make([]float64, 0, len(b.Data))
	for _, v := range b.Data {
		if b.NoData != nil && v == *b.NoData {
			continue
		}
		if v == 0 {
			continue
		}
		values = append(values, float64(v))
	}
	s.Mangrove = len(values)
	if s.Pixels > 0 {
		s.MangroveFraction = float64(s.Mangrove) / float64(s.Pixels)
	}
	if s.Mangrove == 0 {
		return s, nil
	}

	s.MeanDensity, s.StdDevDensity = stat.PopMeanStdDev(values, nil)

	if len(densities) == 0 {
		return s, nil
	}
	sort.Float64s(values)
	dividers := make([]float64, 0, len(densities)+1)
	for _, d := range densities {
		dividers = append(dividers, float64(d))
	}
	dividers = append(dividers, float64(densities[len(densities)-1])+1)

	lo, hi := dividers[0], dividers[len(dividers)-1]
	in := make([]float64, 0, len(values))
	for _, v := range values {
		if v >= lo && v < hi {
			in = append(in, v)
		}
	}
	if len(in) < len(values) {
		zap.L().Warn("summary: class values outside histogram range",
			zap.Int("outside", len(values)-len(in)),
		)
	}
	counts := stat.Histogram(nil, dividers, in, nil)
	for i, c := range counts {
		if c > 0 {
			s.Histogram[densities[i]] = int(c)
		}
	}
	return s, nil
}
