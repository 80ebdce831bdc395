package ammi

import (
	"math"

	"github.com/rotisserie/eris"
)

// Density bounds of the classification.
const (
	minDensity = 10
	maxDensity = 100
)

// Unclassified is the class of pixels below the lowest threshold, or with
// an undefined index. It is encoded as OutputNoData on output.
const Unclassified uint8 = 0

// Thresholds is an ascending list of AMMI levels. Level i (0-based) of N
// maps to density 10 + i*90/(N-1), evenly spaced from 10 to 100.
type Thresholds []float64

// DefaultThresholds returns the integer levels 4 through 19.
func DefaultThresholds() Thresholds {
	t, _ := ThresholdRange(4, 20)
	return t
}

// ThresholdRange returns the integer levels in the half-open range
// [lo, hi) with step 1.
func ThresholdRange(lo, hi int) (Thresholds, error) {
	if hi <= lo {
		return nil, eris.Errorf("ammi: empty threshold range [%d, %d)", lo, hi)
	}
	t := make(Thresholds, 0, hi-lo)
	for v := lo; v < hi; v++ {
		t = append(t, float64(v))
	}
	return t, nil
}

// Validate checks the levels are non-empty, finite and strictly ascending.
func (t Thresholds) Validate() error {
	if len(t) == 0 {
		return eris.New("ammi: no thresholds")
	}
	for i, v := range t {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return eris.Errorf("ammi: threshold %d is not finite", i)
		}
		if i > 0 && v <= t[i-1] {
			return eris.Errorf("ammi: thresholds not ascending at %d (%g <= %g)", i, v, t[i-1])
		}
	}
	return nil
}

// Densities returns the density class assigned to each level. Fractional
// densities are truncated.
func (t Thresholds) Densities() []uint8 {
	out := make([]uint8, len(t))
	if len(t) == 1 {
		out[0] = maxDensity
		return out
	}
	step := float64(maxDensity-minDensity) / float64(len(t)-1)
	for i := range t {
		out[i] = uint8(math.Trunc(minDensity + float64(i)*step))
	}
	return out
}

// Classify folds the levels over the index in ascending order: a pixel
// takes the density of every level its AMMI meets or exceeds, so the last
// write is the highest level crossed. NaN never crosses a level and stays
// Unclassified.
func Classify(ammi []float64, levels Thresholds) []uint8 {
	densities := levels.Densities()
	classes := make([]uint8, len(ammi))
	for i, level := range levels {
		d := densities[i]
		for p, v := range ammi {
			if v >= level {
				classes[p] = d
			}
		}
	}
	return classes
}
