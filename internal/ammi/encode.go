package ammi

import (
	"math"

	"github.com/sells-group/mangroves/internal/raster"
)

// OutputNoData marks excluded or invalid pixels in the output raster.
const OutputNoData uint8 = 255

// encodeClasses maps Unclassified to OutputNoData.
func encodeClasses(name string, classes []uint8, nodata bool) raster.OutputBand {
	data := make([]uint8, len(classes))
	for i, c := range classes {
		if c == Unclassified {
			data[i] = OutputNoData
			continue
		}
		data[i] = c
	}
	b := raster.OutputBand{Name: name, Data: data}
	if nodata {
		nd := OutputNoData
		b.NoData = &nd
	}
	return b
}

// encodeIndex truncates index values into [0, 254]; NaN becomes OutputNoData.
func encodeIndex(b *raster.Band) raster.OutputBand {
	data := make([]uint8, len(b.Data))
	for i, v := range b.Data {
		switch {
		case math.IsNaN(v):
			data[i] = OutputNoData
		case v <= 0:
			data[i] = 0
		case v >= float64(OutputNoData-1):
			data[i] = OutputNoData - 1
		default:
			data[i] = uint8(v)
		}
	}
	return raster.OutputBand{Name: b.Name, Data: data}
}

func encodeMask(m *raster.Mask) raster.OutputBand {
	data := make([]uint8, len(m.Data))
	for i, v := range m.Data {
		if v {
			data[i] = 1
		}
	}
	return raster.OutputBand{Name: m.Name, Data: data}
}
