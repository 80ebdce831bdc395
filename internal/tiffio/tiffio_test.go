package tiffio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGray16_RoundTrip(t *testing.T) {
	vals := []uint16{0, 1, 5000, 65535, 300, 10000}
	var buf bytes.Buffer
	require.NoError(t, EncodeGray16(&buf, 3, 2, vals))

	w, h, data, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 3, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, []float64{0, 1, 5000, 65535, 300, 10000}, data)
}

func TestGray_RoundTrip(t *testing.T) {
	pix := []uint8{10, 255, 0, 100}
	var buf bytes.Buffer
	require.NoError(t, EncodeGray(&buf, 2, 2, pix))

	w, h, data, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, []float64{10, 255, 0, 100}, data)
}

func TestEncode_SizeMismatch(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, EncodeGray(&buf, 2, 2, []uint8{1}))
	assert.Error(t, EncodeGray16(&buf, 2, 2, []uint16{1}))
}

func TestDecode_Garbage(t *testing.T) {
	_, _, _, err := Decode(bytes.NewReader([]byte("not a tiff")))
	assert.Error(t, err)
}
