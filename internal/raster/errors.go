package raster

import "github.com/rotisserie/eris"

// ErrEmptyCollection means no source data exists for the requested tile and
// time window. Callers treat it as "nothing to classify", not as a failure.
var ErrEmptyCollection = eris.New("raster: empty collection")

// ErrMalformedTile means the input tile is structurally unusable: missing
// bands, mismatched grids or an empty geobox.
var ErrMalformedTile = eris.New("raster: malformed tile")
