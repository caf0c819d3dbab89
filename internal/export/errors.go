// Package export turns a video's timeline into downloadable documents: a
// multi-sheet workbook, an ML JSON document and a normalized manifest CSV.
package export

import "errors"

// ErrInvalidInput is returned when an export is requested without a video.
var ErrInvalidInput = errors.New("invalid input: no video loaded")
