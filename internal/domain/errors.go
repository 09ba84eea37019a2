package domain

import (
	"errors"
	"fmt"
)

// ErrNoData is reported when a run extracts no raw records for its date.
var ErrNoData = errors.New("no data found")

// ExtractionError is a fatal failure while reading the input directory or one of
// its files. Extraction never returns partial results alongside it.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
