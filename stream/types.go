// Package stream implements edn-lines: a sequence of KIM-EDN documents, one
// per line.
//
// Blank lines are skipped. Documents are decoded with a kimedn.Decoder and
// written with a kimedn.Encoder, so every option of the codec applies.
// Pretty-printed documents span several lines; such output is meant for
// people and is not read back line by line.
package stream

import (
	"errors"
	"fmt"
)

// MaxLineSize is the default maximum line size (64 MiB).
const MaxLineSize = 64 * 1024 * 1024

// ErrLineTooLong is returned when a line exceeds the reader's limit.
var ErrLineTooLong = errors.New("line too long")

// LineError attaches the 1-based input line to a read or decode failure.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
