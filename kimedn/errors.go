package kimedn

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ============================================================
// Sentinel Errors
// ============================================================

var (
	// ErrUnsupportedKey is returned when a map key is not a string, integer,
	// float or boolean.
	ErrUnsupportedKey = errors.New("unsupported key type")

	// ErrNotSerializable is returned when a value has no KIM-EDN form and the
	// default hook (if any) declined it. A default hook may also return it to
	// decline a value.
	ErrNotSerializable = errors.New("not KIM-EDN serializable")

	// ErrCircularReference is returned when a container contains itself.
	ErrCircularReference = errors.New("circular reference detected")

	// ErrOutOfRangeFloat is returned when encoding NaN or an infinity.
	ErrOutOfRangeFloat = errors.New("out of range float values are not KIM-EDN compliant")

	// ErrNestingTooDeep is returned when the container depth limit is exceeded.
	ErrNestingTooDeep = errors.New("nesting too deep")

	// ErrUnexpectedBOM is wrapped by the DecodeError raised for text that
	// starts with U+FEFF.
	ErrUnexpectedBOM = errors.New("unexpected byte order mark")

	// ErrInvalidOffset is returned by RawDecode for a start offset outside
	// the document.
	ErrInvalidOffset = errors.New("start offset out of range")
)

// ============================================================
// Position
// ============================================================

// Position is a location in a document. Line and Column are 1-based,
// Offset is the 0-based character (code point) offset.
type Position struct {
	Line   int
	Column int
	Offset int
}

// String returns position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// positionAt converts a byte offset into doc to a character position.
func positionAt(doc string, byteOff int) Position {
	if byteOff < 0 {
		byteOff = 0
	}
	if byteOff > len(doc) {
		byteOff = len(doc)
	}
	prefix := doc[:byteOff]
	pos := Position{
		Line:   strings.Count(prefix, "\n") + 1,
		Offset: utf8.RuneCountInString(prefix),
	}
	if nl := strings.LastIndexByte(prefix, '\n'); nl >= 0 {
		pos.Column = utf8.RuneCountInString(prefix[nl:])
	} else {
		pos.Column = pos.Offset + 1
	}
	return pos
}

// ============================================================
// DecodeError
// ============================================================

// DecodeError describes malformed input. It carries the unformatted message,
// the whole document and the position of the offending character.
type DecodeError struct {
	Msg string
	Doc string
	Pos Position

	// ByteOffset is the offset of the failure in bytes, suitable for
	// slicing Doc.
	ByteOffset int

	// Err is an optional sentinel classifying the failure.
	Err error
}

func newDecodeError(msg, doc string, byteOff int) *DecodeError {
	return &DecodeError{
		Msg:        msg,
		Doc:        doc,
		Pos:        positionAt(doc, byteOff),
		ByteOffset: byteOff,
	}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: line %d column %d (char %d)", e.Msg, e.Pos.Line, e.Pos.Column, e.Pos.Offset)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Lineno returns the 1-based line of the failure.
func (e *DecodeError) Lineno() int { return e.Pos.Line }

// Colno returns the 1-based column of the failure.
func (e *DecodeError) Colno() int { return e.Pos.Column }
