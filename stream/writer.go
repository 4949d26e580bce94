package stream

import (
	"fmt"
	"io"

	"github.com/Neumenon/kimedn/kimedn"
)

// Writer writes documents to an io.Writer, each followed by a separator.
type Writer struct {
	w     io.Writer
	enc   *kimedn.Encoder
	sep   string
	count int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithEncoder sets the encoder used for each document (default: compact).
func WithEncoder(e *kimedn.Encoder) WriterOption {
	return func(w *Writer) {
		w.enc = e
	}
}

// WithSeparator sets the text written after each document (default: "\n").
func WithSeparator(sep string) WriterOption {
	return func(w *Writer) {
		w.sep = sep
	}
}

// NewWriter creates a new edn-lines writer.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	writer := &Writer{w: w, sep: "\n"}
	for _, opt := range opts {
		opt(writer)
	}
	if writer.enc == nil {
		writer.enc = kimedn.NewEncoder()
	}
	return writer
}

// WriteDoc encodes v and writes it followed by the separator. Nothing is
// written if encoding fails.
func (w *Writer) WriteDoc(v any) error {
	s, err := w.enc.Encode(v)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w.w, s+w.sep); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of documents written.
func (w *Writer) Count() int {
	return w.count
}
