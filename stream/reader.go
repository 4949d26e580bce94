package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Neumenon/kimedn/kimedn"
)

// Reader reads edn-lines documents from an io.Reader.
type Reader struct {
	r       *bufio.Reader
	dec     *kimedn.Decoder
	maxLine int
	line    int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithDecoder sets the decoder used for each line (default: kimedn.NewDecoder()).
func WithDecoder(d *kimedn.Decoder) ReaderOption {
	return func(r *Reader) {
		r.dec = d
	}
}

// WithMaxLineSize sets the maximum line size in bytes (default: 64 MiB).
func WithMaxLineSize(n int) ReaderOption {
	return func(r *Reader) {
		r.maxLine = n
	}
}

// NewReader creates a new edn-lines reader.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	reader := &Reader{
		r:       bufio.NewReader(r),
		maxLine: MaxLineSize,
	}
	for _, opt := range opts {
		opt(reader)
	}
	if reader.dec == nil {
		reader.dec = kimedn.NewDecoder()
	}
	return reader
}

// Line returns the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

// Next reads and decodes the next document.
// Returns io.EOF when no more documents are available. Failures are
// reported as *LineError.
func (r *Reader) Next() (any, error) {
	for {
		text, err := r.readLine()
		if err != nil {
			return nil, err
		}
		if r.line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		if strings.Trim(text, " \t\r,") == "" {
			continue
		}

		v, err := r.dec.Decode(text)
		if err != nil {
			return nil, &LineError{Line: r.line, Err: err}
		}
		return v, nil
	}
}

// ReadAll decodes every remaining document.
func (r *Reader) ReadAll() ([]any, error) {
	var docs []any
	for {
		v, err := r.Next()
		if err == io.EOF {
			return docs, nil
		}
		if err != nil {
			return docs, err
		}
		docs = append(docs, v)
	}
}

// readLine returns the next line without its terminating newline.
func (r *Reader) readLine() (string, error) {
	var buf []byte
	for {
		chunk, err := r.r.ReadSlice('\n')
		buf = append(buf, chunk...)
		n := len(buf)
		if err == nil {
			n-- // newline
		}
		if n > r.maxLine {
			r.line++
			lerr := &LineError{Line: r.line, Err: fmt.Errorf("%w: %d > %d", ErrLineTooLong, n, r.maxLine)}
			if err != nil {
				if serr := r.skipLine(); serr != nil {
					lerr.Err = fmt.Errorf("%w; skip line: %w", lerr.Err, serr)
				}
			}
			return "", lerr
		}

		switch {
		case err == nil:
			r.line++
			return string(buf[:len(buf)-1]), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == io.EOF:
			if len(buf) == 0 {
				return "", io.EOF
			}
			r.line++
			return string(buf), nil
		default:
			return "", &LineError{Line: r.line + 1, Err: fmt.Errorf("read line: %w", err)}
		}
	}
}

// skipLine discards the rest of the current line, newline included.
func (r *Reader) skipLine() error {
	for {
		_, err := r.r.ReadSlice('\n')
		switch {
		case err == nil, err == io.EOF:
			return nil
		case !errors.Is(err, bufio.ErrBufferFull):
			return err
		}
	}
}
