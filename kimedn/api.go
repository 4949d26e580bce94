package kimedn

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/renameio/v2"
)

var (
	defaultDecoder = sync.OnceValue(func() *Decoder { return NewDecoder() })
	defaultEncoder = sync.OnceValue(func() *Encoder { return NewEncoder() })
)

func decoderFor(opts []DecoderOption) *Decoder {
	if len(opts) == 0 {
		return defaultDecoder()
	}
	return NewDecoder(opts...)
}

func encoderFor(opts []EncoderOption) *Encoder {
	if len(opts) == 0 {
		return defaultEncoder()
	}
	return NewEncoder(opts...)
}

// ============================================================
// Decoding
// ============================================================

// Decode decodes a KIM-EDN document.
//
//	v, err := kimedn.Decode(`{"species" ["Al" "Cu"]}`)
func Decode(s string, opts ...DecoderOption) (any, error) {
	return decoderFor(opts).Decode(s)
}

// DecodeBytes decodes a KIM-EDN document given as raw bytes. The encoding is
// detected with DetectEncoding; a UTF-8 byte order mark is skipped.
func DecodeBytes(data []byte, opts ...DecoderOption) (any, error) {
	s, err := decodeInput(data)
	if err != nil {
		return nil, err
	}
	return decoderFor(opts).Decode(s)
}

// Load reads r to the end and decodes it as a single document.
func Load(r io.Reader, opts ...DecoderOption) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return DecodeBytes(data, opts...)
}

// LoadFile decodes the document stored in the named file.
func LoadFile(path string, opts ...DecoderOption) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data, opts...)
}

// ============================================================
// Encoding
// ============================================================

// Encode returns the KIM-EDN text of v.
//
//	s, err := kimedn.Encode(m, kimedn.WithIndent(4), kimedn.WithSortKeys(true))
func Encode(v any, opts ...EncoderOption) (string, error) {
	return encoderFor(opts).Encode(v)
}

// Dump writes the KIM-EDN text of v followed by a newline to w.
func Dump(w io.Writer, v any, opts ...EncoderOption) error {
	return encoderFor(opts).Write(w, v)
}

// DumpFile writes the KIM-EDN text of v followed by a newline to the named
// file. The file is replaced atomically, so readers never see a partial
// document.
func DumpFile(path string, v any, opts ...EncoderOption) error {
	s, err := encoderFor(opts).Encode(v)
	if err != nil {
		return err
	}
	return renameio.WriteFile(path, []byte(s+"\n"), 0o644)
}
