package kimedn

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// Charset names a Unicode encoding of raw input.
type Charset string

const (
	UTF8    Charset = "utf-8"
	UTF8Sig Charset = "utf-8-sig" // UTF-8 with a leading byte order mark
	UTF16   Charset = "utf-16"    // byte order taken from the BOM
	UTF16BE Charset = "utf-16-be"
	UTF16LE Charset = "utf-16-le"
	UTF32   Charset = "utf-32" // byte order taken from the BOM
	UTF32BE Charset = "utf-32-be"
	UTF32LE Charset = "utf-32-le"
)

var (
	bomUTF8    = []byte{0xef, 0xbb, 0xbf}
	bomUTF16BE = []byte{0xfe, 0xff}
	bomUTF16LE = []byte{0xff, 0xfe}
	bomUTF32BE = []byte{0x00, 0x00, 0xfe, 0xff}
	bomUTF32LE = []byte{0xff, 0xfe, 0x00, 0x00}
)

// DetectEncoding guesses the encoding of b from a byte order mark or, when
// there is none, from the position of zero bytes at the start of the input.
// Documents start with an ASCII character, so a zero byte in the first code
// unit indicates a wide encoding.
func DetectEncoding(b []byte) Charset {
	switch {
	case bytes.HasPrefix(b, bomUTF32BE), bytes.HasPrefix(b, bomUTF32LE):
		return UTF32
	case bytes.HasPrefix(b, bomUTF16BE), bytes.HasPrefix(b, bomUTF16LE):
		return UTF16
	case bytes.HasPrefix(b, bomUTF8):
		return UTF8Sig
	}

	switch {
	case len(b) >= 4:
		if b[0] == 0 {
			// 00 00 -- -- utf-32-be
			// 00 XX -- -- utf-16-be
			if b[1] != 0 {
				return UTF16BE
			}
			return UTF32BE
		}
		if b[1] == 0 {
			// XX 00 00 00 utf-32-le
			// XX 00 00 XX utf-16-le
			// XX 00 XX -- utf-16-le
			if b[2] != 0 || b[3] != 0 {
				return UTF16LE
			}
			return UTF32LE
		}
	case len(b) == 2:
		if b[0] == 0 {
			return UTF16BE
		}
		if b[1] == 0 {
			return UTF16LE
		}
	}
	return UTF8
}

func (c Charset) encoding() encoding.Encoding {
	switch c {
	case UTF8Sig:
		return unicode.UTF8BOM
	case UTF16:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case UTF32:
		return utf32.UTF32(utf32.BigEndian, utf32.UseBOM)
	case UTF32BE:
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)
	case UTF32LE:
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)
	}
	return nil
}

// Decode converts b to text. A BOM selecting the byte order is consumed.
func (c Charset) Decode(b []byte) (string, error) {
	if c == UTF8 {
		return string(b), nil
	}
	enc := c.encoding()
	if enc == nil {
		return "", fmt.Errorf("unknown charset %q", string(c))
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), b)
	if err != nil {
		return "", fmt.Errorf("decode %s input: %w", c, err)
	}
	return string(out), nil
}

// decodeInput converts raw input to text using the detected charset.
func decodeInput(b []byte) (string, error) {
	return DetectEncoding(b).Decode(b)
}
