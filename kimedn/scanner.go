package kimedn

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// scanValue decodes the value starting at byte offset i and returns it with
// the offset just past it.
func (st *decodeState) scanValue(i int) (any, int, error) {
	s := st.s
	for {
		if i >= len(s) {
			return nil, i, st.errorAt("Expecting value", i)
		}
		switch s[i] {
		case '"':
			return st.scanString(i + 1)
		case '{':
			return st.parseObject(i)
		case '[':
			return st.parseArray(i)
		case 't':
			if strings.HasPrefix(s[i:], "true") {
				return true, i + 4, nil
			}
		case 'f':
			if strings.HasPrefix(s[i:], "false") {
				return false, i + 5, nil
			}
		case ';':
			i = skipSpaceAndComments(s, i)
			continue
		}
		return st.scanNumber(i)
	}
}

// scanNumber matches the number grammar at i and routes the text through
// the integer or float constructor.
func (st *decodeState) scanNumber(i int) (any, int, error) {
	end, isFloat, ok := matchNumber(st.s, i)
	if !ok {
		return nil, i, st.errorAt("Expecting value", i)
	}
	text := st.s[i:end]
	var (
		v   any
		err error
	)
	if isFloat {
		v, err = st.d.parseFloat(text)
	} else {
		v, err = st.d.parseInt(text)
	}
	if err != nil {
		return nil, i, err
	}
	return v, end, nil
}

// scanString decodes a string whose opening quote is at i-1.
func (st *decodeState) scanString(i int) (string, int, error) {
	s := st.s
	begin := i - 1
	start := i
	var sb strings.Builder
	for {
		j := i
		for j < len(s) && s[j] != '"' && s[j] != '\\' && s[j] >= 0x20 {
			j++
		}
		if j >= len(s) {
			return "", begin, st.errorAt("Unterminated string starting at", begin)
		}

		c := s[j]
		if c == '"' {
			if sb.Len() == 0 {
				return s[start:j], j + 1, nil
			}
			sb.WriteString(s[i:j])
			return sb.String(), j + 1, nil
		}
		sb.WriteString(s[i:j])

		if c != '\\' {
			// Raw control character.
			if st.d.strict && c != '\n' && c != '\r' && c != '\t' {
				msg := fmt.Sprintf("Invalid control character %s at", quoteRune(rune(c)))
				return "", j, st.errorAt(msg, j)
			}
			sb.WriteByte(c)
			i = j + 1
			continue
		}

		j++
		if j >= len(s) {
			return "", begin, st.errorAt("Unterminated string starting at", begin)
		}
		if esc := s[j]; esc != 'u' {
			ch, ok := backslashEscapes[esc]
			if !ok {
				r, _ := utf8.DecodeRuneInString(s[j:])
				msg := fmt.Sprintf("Invalid \\escape: %s", quoteRune(r))
				return "", j, st.errorAt(msg, j)
			}
			sb.WriteByte(ch)
			i = j + 1
			continue
		}

		r := decodeUXXXX(s, j)
		if r < 0 {
			return "", j, st.errorAt("Invalid \\uXXXX escape", j)
		}
		j += 5
		if r >= 0xd800 && r <= 0xdbff && strings.HasPrefix(s[j:], "\\u") {
			lo := decodeUXXXX(s, j+1)
			if lo < 0 {
				return "", j + 1, st.errorAt("Invalid \\uXXXX escape", j+1)
			}
			if lo >= 0xdc00 && lo <= 0xdfff {
				r = 0x10000 + ((r-0xd800)<<10 | (lo - 0xdc00))
				j += 6
			}
		}
		// A lone surrogate has no UTF-8 form; WriteRune emits U+FFFD.
		sb.WriteRune(r)
		i = j
	}
}

// quoteRune renders r between single quotes the way error messages show
// offending characters: printable characters as is, others escaped.
func quoteRune(r rune) string {
	switch {
	case r == '\'':
		return `"'"`
	case r == '\n':
		return `'\n'`
	case r == '\r':
		return `'\r'`
	case r == '\t':
		return `'\t'`
	case r < 0x20 || r == 0x7f:
		return fmt.Sprintf(`'\x%02x'`, r)
	case strconv.IsPrint(r):
		return "'" + string(r) + "'"
	case r <= 0xff:
		return fmt.Sprintf(`'\x%02x'`, r)
	case r <= 0xffff:
		return fmt.Sprintf(`'\u%04x'`, r)
	default:
		return fmt.Sprintf(`'\U%08x'`, r)
	}
}
