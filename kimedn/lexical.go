package kimedn

// ============================================================
// Whitespace and comments
// ============================================================

// isSpace reports whether c separates tokens. The comma is whitespace.
func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ','
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// skipSpace returns the offset of the first non-whitespace byte at or after i.
func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

// skipComment skips a ';' comment starting at i. The terminating newline,
// if any, is left in place.
func skipComment(s string, i int) int {
	for i < len(s) && s[i] != '\n' {
		i++
	}
	return i
}

// skipSpaceAndComments skips any mix of whitespace and line comments.
func skipSpaceAndComments(s string, i int) int {
	for {
		i = skipSpace(s, i)
		if i < len(s) && s[i] == ';' {
			i = skipComment(s, i)
			continue
		}
		return i
	}
}

// ============================================================
// Numbers
// ============================================================

// matchNumber matches -?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][-+]?[0-9]+)? at i.
// It returns the end offset and whether a fraction or exponent was present.
// A dangling '.' or exponent marker is not consumed.
func matchNumber(s string, i int) (end int, isFloat, ok bool) {
	j := i
	if j < len(s) && s[j] == '-' {
		j++
	}
	switch {
	case j < len(s) && s[j] == '0':
		j++
	case j < len(s) && s[j] >= '1' && s[j] <= '9':
		for j < len(s) && isDigit(s[j]) {
			j++
		}
	default:
		return i, false, false
	}

	if j+1 < len(s) && s[j] == '.' && isDigit(s[j+1]) {
		j += 2
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		isFloat = true
	}

	if j < len(s) && (s[j] == 'e' || s[j] == 'E') {
		k := j + 1
		if k < len(s) && (s[k] == '+' || s[k] == '-') {
			k++
		}
		if k < len(s) && isDigit(s[k]) {
			for k < len(s) && isDigit(s[k]) {
				k++
			}
			j = k
			isFloat = true
		}
	}
	return j, isFloat, true
}

// ============================================================
// Escapes
// ============================================================

// backslashEscapes maps the character after '\' to its decoded byte.
var backslashEscapes = map[byte]byte{
	'"':  '"',
	'\\': '\\',
	'/':  '/',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
}

// decodeUXXXX decodes the four hex digits following "\u" at i (i points at
// the 'u'). It returns -1 if they are missing or malformed.
func decodeUXXXX(s string, i int) rune {
	if i+5 > len(s) {
		return -1
	}
	var r rune
	for _, c := range []byte(s[i+1 : i+5]) {
		r <<= 4
		switch {
		case c >= '0' && c <= '9':
			r |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			r |= rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			r |= rune(c-'A') + 10
		default:
			return -1
		}
	}
	return r
}

const hexDigits = "0123456789abcdef"
