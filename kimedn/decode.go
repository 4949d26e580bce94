package kimedn

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// DefaultMaxDepth is the default limit on container nesting for both the
// decoder and the encoder.
const DefaultMaxDepth = 1000

// Decoder decodes KIM-EDN text. A Decoder is immutable once built and may be
// shared between goroutines.
type Decoder struct {
	parseFloat      func(string) (any, error)
	parseInt        func(string) (any, error)
	parseConstant   func(string) (any, error)
	objectHook      func(*Map) (any, error)
	objectPairsHook func([]Pair) (any, error)
	strict          bool
	maxDepth        int
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithParseFloat sets the constructor called with the text of every number
// that has a fraction or exponent. The default yields float64.
func WithParseFloat(fn func(string) (any, error)) DecoderOption {
	return func(d *Decoder) {
		d.parseFloat = fn
	}
}

// WithParseInt sets the constructor called with the text of every integer.
// The default yields int64, or *big.Int when the value does not fit.
func WithParseInt(fn func(string) (any, error)) DecoderOption {
	return func(d *Decoder) {
		d.parseInt = fn
	}
}

// WithParseConstant sets the constructor for the non-finite constants
// Infinity, -Infinity and NaN. The grammar has no such constants, so the
// hook is never called; it is accepted for API compatibility.
func WithParseConstant(fn func(string) (any, error)) DecoderOption {
	return func(d *Decoder) {
		d.parseConstant = fn
	}
}

// WithObjectHook sets a function that replaces every decoded map.
func WithObjectHook(fn func(*Map) (any, error)) DecoderOption {
	return func(d *Decoder) {
		d.objectHook = fn
	}
}

// WithObjectPairsHook sets a function that receives the members of every
// decoded map in document order, duplicates included. It takes priority over
// WithObjectHook.
func WithObjectPairsHook(fn func([]Pair) (any, error)) DecoderOption {
	return func(d *Decoder) {
		d.objectPairsHook = fn
	}
}

// WithStrict controls raw control characters in strings. Strict mode (the
// default) accepts only tab, newline and carriage return.
func WithStrict(strict bool) DecoderOption {
	return func(d *Decoder) {
		d.strict = strict
	}
}

// WithMaxDepth sets the container nesting limit (default: DefaultMaxDepth).
func WithMaxDepth(n int) DecoderOption {
	return func(d *Decoder) {
		d.maxDepth = n
	}
}

// NewDecoder creates a decoder.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{
		parseFloat: defaultParseFloat,
		parseInt:   defaultParseInt,
		strict:     true,
		maxDepth:   DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.parseFloat == nil {
		d.parseFloat = defaultParseFloat
	}
	if d.parseInt == nil {
		d.parseInt = defaultParseInt
	}
	if d.maxDepth <= 0 {
		d.maxDepth = DefaultMaxDepth
	}
	return d
}

func defaultParseFloat(s string) (any, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, err
	}
	// Out of range magnitudes decode to ±Inf.
	return f, nil
}

func defaultParseInt(s string) (any, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, strconv.ErrRange) {
		return nil, err
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return b, nil
}

// ============================================================
// Top level
// ============================================================

// Decode decodes a single document. Whitespace and comments may surround
// the value; anything else after it is an error.
func (d *Decoder) Decode(s string) (any, error) {
	if strings.HasPrefix(s, "\ufeff") {
		e := newDecodeError("Unexpected UTF-8 BOM (decode using utf-8-sig)", s, 0)
		e.Err = ErrUnexpectedBOM
		return nil, e
	}

	st := d.newState(s)
	v, end, err := st.scanValue(skipSpaceAndComments(s, 0))
	if err != nil {
		return nil, err
	}
	end = skipSpaceAndComments(s, end)
	if end != len(s) {
		return nil, st.errorAt("Extra data", end)
	}
	return v, nil
}

// RawDecode decodes the value starting at byte offset start and returns the
// byte offset where it ended. Content after the value is not examined.
func (d *Decoder) RawDecode(s string, start int) (any, int, error) {
	if start < 0 || start > len(s) {
		return nil, 0, fmt.Errorf("%w: %d", ErrInvalidOffset, start)
	}
	st := d.newState(s)
	v, end, err := st.scanValue(start)
	if err != nil {
		return nil, 0, err
	}
	return v, end, nil
}

// ============================================================
// Decode state
// ============================================================

// decodeState holds what one top-level call needs. It is discarded when the
// call returns.
type decodeState struct {
	d     *Decoder
	s     string
	memo  map[string]string
	depth int
}

func (d *Decoder) newState(s string) *decodeState {
	return &decodeState{d: d, s: s, memo: make(map[string]string)}
}

func (st *decodeState) errorAt(msg string, off int) error {
	return newDecodeError(msg, st.s, off)
}

func (st *decodeState) push(off int) error {
	st.depth++
	if st.depth > st.d.maxDepth {
		e := newDecodeError("Nesting too deep", st.s, off)
		e.Err = ErrNestingTooDeep
		return e
	}
	return nil
}

func (st *decodeState) pop() {
	st.depth--
}

func (st *decodeState) intern(key string) string {
	if k, ok := st.memo[key]; ok {
		return k
	}
	st.memo[key] = key
	return key
}

// ============================================================
// Containers
// ============================================================

// parseObject decodes a map whose '{' is at open.
func (st *decodeState) parseObject(open int) (any, int, error) {
	if err := st.push(open); err != nil {
		return nil, open, err
	}
	defer st.pop()

	s := st.s
	i := skipSpaceAndComments(s, open+1)
	pairs := make([]Pair, 0)
	if i < len(s) && s[i] == '}' {
		v, err := st.finishObject(pairs)
		return v, i + 1, err
	}
	if i >= len(s) || s[i] != '"' {
		return nil, i, st.errorAt("Expecting property name enclosed in double quotes", i)
	}

	for {
		key, end, err := st.scanString(i + 1)
		if err != nil {
			return nil, end, err
		}
		key = st.intern(key)

		i = skipSpaceAndComments(s, end)
		if i < len(s) && s[i] == ':' {
			i = skipSpaceAndComments(s, i+1)
		}

		value, end, err := st.scanValue(i)
		if err != nil {
			return nil, end, err
		}
		pairs = append(pairs, Pair{Key: key, Value: value})

		i = skipSpaceAndComments(s, end)
		if i < len(s) && s[i] == '}' {
			i++
			break
		}
		if i >= len(s) || s[i] != '"' {
			return nil, i, st.errorAt("Expecting property name enclosed in double quotes", i)
		}
	}

	v, err := st.finishObject(pairs)
	return v, i, err
}

func (st *decodeState) finishObject(pairs []Pair) (any, error) {
	if st.d.objectPairsHook != nil {
		return st.d.objectPairsHook(pairs)
	}
	m := NewMap(pairs...)
	if st.d.objectHook != nil {
		return st.d.objectHook(m)
	}
	return m, nil
}

// parseArray decodes a vector whose '[' is at open.
func (st *decodeState) parseArray(open int) (any, int, error) {
	if err := st.push(open); err != nil {
		return nil, open, err
	}
	defer st.pop()

	s := st.s
	i := skipSpaceAndComments(s, open+1)
	values := make([]any, 0)
	if i < len(s) && s[i] == ']' {
		return values, i + 1, nil
	}

	for {
		value, end, err := st.scanValue(i)
		if err != nil {
			return nil, end, err
		}
		values = append(values, value)

		i = skipSpaceAndComments(s, end)
		if i < len(s) && s[i] == ']' {
			return values, i + 1, nil
		}
	}
}
