package kimedn

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Encoder serializes Go values as KIM-EDN text. An Encoder is immutable once
// built and may be shared between goroutines.
type Encoder struct {
	pretty   bool
	indent   string
	sortKeys bool
	def      func(any) (any, error)
	maxDepth int
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithIndent enables pretty printing with n spaces per level. Zero inserts
// line breaks without indentation.
func WithIndent(n int) EncoderOption {
	return func(e *Encoder) {
		e.pretty = true
		e.indent = strings.Repeat(" ", max(n, 0))
	}
}

// WithIndentString enables pretty printing with unit repeated once per level,
// e.g. "\t".
func WithIndentString(unit string) EncoderOption {
	return func(e *Encoder) {
		e.pretty = true
		e.indent = unit
	}
}

// WithSortKeys emits map members in key order. Go maps are always sorted.
func WithSortKeys(sort bool) EncoderOption {
	return func(e *Encoder) {
		e.sortKeys = sort
	}
}

// WithDefault sets the conversion hook for values that have no KIM-EDN form.
// Its result is encoded in place of the value. The hook declines a value by
// returning an error wrapping ErrNotSerializable.
func WithDefault(fn func(any) (any, error)) EncoderOption {
	return func(e *Encoder) {
		e.def = fn
	}
}

// WithEncodeMaxDepth sets the container nesting limit (default: DefaultMaxDepth).
func WithEncodeMaxDepth(n int) EncoderOption {
	return func(e *Encoder) {
		e.maxDepth = n
	}
}

// NewEncoder creates an encoder. Without options it produces the compact form.
func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(e)
	}
	if e.maxDepth <= 0 {
		e.maxDepth = DefaultMaxDepth
	}
	return e
}

// Encode returns the KIM-EDN text of v.
func (e *Encoder) Encode(v any) (string, error) {
	st := &encodeState{e: e, markerSet: markerSet{}}
	if err := st.encode(v, 0); err != nil {
		return "", err
	}
	return st.buf.String(), nil
}

// Write encodes v to w followed by a newline.
func (e *Encoder) Write(w io.Writer, v any) error {
	s, err := e.Encode(v)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s+"\n")
	return err
}

// ============================================================
// Encode state
// ============================================================

type encodeState struct {
	markerSet
	e     *Encoder
	buf   strings.Builder
	depth int
}

// containerID identifies a reference value by type, address and length, so
// content-equal containers never collide.
type containerID struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// hookKey identifies a comparable value handed to the default hook.
type hookKey struct {
	v any
}

// markerSet holds the identities of the containers being written, from the
// root down to the current value.
type markerSet map[any]struct{}

func (ms markerSet) mark(id any) error {
	if _, ok := ms[id]; ok {
		return ErrCircularReference
	}
	ms[id] = struct{}{}
	return nil
}

func (ms markerSet) unmark(id any) {
	delete(ms, id)
}

func (st *encodeState) push() error {
	st.depth++
	if st.depth > st.e.maxDepth {
		return fmt.Errorf("%w: limit is %d", ErrNestingTooDeep, st.e.maxDepth)
	}
	return nil
}

func (st *encodeState) pop() {
	st.depth--
}

// newline starts a new line indented to level. Compact output is unaffected.
func (st *encodeState) newline(level int) {
	if !st.e.pretty {
		return
	}
	st.buf.WriteByte('\n')
	for j := 0; j < level; j++ {
		st.buf.WriteString(st.e.indent)
	}
}

// separator is written between members: a space, then a new line when
// pretty printing.
func (st *encodeState) separator(level int) {
	st.buf.WriteByte(' ')
	st.newline(level)
}

// ============================================================
// Values
// ============================================================

func (st *encodeState) encode(v any, level int) error {
	switch x := normalize(v).(type) {
	case string:
		writeQuoted(&st.buf, x)
		return nil
	case bool:
		st.buf.WriteString(strconv.FormatBool(x))
		return nil
	case int64:
		st.buf.WriteString(strconv.FormatInt(x, 10))
		return nil
	case uint64:
		st.buf.WriteString(strconv.FormatUint(x, 10))
		return nil
	case float64:
		return st.writeFloat(x, 64)
	case float32:
		return st.writeFloat(float64(x), 32)
	case *big.Int:
		if x != nil {
			st.buf.WriteString(x.String())
			return nil
		}
	case *Map:
		if x != nil {
			return st.encodeMap(x, level)
		}
	case []any:
		return st.encodeVector(reflect.ValueOf(x), level)
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Map:
			return st.encodeGoMap(rv, level)
		case reflect.Slice, reflect.Array:
			if rv.Type().Elem().Kind() != reflect.Uint8 {
				return st.encodeVector(rv, level)
			}
		}
	}
	return st.encodeDefault(v, level)
}

// normalize reduces named scalar types to string, bool, int64, uint64,
// float32 or float64. Other values are returned unchanged.
func normalize(v any) any {
	switch x := v.(type) {
	case nil, string, bool, int64, uint64, float64, float32, *big.Int, *Map, []any:
		return v
	case int:
		return int64(x)
	case int32:
		return int64(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()
	case reflect.Float32:
		return float32(rv.Float())
	case reflect.Float64:
		return rv.Float()
	}
	return v
}

func (st *encodeState) writeFloat(f float64, bitSize int) error {
	s, err := floatText(f, bitSize)
	if err != nil {
		return err
	}
	st.buf.WriteString(s)
	return nil
}

func (st *encodeState) encodeVector(rv reflect.Value, level int) error {
	n := rv.Len()
	if n == 0 {
		st.buf.WriteString("[]")
		return nil
	}
	if rv.Kind() == reflect.Slice {
		id := containerID{typ: rv.Type(), ptr: rv.Pointer(), len: n}
		if err := st.mark(id); err != nil {
			return err
		}
		defer st.unmark(id)
	}
	if err := st.push(); err != nil {
		return err
	}
	defer st.pop()

	st.buf.WriteByte('[')
	st.newline(level + 1)
	for i := 0; i < n; i++ {
		if i > 0 {
			st.separator(level + 1)
		}
		if err := st.encode(rv.Index(i).Interface(), level+1); err != nil {
			return err
		}
	}
	st.newline(level)
	st.buf.WriteByte(']')
	return nil
}

// ============================================================
// Maps
// ============================================================

// member is a map member with its key already coerced to text.
type member struct {
	key   any
	text  string
	value any
}

func (st *encodeState) encodeMap(m *Map, level int) error {
	if m.Len() == 0 {
		st.buf.WriteString("{}")
		return nil
	}
	if err := st.mark(m); err != nil {
		return err
	}
	defer st.unmark(m)

	members := make([]member, 0, m.Len())
	for _, p := range m.pairs {
		text, err := coerceKey(p.Key)
		if err != nil {
			return err
		}
		members = append(members, member{key: p.Key, text: text, value: p.Value})
	}
	if st.e.sortKeys {
		sortMembers(members)
	}
	return st.writeMembers(members, level)
}

func (st *encodeState) encodeGoMap(rv reflect.Value, level int) error {
	if rv.Len() == 0 {
		st.buf.WriteString("{}")
		return nil
	}
	id := containerID{typ: rv.Type(), ptr: rv.Pointer()}
	if err := st.mark(id); err != nil {
		return err
	}
	defer st.unmark(id)

	members := make([]member, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := iter.Key().Interface()
		text, err := coerceKey(key)
		if err != nil {
			return err
		}
		members = append(members, member{key: key, text: text, value: iter.Value().Interface()})
	}
	sortMembers(members)
	return st.writeMembers(members, level)
}

func (st *encodeState) writeMembers(members []member, level int) error {
	if err := st.push(); err != nil {
		return err
	}
	defer st.pop()

	st.buf.WriteByte('{')
	st.newline(level + 1)
	for i, mb := range members {
		if i > 0 {
			st.separator(level + 1)
		}
		writeQuoted(&st.buf, mb.text)
		st.buf.WriteByte(' ')
		if err := st.encode(mb.value, level+1); err != nil {
			return err
		}
	}
	st.newline(level)
	st.buf.WriteByte('}')
	return nil
}

// coerceKey returns the text a map key is written as. Non-string keys are
// converted one way: they decode back as strings.
func coerceKey(key any) (string, error) {
	switch x := normalize(key).(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float64:
		return floatText(x, 64)
	case float32:
		return floatText(float64(x), 32)
	case *big.Int:
		if x != nil {
			return x.String(), nil
		}
	}
	return "", fmt.Errorf("%w: keys must be str, int, float, or bool, not %T", ErrUnsupportedKey, key)
}

// sortMembers orders members by their original keys. Numbers and booleans
// compare by numeric value and sort before strings; strings compare by code
// point. Equal keys keep their relative order.
func sortMembers(members []member) {
	type keyed struct {
		member
		num *big.Rat // nil for string keys
	}
	ks := make([]keyed, len(members))
	for i, mb := range members {
		ks[i].member = mb
		switch x := normalize(mb.key).(type) {
		case bool:
			ks[i].num = new(big.Rat)
			if x {
				ks[i].num.SetInt64(1)
			}
		case int64:
			ks[i].num = new(big.Rat).SetInt64(x)
		case uint64:
			ks[i].num = new(big.Rat).SetUint64(x)
		case float64:
			ks[i].num = new(big.Rat).SetFloat64(x)
		case float32:
			ks[i].num = new(big.Rat).SetFloat64(float64(x))
		case *big.Int:
			ks[i].num = new(big.Rat).SetInt(x)
		}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		switch {
		case a.num != nil && b.num != nil:
			return a.num.Cmp(b.num)
		case a.num != nil:
			return -1
		case b.num != nil:
			return 1
		default:
			return strings.Compare(a.text, b.text)
		}
	})
	for i := range ks {
		members[i] = ks[i].member
	}
}

// ============================================================
// Default hook
// ============================================================

func (st *encodeState) encodeDefault(v any, level int) error {
	if st.e.def == nil {
		return notSerializable(v)
	}
	if id, ok := identity(v); ok {
		if err := st.mark(id); err != nil {
			return err
		}
		defer st.unmark(id)
	}
	if err := st.push(); err != nil {
		return err
	}
	defer st.pop()

	out, err := st.e.def(v)
	if err != nil {
		if errors.Is(err, ErrNotSerializable) {
			return notSerializable(v)
		}
		return err
	}
	return st.encode(out, level)
}

func notSerializable(v any) error {
	return fmt.Errorf("object of type %T is %w", v, ErrNotSerializable)
}

// identity returns the marker for a value handed to the default hook.
// Reference kinds are identified by address, other comparable values by
// value. Incomparable values get no marker and are bounded by the depth
// limit instead.
func identity(v any) (any, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Invalid:
		return nil, false
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return containerID{typ: rv.Type(), ptr: rv.Pointer()}, true
	case reflect.Slice:
		return containerID{typ: rv.Type(), ptr: rv.Pointer(), len: rv.Len()}, true
	}
	if rv.Comparable() {
		return hookKey{v: v}, true
	}
	return nil, false
}

// ============================================================
// Scalars
// ============================================================

// floatText formats f as the shortest text that reads back to the same
// value: fixed notation with at least one fractional digit for decimal
// exponents in [-4, 16), exponent notation otherwise.
func floatText(f float64, bitSize int) (string, error) {
	switch {
	case math.IsNaN(f):
		return "", fmt.Errorf("%w: nan", ErrOutOfRangeFloat)
	case math.IsInf(f, 1):
		return "", fmt.Errorf("%w: inf", ErrOutOfRangeFloat)
	case math.IsInf(f, -1):
		return "", fmt.Errorf("%w: -inf", ErrOutOfRangeFloat)
	}

	e := strconv.FormatFloat(f, 'e', -1, bitSize)
	exp, err := strconv.Atoi(e[strings.LastIndexByte(e, 'e')+1:])
	if err != nil {
		return "", err
	}
	if exp < -4 || exp >= 16 {
		return e, nil
	}
	s := strconv.FormatFloat(f, 'f', -1, bitSize)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s, nil
}

// writeQuoted writes s as an ASCII-only quoted string.
func writeQuoted(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			switch {
			case r >= ' ' && r <= '~':
				sb.WriteByte(byte(r))
			case r < 0x10000:
				writeUXXXX(sb, r)
			default:
				hi, lo := utf16.EncodeRune(r)
				writeUXXXX(sb, hi)
				writeUXXXX(sb, lo)
			}
		}
	}
	sb.WriteByte('"')
}

func writeUXXXX(sb *strings.Builder, r rune) {
	sb.WriteString(`\u`)
	sb.WriteByte(hexDigits[r>>12&0xf])
	sb.WriteByte(hexDigits[r>>8&0xf])
	sb.WriteByte(hexDigits[r>>4&0xf])
	sb.WriteByte(hexDigits[r&0xf])
}
