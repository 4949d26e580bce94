package kimedn

import (
	"math"
	"math/big"
	"reflect"
	"strconv"
)

// Kind classifies a Go value by the KIM-EDN variant it encodes as.
type Kind uint8

const (
	KindInvalid Kind = iota // No KIM-EDN form
	KindString
	KindInteger
	KindFloat
	KindBool
	KindMap
	KindVector
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindMap:
		return "map"
	case KindVector:
		return "vector"
	default:
		return "invalid"
	}
}

// KindOf reports the variant v encodes as. Named types are classified by
// their underlying kind. Byte slices, nil and nil pointers are KindInvalid.
func KindOf(v any) Kind {
	switch x := v.(type) {
	case nil:
		return KindInvalid
	case string:
		return KindString
	case bool:
		return KindBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, uintptr:
		return KindInteger
	case float32, float64:
		return KindFloat
	case *big.Int:
		if x == nil {
			return KindInvalid
		}
		return KindInteger
	case *Map:
		if x == nil {
			return KindInvalid
		}
		return KindMap
	case []any:
		return KindVector
	case []byte:
		return KindInvalid
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return KindString
	case reflect.Bool:
		return KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return KindInteger
	case reflect.Float32, reflect.Float64:
		return KindFloat
	case reflect.Map:
		return KindMap
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return KindInvalid
		}
		return KindVector
	}
	return KindInvalid
}

// ============================================================
// Map
// ============================================================

// Pair is a single map member.
type Pair struct {
	Key   any
	Value any
}

// Map is an ordered map with unique keys. Decoded maps are *Map with
// string keys; the encoder also accepts integer, float and boolean keys.
// Numerically equal keys such as 1, 1.0 and true are the same key.
//
// The zero value is an empty map ready to use.
type Map struct {
	pairs []Pair
	index map[any]int
}

// NewMap builds a map from pairs. Later duplicates replace the value of the
// first occurrence.
func NewMap(pairs ...Pair) *Map {
	m := &Map{pairs: make([]Pair, 0, len(pairs))}
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return m
}

// bigKey is the index form of an integer outside the int64 range.
type bigKey string

// indexKey returns the form key is indexed under, and false when the key
// cannot be looked up. Keys that compare equal as numbers share one form:
// true and false equal 1 and 0, and an integral float equals the integer.
// Named types index as their underlying scalar.
func indexKey(key any) (any, bool) {
	switch x := normalize(key).(type) {
	case nil, string, int64:
		return x, true
	case bool:
		if x {
			return int64(1), true
		}
		return int64(0), true
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x), true
		}
		return bigKey(strconv.FormatUint(x, 10)), true
	case float32:
		return floatKey(float64(x))
	case float64:
		return floatKey(x)
	case *big.Int:
		if x == nil {
			return x, true
		}
		if x.IsInt64() {
			return x.Int64(), true
		}
		return bigKey(x.String()), true
	default:
		if !reflect.ValueOf(x).Comparable() {
			return nil, false
		}
		return x, true
	}
}

func floatKey(f float64) (any, bool) {
	switch {
	case math.IsNaN(f):
		return nil, false // never equal to itself
	case math.IsInf(f, 0) || f != math.Trunc(f):
		return f, true
	case f >= math.MinInt64 && f < math.MaxInt64:
		return int64(f), true
	}
	n, _ := new(big.Float).SetFloat64(f).Int(nil)
	return bigKey(n.String()), true
}

func (m *Map) lookup(key any) (int, bool) {
	if m.index == nil {
		return 0, false
	}
	k, ok := indexKey(key)
	if !ok {
		return 0, false
	}
	i, ok := m.index[k]
	return i, ok
}

// Set stores value under key. An existing key keeps its position, and
// its original key value.
func (m *Map) Set(key, value any) {
	if i, ok := m.lookup(key); ok {
		m.pairs[i].Value = value
		return
	}
	if k, ok := indexKey(key); ok {
		if m.index == nil {
			m.index = make(map[any]int)
		}
		m.index[k] = len(m.pairs)
	}
	m.pairs = append(m.pairs, Pair{Key: key, Value: value})
}

// Get returns the value stored under key.
func (m *Map) Get(key any) (any, bool) {
	if m == nil {
		return nil, false
	}
	if i, ok := m.lookup(key); ok {
		return m.pairs[i].Value, true
	}
	return nil, false
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key any) bool {
	i, ok := m.lookup(key)
	if !ok {
		return false
	}
	k, _ := indexKey(key)
	delete(m.index, k)
	m.pairs = append(m.pairs[:i], m.pairs[i+1:]...)
	for j := i; j < len(m.pairs); j++ {
		if k, ok := indexKey(m.pairs[j].Key); ok {
			m.index[k] = j
		}
	}
	return true
}

// Len returns the number of members.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.pairs)
}

// Keys returns the keys in order.
func (m *Map) Keys() []any {
	keys := make([]any, 0, m.Len())
	for _, p := range m.Pairs() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Pairs returns a copy of the members in order.
func (m *Map) Pairs() []Pair {
	if m == nil {
		return nil
	}
	out := make([]Pair, len(m.pairs))
	copy(out, m.pairs)
	return out
}

// Range calls fn for each member in order until fn returns false.
func (m *Map) Range(fn func(key, value any) bool) {
	if m == nil {
		return
	}
	for _, p := range m.pairs {
		if !fn(p.Key, p.Value) {
			return
		}
	}
}
