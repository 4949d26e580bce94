package kimedn

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"reflect"

	jsoniter "github.com/json-iterator/go"
)

// ============================================================
// JSON Bridge
// ============================================================
//
// Converts between JSON and KIM-EDN values. Object member order is kept in
// both directions. JSON null has no KIM-EDN counterpart and is rejected.

// ErrNull is returned by FromJSON for a JSON null.
var ErrNull = errors.New("null has no KIM-EDN form")

// FromJSON converts a JSON document to a KIM-EDN value: objects become *Map,
// arrays []any, numbers int64, *big.Int or float64.
func FromJSON(data []byte) (any, error) {
	iter := jsoniter.ParseBytes(jsoniter.ConfigFastest, data)
	b := &jsonReader{iter: iter}
	v := b.read()
	if b.err != nil {
		return nil, b.err
	}
	if iter.Error != nil && iter.Error != io.EOF {
		return nil, fmt.Errorf("JSON parse error: %w", iter.Error)
	}
	iter.WhatIsNext()
	if iter.Error == nil {
		return nil, errors.New("JSON parse error: data after top-level value")
	}
	return v, nil
}

type jsonReader struct {
	iter  *jsoniter.Iterator
	depth int
	err   error
}

func (b *jsonReader) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *jsonReader) read() any {
	iter := b.iter
	switch iter.WhatIsNext() {
	case jsoniter.StringValue:
		return iter.ReadString()
	case jsoniter.NumberValue:
		text := iter.ReadNumber().String()
		end, isFloat, ok := matchNumber(text, 0)
		if !ok || end != len(text) {
			b.fail(fmt.Errorf("JSON parse error: invalid number %q", text))
			return nil
		}
		var (
			v   any
			err error
		)
		if isFloat {
			v, err = defaultParseFloat(text)
		} else {
			v, err = defaultParseInt(text)
		}
		if err != nil {
			b.fail(fmt.Errorf("JSON number %q: %w", text, err))
		}
		return v
	case jsoniter.BoolValue:
		return iter.ReadBool()
	case jsoniter.NilValue:
		iter.ReadNil()
		b.fail(ErrNull)
		return nil
	case jsoniter.ArrayValue:
		if !b.push() {
			return nil
		}
		defer b.pop()
		values := make([]any, 0)
		iter.ReadArrayCB(func(*jsoniter.Iterator) bool {
			v := b.read()
			values = append(values, v)
			return b.err == nil
		})
		return values
	case jsoniter.ObjectValue:
		if !b.push() {
			return nil
		}
		defer b.pop()
		m := NewMap()
		iter.ReadObjectCB(func(_ *jsoniter.Iterator, key string) bool {
			v := b.read()
			m.Set(key, v)
			return b.err == nil
		})
		return m
	default:
		iter.Skip()
		if iter.Error != nil && iter.Error != io.EOF {
			b.fail(fmt.Errorf("JSON parse error: %w", iter.Error))
		} else {
			b.fail(errors.New("JSON parse error: expecting value"))
		}
		return nil
	}
}

func (b *jsonReader) push() bool {
	b.depth++
	if b.depth > DefaultMaxDepth {
		b.fail(ErrNestingTooDeep)
		return false
	}
	return true
}

func (b *jsonReader) pop() {
	b.depth--
}

// ============================================================
// ToJSON
// ============================================================

// ToJSON renders a KIM-EDN value as JSON. Non-string map keys are coerced the
// same way the encoder coerces them. indent > 0 pretty prints with that many
// spaces per level.
func ToJSON(v any, indent int) ([]byte, error) {
	cfg := jsoniter.ConfigFastest
	if indent > 0 {
		cfg = jsoniter.Config{IndentionStep: indent}.Froze()
	}
	stream := cfg.BorrowStream(nil)
	defer cfg.ReturnStream(stream)

	w := &jsonWriter{stream: stream, markers: markerSet{}}
	if err := w.write(v); err != nil {
		return nil, err
	}
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

type jsonWriter struct {
	stream  *jsoniter.Stream
	markers markerSet
	depth   int
}

func (w *jsonWriter) write(v any) error {
	s := w.stream
	switch x := normalize(v).(type) {
	case string:
		s.WriteString(x)
		return nil
	case bool:
		s.WriteBool(x)
		return nil
	case int64:
		s.WriteInt64(x)
		return nil
	case uint64:
		s.WriteUint64(x)
		return nil
	case float64:
		return w.writeFloat(x, 64)
	case float32:
		return w.writeFloat(float64(x), 32)
	case *big.Int:
		if x != nil {
			s.WriteRaw(x.String())
			return nil
		}
	case *Map:
		if x != nil {
			return w.writeMembers(x, x.Len(), func(yield func(key, value any) error) error {
				for _, p := range x.pairs {
					if err := yield(p.Key, p.Value); err != nil {
						return err
					}
				}
				return nil
			})
		}
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Map:
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
			id := containerID{typ: rv.Type(), ptr: rv.Pointer()}
			return w.writeMembers(id, len(members), func(yield func(key, value any) error) error {
				for _, mb := range members {
					if err := yield(mb.text, mb.value); err != nil {
						return err
					}
				}
				return nil
			})
		case reflect.Slice, reflect.Array:
			if rv.Type().Elem().Kind() != reflect.Uint8 {
				return w.writeArray(rv)
			}
		}
	}
	return notSerializable(v)
}

func (w *jsonWriter) writeFloat(f float64, bitSize int) error {
	text, err := floatText(f, bitSize)
	if err != nil {
		return err
	}
	w.stream.WriteRaw(text)
	return nil
}

func (w *jsonWriter) push() error {
	w.depth++
	if w.depth > DefaultMaxDepth {
		return ErrNestingTooDeep
	}
	return nil
}

func (w *jsonWriter) writeArray(rv reflect.Value) error {
	s := w.stream
	if rv.Len() == 0 {
		s.WriteEmptyArray()
		return nil
	}
	if rv.Kind() == reflect.Slice {
		id := containerID{typ: rv.Type(), ptr: rv.Pointer(), len: rv.Len()}
		if err := w.markers.mark(id); err != nil {
			return err
		}
		defer w.markers.unmark(id)
	}
	if err := w.push(); err != nil {
		return err
	}
	defer func() { w.depth-- }()

	s.WriteArrayStart()
	for i, n := 0, rv.Len(); i < n; i++ {
		if i > 0 {
			s.WriteMore()
		}
		if err := w.write(rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	s.WriteArrayEnd()
	return nil
}

func (w *jsonWriter) writeMembers(id any, n int, each func(yield func(key, value any) error) error) error {
	s := w.stream
	if n == 0 {
		s.WriteEmptyObject()
		return nil
	}
	if err := w.markers.mark(id); err != nil {
		return err
	}
	defer w.markers.unmark(id)
	if err := w.push(); err != nil {
		return err
	}
	defer func() { w.depth-- }()

	s.WriteObjectStart()
	first := true
	err := each(func(key, value any) error {
		text, err := coerceKey(key)
		if err != nil {
			return err
		}
		if !first {
			s.WriteMore()
		}
		first = false
		s.WriteObjectField(text)
		return w.write(value)
	})
	if err != nil {
		return err
	}
	s.WriteObjectEnd()
	return nil
}
