package kimedn

import (
	"math"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// FromJSON
// ============================================================

func TestFromJSON(t *testing.T) {
	v, err := FromJSON([]byte(`{"b": 1, "a": [1.5, true, "x", -2e3], "n": {"big": 123456789012345678901}, "e": {}}`))
	require.NoError(t, err)

	n, _ := new(big.Int).SetString("123456789012345678901", 10)
	want := NewMap(
		kv("b", int64(1)),
		kv("a", vec(1.5, true, "x", -2000.0)),
		kv("n", NewMap(kv("big", n))),
		kv("e", NewMap()),
	)
	assertTree(t, want, v)
}

func TestFromJSON_Scalars(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{`"spam"`, "spam"},
		{`42`, int64(42)},
		{` -0.5 `, -0.5},
		{`false`, false},
		{`[]`, vec()},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := FromJSON([]byte(tt.in))
			require.NoError(t, err)
			assertTree(t, tt.want, v)
		})
	}
}

func TestFromJSON_Null(t *testing.T) {
	for _, in := range []string{`null`, `[1, null]`, `{"a": {"b": null}}`} {
		_, err := FromJSON([]byte(in))
		assert.ErrorIs(t, err, ErrNull, in)
	}
}

func TestFromJSON_Invalid(t *testing.T) {
	for _, in := range []string{``, `[1,]`, `{"a" 1}`, `[1] 2`, `{"a": }`, `nope`} {
		_, err := FromJSON([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestFromJSON_InvalidNumbers(t *testing.T) {
	for _, in := range []string{`01`, `1.`, `-`, `.5`, `1e`, `[1, 1.e3]`, `{"a": -01}`} {
		_, err := FromJSON([]byte(in))
		assert.Error(t, err, in)
	}

	v, err := FromJSON([]byte(`[0, -0, 0.5, 1E+2, -3e-1]`))
	require.NoError(t, err)
	assertTree(t, vec(int64(0), int64(0), 0.5, 100.0, -0.3), v)
}

func TestFromJSON_Depth(t *testing.T) {
	doc := strings.Repeat("[", 2000) + strings.Repeat("]", 2000)
	_, err := FromJSON([]byte(doc))
	assert.ErrorIs(t, err, ErrNestingTooDeep)
}

// ============================================================
// ToJSON
// ============================================================

func TestToJSON(t *testing.T) {
	v, err := Decode(`{"b" 1 "a" [1.5 true "x" 2.0] "e" {} "v" []}`)
	require.NoError(t, err)

	out, err := ToJSON(v, 0)
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":[1.5,true,"x",2.0],"e":{},"v":[]}`, string(out))
}

func TestToJSON_Indent(t *testing.T) {
	out, err := ToJSON(NewMap(kv("a", []any{1, 2})), 2)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": [\n    1,\n    2\n  ]\n}", string(out))
}

func TestToJSON_Keys(t *testing.T) {
	out, err := ToJSON(NewMap(kv(1, "x"), kv(false, "y"), kv(0.5, "z")), 0)
	require.NoError(t, err)
	assert.Equal(t, `{"1":"x","false":"y","0.5":"z"}`, string(out))

	out, err = ToJSON(map[int]string{2: "b", 1: "a"}, 0)
	require.NoError(t, err)
	assert.Equal(t, `{"1":"a","2":"b"}`, string(out))
}

func TestToJSON_Errors(t *testing.T) {
	_, err := ToJSON([]any{math.NaN()}, 0)
	assert.ErrorIs(t, err, ErrOutOfRangeFloat)

	_, err = ToJSON(opaque{}, 0)
	assert.ErrorIs(t, err, ErrNotSerializable)

	_, err = ToJSON(NewMap(kv([2]int{}, 1)), 0)
	assert.ErrorIs(t, err, ErrUnsupportedKey)
}

func TestToJSON_CircularReference(t *testing.T) {
	a := []any{1, nil}
	a[1] = a
	_, err := ToJSON(a, 0)
	assert.ErrorIs(t, err, ErrCircularReference)

	m := NewMap()
	m.Set("self", []any{m})
	_, err = ToJSON(m, 2)
	assert.ErrorIs(t, err, ErrCircularReference)

	gm := map[string]any{}
	gm["self"] = gm
	_, err = ToJSON(gm, 0)
	assert.ErrorIs(t, err, ErrCircularReference)

	shared := NewMap(kv("k", "v"))
	out, err := ToJSON([]any{shared, []any{shared}}, 0)
	require.NoError(t, err)
	assert.Equal(t, `[{"k":"v"},[{"k":"v"}]]`, string(out))
}

func TestJSONRoundTrip(t *testing.T) {
	const doc = `{"ingredients" ["frog" "water" "chocolate" "glucose"] "n" 3 "ratio" 0.25}`
	v, err := Decode(doc)
	require.NoError(t, err)

	js, err := ToJSON(v, 0)
	require.NoError(t, err)
	back, err := FromJSON(js)
	require.NoError(t, err)

	s, err := Encode(back)
	require.NoError(t, err)
	assert.Equal(t, doc, s)
}
