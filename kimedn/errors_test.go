package kimedn

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const propertyName = "Expecting property name enclosed in double quotes"

// ============================================================
// Rejected documents
// ============================================================

var failDocs = []struct {
	doc    string
	passes bool // valid KIM-EDN although invalid JSON
}{
	{`"A JSON payload should be an object or array, not a string."`, true},
	{`["Unclosed array"`, false},
	{`{unquoted_key: "keys must be quoted"}`, false},
	{`["extra comma",]`, true},
	{`["double extra comma",,]`, true},
	{`[   , "<-- missing value"]`, true},
	{`["Comma after the close"],`, true},
	{`["Extra close"]]`, false},
	{`{"Extra comma": true,}`, true},
	{`{"Extra value after close": true} "misplaced quoted value"`, false},
	{`{"Illegal expression": 1 + 2}`, false},
	{`{"Illegal invocation": alert()}`, false},
	{`{"Numbers cannot have leading zeroes": 013}`, false},
	{`{"Numbers cannot be hex": 0x14}`, false},
	{`["Illegal backslash escape: \x15"]`, false},
	{`[\naked]`, false},
	{`["Illegal backslash escape: \017"]`, false},
	{`[[[[[[[[[[[[[[[[[[[["Too deep"]]]]]]]]]]]]]]]]]]]]`, true},
	{`{"Missing colon" null}`, false},
	{`{"Double colon":: null}`, false},
	{`{"Comma instead of colon", null}`, false},
	{`["Colon instead of comma": false]`, false},
	{`["Bad value", truth]`, false},
	{`['single quote']`, false},
	{"[\"\ttab\tcharacter\tin\tstring\t\"]", true},
	{`["tab\   character\   in\  string\  "]`, false},
	{"[\"line\nbreak\"]", true},
	{"[\"line\\\nbreak\"]", false},
	{`[0e]`, false},
	{`[0e+]`, false},
	{`[0e+-1]`, false},
	{`{"Comma instead if closing brace": true,`, false},
	{`["mismatch"}`, false},
	{"[\"A\x1fZ control characters in string\"]", false},
	{"[\"line\rreturn\"]", true},
}

func TestDecode_FailDocs(t *testing.T) {
	for i, tt := range failDocs {
		t.Run(fmt.Sprintf("fail%d", i+1), func(t *testing.T) {
			_, err := Decode(tt.doc)
			if tt.passes {
				assert.NoError(t, err)
				return
			}
			var de *DecodeError
			assert.ErrorAs(t, err, &de, "expected failure for %q", tt.doc)
		})
	}
}

// ============================================================
// Error positions
// ============================================================

type errorCase struct {
	doc string
	msg string
	idx int
}

func checkErrors(t *testing.T, cases []errorCase) {
	t.Helper()
	for _, tt := range cases {
		t.Run(tt.doc, func(t *testing.T) {
			_, err := Decode(tt.doc)
			var de *DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.msg, de.Msg)
			assert.Equal(t, tt.idx, de.Pos.Offset)
			assert.Equal(t, 1, de.Pos.Line)
			assert.Equal(t, tt.idx+1, de.Pos.Column)
			assert.Equal(t, tt.doc, de.Doc)
			assert.Equal(t,
				fmt.Sprintf("%s: line 1 column %d (char %d)", tt.msg, tt.idx+1, tt.idx),
				err.Error())
		})
	}
}

func TestDecode_TruncatedInput(t *testing.T) {
	checkErrors(t, []errorCase{
		{``, "Expecting value", 0},
		{`[`, "Expecting value", 1},
		{`[42`, "Expecting value", 3},
		{`[42,`, "Expecting value", 4},
		{`["`, "Unterminated string starting at", 1},
		{`["spam`, "Unterminated string starting at", 1},
		{`["spam"`, "Expecting value", 7},
		{`["spam",`, "Expecting value", 8},
		{`{`, propertyName, 1},
		{`{"`, "Unterminated string starting at", 1},
		{`{"spam`, "Unterminated string starting at", 1},
		{`{"spam"`, "Expecting value", 7},
		{`{"spam":`, "Expecting value", 8},
		{`{"spam":42`, propertyName, 10},
		{`{"spam":42,`, propertyName, 11},
		{`"`, "Unterminated string starting at", 0},
		{`"spam`, "Unterminated string starting at", 0},
		{`"spam\`, "Unterminated string starting at", 0},
	})
}

func TestDecode_UnexpectedData(t *testing.T) {
	checkErrors(t, []errorCase{
		{`[,`, "Expecting value", 2},
		{`{"spam":[}`, "Expecting value", 9},
		{`[42:`, "Expecting value", 3},
		{`[42 "spam"`, "Expecting value", 10},
		{`{"spam":[42}`, "Expecting value", 11},
		{`["]`, "Unterminated string starting at", 1},
		{`["spam":`, "Expecting value", 7},
		{`{:`, propertyName, 1},
		{`{,`, propertyName, 2},
		{`{42`, propertyName, 1},
		{`[{]`, propertyName, 2},
		{`{"spam",`, "Expecting value", 8},
		{`{"spam"}`, "Expecting value", 7},
		{`[{"spam"]`, "Expecting value", 8},
		{`{"spam":}`, "Expecting value", 8},
		{`[{"spam":]`, "Expecting value", 9},
		{`{"spam":42 "ham"`, "Expecting value", 16},
		{`[{"spam":42]`, propertyName, 11},
		{`{1.2 3.4}`, propertyName, 1},
	})
}

func TestDecode_ExtraData(t *testing.T) {
	checkErrors(t, []errorCase{
		{`[]]`, "Extra data", 2},
		{`{}}`, "Extra data", 2},
		{`[],[]`, "Extra data", 3},
		{`{},{}`, "Extra data", 3},
		{`42,"spam"`, "Extra data", 3},
		{`"spam",42`, "Extra data", 7},
		{`[1,2,3]5`, "Extra data", 7},
	})
}

func TestDecode_StringErrors(t *testing.T) {
	checkErrors(t, []errorCase{
		{`["abc\y"]`, `Invalid \escape: 'y'`, 6},
		{`"\'"`, `Invalid \escape: "'"`, 2},
		{`"\x15"`, `Invalid \escape: 'x'`, 2},
		{`"\u12"`, `Invalid \uXXXX escape`, 2},
		{`"\u0x12"`, `Invalid \uXXXX escape`, 2},
		{`"\ud834\u12"`, `Invalid \uXXXX escape`, 8},
		{"\"a\x00\"", `Invalid control character '\x00' at`, 2},
		{"[\"A\x1fZ\"]", `Invalid control character '\x1f' at`, 3},
	})
}

// ============================================================
// Line and column
// ============================================================

func TestDecodeError_LineColumn(t *testing.T) {
	tests := []struct {
		doc          string
		line, column int
		idx          int
	}{
		{"!", 1, 1, 0},
		{" !", 1, 2, 1},
		{"\n!", 2, 1, 1},
		{"\n  \n\n     !", 4, 6, 10},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.doc), func(t *testing.T) {
			_, err := Decode(tt.doc)
			var de *DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "Expecting value", de.Msg)
			assert.Equal(t, tt.line, de.Lineno())
			assert.Equal(t, tt.column, de.Colno())
			assert.Equal(t, tt.idx, de.Pos.Offset)
			assert.Equal(t,
				fmt.Sprintf("Expecting value: line %d column %d (char %d)", tt.line, tt.column, tt.idx),
				err.Error())
		})
	}
}

func TestDecodeError_CharacterOffsets(t *testing.T) {
	// Offsets count code points, not bytes.
	doc := `["héllo" ]]`
	_, err := Decode(doc)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Extra data", de.Msg)
	assert.Equal(t, 10, de.Pos.Offset)
	assert.Equal(t, 11, de.ByteOffset)
	assert.Equal(t, "]", de.Doc[de.ByteOffset:])
}

func TestDecodeError_Unwrap(t *testing.T) {
	_, err := Decode("[")
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Nil(t, errors.Unwrap(err))

	_, err = Decode("[[1]]", WithMaxDepth(1))
	assert.ErrorIs(t, err, ErrNestingTooDeep)
}
