package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"int64", int64(-100), "-100"},
		{"json number", json.Number("3.5"), "3.5"},
		{"float", 0.5, "0.5"},
		{"bool true", true, "true"},
		{"null", nil, "null"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"simple object", map[string]any{"a": 1}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := map[string]any{
		"zebra": 1,
		"alpha": map[string]any{"b": 1, "a": 2},
		"beta":  3,
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":{"a":2,"b":1},"beta":3,"zebra":1}`, string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical("<b>&</b>")
	require.NoError(t, err)
	assert.Equal(t, `"<b>&</b>"`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" + combining acute accent normalizes to a single code point.
	decomposed := "e\u0301"
	composed := "\u00e9"

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(composed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	result, err := MarshalCanonical("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(result))

	literal, err := MarshalCanonical(`a\u2028b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(literal))
}

func TestMarshalCanonicalRawMessage(t *testing.T) {
	raw := json.RawMessage(`{"b": [1, 2.50], "a": "x"}`)
	result, err := MarshalCanonical(raw)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":[1,2.50]}`, string(result))
}

func TestMarshalCanonicalStruct(t *testing.T) {
	result, err := MarshalCanonical(PastePayload{Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, `{"content":"hi"}`, string(result))
}

func TestMarshalCanonicalRejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(math.Inf(1))
	assert.Error(t, err)
}

func TestCompareKeysUTF16(t *testing.T) {
	// U+FF61 sorts before U+1F600 in UTF-8 byte order but after it in UTF-16,
	// since the emoji encodes as a surrogate pair starting at 0xD83D.
	assert.Equal(t, 1, compareKeysUTF16("\uff61", "\U0001F600"))
	assert.Equal(t, -1, compareKeysUTF16("a", "ab"))
	assert.Equal(t, 0, compareKeysUTF16("same", "same"))
}
