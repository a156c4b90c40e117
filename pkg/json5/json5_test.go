package json5

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToStrictJSONUnquotedKeysAndTrailingCommas(t *testing.T) {
	in := `{ name: 'Oslo', tags: ['a', 'b',], }`
	out := ToStrictJSON(in)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "Oslo", decoded["name"])
	assert.Equal(t, []any{"a", "b"}, decoded["tags"])
}

func TestToStrictJSONStripsComments(t *testing.T) {
	in := "{\n  // a line comment\n  a: 1, /* block */ b: 2\n}"
	out := ToStrictJSON(in)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, float64(1), decoded["a"])
	assert.Equal(t, float64(2), decoded["b"])
}

func TestToStrictJSONLeavesStringContentsAlone(t *testing.T) {
	in := `{"url": "http://example.com/a,b,"}`
	out := ToStrictJSON(in)
	assert.Equal(t, in, out)
}

func TestToStrictJSONAlreadyStrictPassesThrough(t *testing.T) {
	in := `{"a": 1, "b": [1, 2, 3]}`
	out := ToStrictJSON(in)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, float64(1), decoded["a"])
}
