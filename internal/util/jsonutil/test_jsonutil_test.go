package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalNoEscape(t *testing.T) {
	b, err := MarshalNoEscape(map[string]any{"q": "a<b && c>d"})
	require.NoError(t, err)
	assert.Equal(t, `{"q":"a<b && c>d"}`, string(b))
}

func TestMarshalIndent_SortedAndStable(t *testing.T) {
	v := map[string]any{"b": 1, "a": []any{"x", map[string]any{"d": true, "c": nil}}}
	first, err := MarshalIndent(v)
	require.NoError(t, err)
	second, err := MarshalIndent(DeepCopy(v))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "{\n  \"a\": [\n    \"x\",\n    {\n      \"c\": null,\n      \"d\": true\n    }\n  ],\n  \"b\": 1\n}\n", string(first))
}

func TestDecode_KeepsNumbers(t *testing.T) {
	v, err := Decode([]byte(`{"big": 12345678901234567890, "f": 1.50}`))
	require.NoError(t, err)
	obj := v.(map[string]any)
	assert.Equal(t, json.Number("12345678901234567890"), obj["big"])

	out, err := MarshalNoEscape(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"big":12345678901234567890,"f":1.50}`, string(out))
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte("   "))
	assert.Error(t, err)
	_, err = Decode([]byte(`{"a":1} {"b":2}`))
	assert.Error(t, err)
	_, err = DecodeObject([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestDeepCopy_Independent(t *testing.T) {
	src := map[string]any{"location": []any{map[string]any{"id": "1"}}}
	cp := DeepCopyObject(src)
	cp["location"].([]any)[0].(map[string]any)["id"] = "2"
	cp["extra"] = true

	assert.Equal(t, "1", src["location"].([]any)[0].(map[string]any)["id"])
	assert.NotContains(t, src, "extra")
	assert.Equal(t, map[string]any{}, DeepCopyObject(nil))
}
