package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = &Schema{
	Name: "validate-test",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"title"},
		"properties": map[string]any{
			"title": map[string]any{"type": "string", "maxLength": 5},
		},
	},
}

func TestValidate(t *testing.T) {
	v, err := Validate(testSchema, []byte(`{"title":"ok"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "ok"}, v)

	for name, raw := range map[string]string{
		"not json":   `title: ok`,
		"array":      `[{"title":"ok"}]`,
		"missing":    `{}`,
		"too long":   `{"title":"much too long"}`,
		"wrong type": `{"title":5}`,
	} {
		_, err := Validate(testSchema, []byte(raw))
		var inv *ErrInvalidResponse
		assert.True(t, errors.As(err, &inv), name)
	}
}

func TestValidate_NilSchemaOnlyParses(t *testing.T) {
	v, err := Validate(nil, []byte(`[1,2]`))
	require.NoError(t, err)
	assert.Len(t, v, 2)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `[1]`, StripFences("```JSON [1] ```"))
	assert.Equal(t, `{"a":1}`, StripFences("  {\"a\":1}\n"))

	inner := "{\"text\":\"Wrap code in ```go blocks```\"}"
	assert.Equal(t, inner, StripFences("```json\n"+inner+"\n```"))
	assert.Equal(t, inner, StripFences(inner))
}
