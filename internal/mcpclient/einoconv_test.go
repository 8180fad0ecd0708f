package mcpclient

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEinoToolInfos(t *testing.T) {
	infos := EinoToolInfos([]ToolInfo{
		{
			Name:        "search",
			Description: "search the index",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "query text"},
					"limit": map[string]any{"type": "integer"},
					"mode":  map[string]any{"type": "string", "enum": []any{"fast", "deep"}},
					"tags":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
				"required": []any{"query"},
			},
		},
	})
	require.Len(t, infos, 1)

	info := infos[0]
	assert.Equal(t, "search", info.Name)
	assert.Equal(t, "search the index", info.Desc)

	params, err := info.ParamsOneOf.ToJSONSchema()
	require.NoError(t, err)
	require.NotNil(t, params)

	query, ok := params.Properties.Get("query")
	require.True(t, ok)
	assert.Equal(t, "query text", query.Description)
	assert.Contains(t, params.Required, "query")
	assert.NotContains(t, params.Required, "limit")

	mode, ok := params.Properties.Get("mode")
	require.True(t, ok)
	assert.Len(t, mode.Enum, 2)

	tags, ok := params.Properties.Get("tags")
	require.True(t, ok)
	assert.Equal(t, "array", tags.Type)
}

func TestEinoToolInfosWithoutSchemaDetail(t *testing.T) {
	infos := EinoToolInfos([]ToolInfo{
		{Name: "ping", Description: "no params", InputSchema: map[string]any{"type": "object"}},
		{Name: "odd", InputSchema: "not a schema"},
	})
	require.Len(t, infos, 2)
	assert.Nil(t, infos[0].ParamsOneOf)
	assert.Nil(t, infos[1].ParamsOneOf)
}

func TestDataTypeMapping(t *testing.T) {
	tests := []struct {
		in   any
		want schema.DataType
	}{
		{"string", schema.String},
		{"integer", schema.Integer},
		{"number", schema.Number},
		{"boolean", schema.Boolean},
		{"object", schema.Object},
		{"array", schema.Array},
		{nil, schema.String},
	}
	for _, tt := range tests {
		if got := dataType(tt.in); got != tt.want {
			t.Errorf("dataType(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
