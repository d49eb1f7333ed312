package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lontok/kala-rag/pkg/errors"
)

func TestFilterExpr(t *testing.T) {
	tests := []struct {
		name   string
		filter map[string]any
		want   string
	}{
		{"空过滤", nil, ""},
		{"字符串", map[string]any{"source_name": "a.txt"}, `source_name == "a.txt"`},
		{"整数", map[string]any{"chunk_ordinal": 3}, "chunk_ordinal == 3"},
		{"布尔", map[string]any{"archived": true}, "archived == true"},
		{
			"多条件按键排序",
			map[string]any{"source_name": "a.txt", "chunk_ordinal": int64(1)},
			`chunk_ordinal == 1 && source_name == "a.txt"`,
		},
		{
			"字符串转义",
			map[string]any{"source_name": `we"ird\name.txt`},
			`source_name == "we\"ird\\name.txt"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filterExpr(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterExprUnsupportedType(t *testing.T) {
	_, err := filterExpr(map[string]any{"vec": []float32{1}})
	assert.ErrorIs(t, err, errors.ErrIndexOperation)
}
