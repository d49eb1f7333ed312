package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lontok/kala-rag/pkg/chunk"
	"github.com/lontok/kala-rag/pkg/errors"
)

func newChunk(fp string, ordinal int, text, source string) chunk.Chunk {
	return chunk.Chunk{
		Fingerprint: fp,
		Ordinal:     ordinal,
		StartToken:  ordinal * 80,
		EndToken:    ordinal*80 + 100,
		Text:        text,
		Metadata:    map[string]any{"source_name": source},
	}
}

func embedded(fp string, ordinal int, text, source string, vector []float32) EmbeddedChunk {
	return EmbeddedChunk{Chunk: newChunk(fp, ordinal, text, source), Vector: vector}
}

func seedIndex(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory("test_chunks", 3)

	err := m.Insert(context.Background(), []EmbeddedChunk{
		embedded("doc-a", 0, "a0", "a.txt", []float32{1, 0, 0}),
		embedded("doc-a", 1, "a1", "a.txt", []float32{0.8, 0.6, 0}),
		embedded("doc-b", 0, "b0", "b.txt", []float32{0, 1, 0}),
		embedded("doc-b", 1, "b1", "b.txt", []float32{0, 0.6, 0.8}),
	})
	require.NoError(t, err)
	return m
}

func TestMemorySearchOrdering(t *testing.T) {
	m := seedIndex(t)

	results, err := m.Search(context.Background(), []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 4)

	// 相似度非增
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
	assert.Equal(t, "doc-a_0", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestMemorySearchKBound(t *testing.T) {
	m := seedIndex(t)

	results, err := m.Search(context.Background(), []float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestMemorySearchTieBreak(t *testing.T) {
	m := NewMemory("test_chunks", 3)

	// 同一向量 → 同分，按序号升序
	err := m.Insert(context.Background(), []EmbeddedChunk{
		embedded("doc", 2, "c2", "d.txt", []float32{1, 0, 0}),
		embedded("doc", 0, "c0", "d.txt", []float32{1, 0, 0}),
		embedded("doc", 1, "c1", "d.txt", []float32{1, 0, 0}),
	})
	require.NoError(t, err)

	results, err := m.Search(context.Background(), []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 0, results[0].Ordinal)
	assert.Equal(t, 1, results[1].Ordinal)
	assert.Equal(t, 2, results[2].Ordinal)
}

func TestMemorySearchFilter(t *testing.T) {
	m := seedIndex(t)

	// 过滤后只有 a.txt 的块可被命中，即便 b.txt 相似度更高
	results, err := m.Search(context.Background(), []float32{0, 1, 0}, 10,
		map[string]any{"source_name": "a.txt"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "a.txt", r.Metadata["source_name"])
	}
}

func TestMemorySearchConjunctiveFilter(t *testing.T) {
	m := seedIndex(t)

	results, err := m.Search(context.Background(), []float32{1, 0, 0}, 10,
		map[string]any{"source_name": "a.txt", "chunk_ordinal": 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-a_1", results[0].ID)

	// 任一约束不满足即排除
	results, err = m.Search(context.Background(), []float32{1, 0, 0}, 10,
		map[string]any{"source_name": "a.txt", "chunk_ordinal": 9})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryExists(t *testing.T) {
	m := seedIndex(t)

	ok, err := m.Exists(context.Background(), "doc-a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Exists(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryUpsertOverwrites(t *testing.T) {
	m := seedIndex(t)

	before, err := m.Stats(context.Background())
	require.NoError(t, err)

	// 相同块身份重复写入不增加条目
	err = m.Insert(context.Background(), []EmbeddedChunk{
		embedded("doc-a", 0, "a0 updated", "a.txt", []float32{0, 0, 1}),
	})
	require.NoError(t, err)

	after, err := m.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before.EntryCount, after.EntryCount)

	results, err := m.Search(context.Background(), []float32{0, 0, 1}, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a0 updated", results[0].Text)
}

func TestMemoryDelete(t *testing.T) {
	m := seedIndex(t)

	deleted, err := m.Delete(context.Background(), "doc-a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	stats, err := m.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.EntryCount)

	// 删除后不再被检索到
	results, err := m.Search(context.Background(), []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "doc-a", r.Fingerprint)
	}

	// 重复删除是空操作
	deleted, err = m.Delete(context.Background(), "doc-a")
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestMemoryReset(t *testing.T) {
	m := seedIndex(t)

	require.NoError(t, m.Reset(context.Background()))

	stats, err := m.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.EntryCount)
	assert.Equal(t, "test_chunks", stats.Collection)
	assert.Equal(t, 3, stats.Dimension)
}

func TestMemoryDimensionMismatch(t *testing.T) {
	m := NewMemory("test_chunks", 3)

	err := m.Insert(context.Background(), []EmbeddedChunk{
		embedded("doc", 0, "c", "d.txt", []float32{1, 0}),
	})
	assert.ErrorIs(t, err, errors.ErrEmbeddingDimension)

	_, err = m.Search(context.Background(), []float32{1, 0}, 5, nil)
	assert.ErrorIs(t, err, errors.ErrEmbeddingDimension)
}
