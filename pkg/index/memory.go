package index

import (
	"context"
	"sort"
	"sync"

	"github.com/lontok/kala-rag/internal/pkg/textutil"
	"github.com/lontok/kala-rag/pkg/errors"
)

// Memory 是进程内的 Index 实现，检索为全量余弦相似度暴力扫描。
// 供测试与小规模嵌入式场景使用，与 Milvus 实现保持相同的字段口径
// 与排序契约。
type Memory struct {
	mu         sync.RWMutex
	collection string
	dimension  int
	entries    map[string]*memEntry
	seq        int64
}

type memEntry struct {
	id       string
	fp       string
	ordinal  int
	text     string
	vector   []float32
	metadata map[string]any
	seq      int64
}

// NewMemory 创建内存索引。
func NewMemory(collection string, dimension int) *Memory {
	return &Memory{
		collection: collection,
		dimension:  dimension,
		entries:    make(map[string]*memEntry),
	}
}

// Insert 按块身份 upsert 一批向量化分块。
func (m *Memory) Insert(_ context.Context, chunks []EmbeddedChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ch := range chunks {
		if len(ch.Vector) != m.dimension {
			return errors.ErrEmbeddingDimension.WithMessagef(
				"chunk %s vector dimension %d does not match collection dimension %d",
				ch.ID(), len(ch.Vector), m.dimension)
		}

		metadata := map[string]any{
			fieldFP:         ch.Fingerprint,
			fieldSourceName: metaString(ch.Metadata, "source_name"),
			fieldOrdinal:    int64(ch.Ordinal),
			fieldPageHint:   int64(metaInt(ch.Metadata, "page_hint")),
			fieldSpanStart:  int64(ch.StartToken),
			fieldSpanEnd:    int64(ch.EndToken),
		}

		vector := make([]float32, len(ch.Vector))
		copy(vector, ch.Vector)

		m.seq++
		m.entries[ch.ID()] = &memEntry{
			id:       ch.ID(),
			fp:       ch.Fingerprint,
			ordinal:  ch.Ordinal,
			text:     ch.Text,
			vector:   vector,
			metadata: metadata,
			seq:      m.seq,
		}
	}
	return nil
}

// Exists 检查指定指纹的文档是否已有块入库。
func (m *Memory) Exists(_ context.Context, fp string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.entries {
		if e.fp == fp {
			return true, nil
		}
	}
	return false, nil
}

// Search 返回与查询向量最相似的至多 k 个条目。
func (m *Memory) Search(_ context.Context, vector []float32, k int, filter map[string]any) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(vector) != m.dimension {
		return nil, errors.ErrEmbeddingDimension.WithMessagef(
			"query vector dimension %d does not match collection dimension %d", len(vector), m.dimension)
	}

	type scored struct {
		entry *memEntry
		score float64
	}

	candidates := make([]scored, 0, len(m.entries))
	for _, e := range m.entries {
		if !matchesFilter(e.metadata, filter) {
			continue
		}
		candidates = append(candidates, scored{
			entry: e,
			score: textutil.CosineSimilarity(vector, e.vector),
		})
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		metadata := make(map[string]any, len(c.entry.metadata))
		for k, v := range c.entry.metadata {
			metadata[k] = v
		}
		results = append(results, Result{
			ID:          c.entry.id,
			Fingerprint: c.entry.fp,
			Ordinal:     c.entry.ordinal,
			Text:        c.entry.text,
			Metadata:    metadata,
			Score:       c.score,
		})
	}

	// 同分条目按序号再按插入先后排序
	seqOf := make(map[string]int64, len(candidates))
	for _, c := range candidates {
		seqOf[c.entry.id] = c.entry.seq
	}
	sortResultsBySeq(results, seqOf)

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Delete 删除指定指纹文档的全部块，返回删除数。
func (m *Memory) Delete(_ context.Context, fp string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for id, e := range m.entries {
		if e.fp == fp {
			delete(m.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

// Stats 返回集合统计。
func (m *Memory) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &Stats{
		EntryCount: int64(len(m.entries)),
		Dimension:  m.dimension,
		Collection: m.collection,
	}, nil
}

// Reset 清空集合。
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*memEntry)
	m.seq = 0
	return nil
}

// sortResultsBySeq 确定性重排：相似度降序，同分按序号升序，再按插入先后。
func sortResultsBySeq(results []Result, seqOf map[string]int64) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Ordinal != results[j].Ordinal {
			return results[i].Ordinal < results[j].Ordinal
		}
		return seqOf[results[i].ID] < seqOf[results[j].ID]
	})
}

// matchesFilter 合取精确匹配。整数值统一按 int64 比较。
func matchesFilter(metadata, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok {
			return false
		}
		if normalize(got) != normalize(want) {
			return false
		}
	}
	return true
}

func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	}
	return v
}

var _ Index = (*Memory)(nil)
