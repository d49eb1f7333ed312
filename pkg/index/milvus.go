package index

import (
	"context"
	"sort"
	"sync"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/lontok/kala-rag/pkg/component/milvus"
	"github.com/lontok/kala-rag/pkg/errors"
	"github.com/lontok/kala-rag/pkg/fingerprint"
	indexopts "github.com/lontok/kala-rag/pkg/options/index"
)

// 集合中持久化的块字段。
const (
	fieldChunkID    = "chunk_id"
	fieldFP         = "fingerprint"
	fieldSourceName = "source_name"
	fieldOrdinal    = "chunk_ordinal"
	fieldPageHint   = "page_hint"
	fieldSpanStart  = "span_start"
	fieldSpanEnd    = "span_end"
	fieldText       = "text"
)

var outputFields = []string{fieldFP, fieldSourceName, fieldOrdinal, fieldPageHint, fieldSpanStart, fieldSpanEnd, fieldText}

// Milvus 是基于 Milvus 集合的 Index 实现。
//
// 主键为 varchar 的块标识（指纹_序号），upsert 按主键覆盖。检索结果在
// 客户端按 (相似度降序, 序号升序, 主键升序) 重排，保证顺序确定。
// Reset 持有写锁，与其它操作互斥。
type Milvus struct {
	mu         sync.RWMutex
	client     *milvus.Client
	collection string
	dimension  int
}

// NewMilvus 创建 Milvus 索引并确保集合就绪。
func NewMilvus(client *milvus.Client, opts *indexopts.Options) (*Milvus, error) {
	m := &Milvus{
		client:     client,
		collection: opts.Collection,
		dimension:  opts.Dimension,
	}
	if err := m.ensureCollection(context.Background()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Milvus) ensureCollection(ctx context.Context) error {
	schema := &milvus.CollectionSchema{
		Name:        m.collection,
		Description: "document chunk embeddings",
		Dimension:   m.dimension,
		PKField:     fieldChunkID,
		PKMaxLen:    fingerprint.Size + 16,
		MetaFields: []milvus.MetaField{
			{Name: fieldFP, DataType: entity.FieldTypeVarChar, MaxLen: fingerprint.Size},
			{Name: fieldSourceName, DataType: entity.FieldTypeVarChar, MaxLen: 512},
			{Name: fieldOrdinal, DataType: entity.FieldTypeInt64},
			{Name: fieldPageHint, DataType: entity.FieldTypeInt64},
			{Name: fieldSpanStart, DataType: entity.FieldTypeInt64},
			{Name: fieldSpanEnd, DataType: entity.FieldTypeInt64},
			{Name: fieldText, DataType: entity.FieldTypeVarChar, MaxLen: 65535},
		},
	}
	if err := m.client.CreateCollection(ctx, schema); err != nil {
		return errors.ErrIndexOperation.WithMessage("failed to ensure collection").WithCause(err)
	}
	return nil
}

// Insert 按块身份 upsert 一批向量化分块。
func (m *Milvus) Insert(ctx context.Context, chunks []EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data := &milvus.UpsertData{
		Keys:       make([]string, len(chunks)),
		Embeddings: make([][]float32, len(chunks)),
		Metadata: map[string][]any{
			fieldFP:         make([]any, len(chunks)),
			fieldSourceName: make([]any, len(chunks)),
			fieldOrdinal:    make([]any, len(chunks)),
			fieldPageHint:   make([]any, len(chunks)),
			fieldSpanStart:  make([]any, len(chunks)),
			fieldSpanEnd:    make([]any, len(chunks)),
			fieldText:       make([]any, len(chunks)),
		},
	}

	for i, ch := range chunks {
		if len(ch.Vector) != m.dimension {
			return errors.ErrEmbeddingDimension.WithMessagef(
				"chunk %s vector dimension %d does not match collection dimension %d",
				ch.ID(), len(ch.Vector), m.dimension)
		}
		data.Keys[i] = ch.ID()
		data.Embeddings[i] = ch.Vector
		data.Metadata[fieldFP][i] = ch.Fingerprint
		data.Metadata[fieldSourceName][i] = metaString(ch.Metadata, "source_name")
		data.Metadata[fieldOrdinal][i] = int64(ch.Ordinal)
		data.Metadata[fieldPageHint][i] = int64(metaInt(ch.Metadata, "page_hint"))
		data.Metadata[fieldSpanStart][i] = int64(ch.StartToken)
		data.Metadata[fieldSpanEnd][i] = int64(ch.EndToken)
		data.Metadata[fieldText][i] = ch.Text
	}

	if err := m.client.Upsert(ctx, m.collection, fieldChunkID, data); err != nil {
		return errors.ErrIndexOperation.WithMessage("failed to upsert chunks").WithCause(err)
	}
	return nil
}

// Exists 检查指定指纹的文档是否已有块入库。
func (m *Milvus) Exists(ctx context.Context, fp string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	expr, err := filterExpr(map[string]any{fieldFP: fp})
	if err != nil {
		return false, err
	}
	keys, err := m.client.QueryKeys(ctx, m.collection, fieldChunkID, expr, 1)
	if err != nil {
		return false, errors.ErrIndexOperation.WithMessage("failed to check document existence").WithCause(err)
	}
	return len(keys) > 0, nil
}

// Search 返回与查询向量最相似的至多 k 个条目。
func (m *Milvus) Search(ctx context.Context, vector []float32, k int, filter map[string]any) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(vector) != m.dimension {
		return nil, errors.ErrEmbeddingDimension.WithMessagef(
			"query vector dimension %d does not match collection dimension %d", len(vector), m.dimension)
	}

	expr, err := filterExpr(filter)
	if err != nil {
		return nil, err
	}

	hits, err := m.client.Search(ctx, m.collection, vector, k, expr, outputFields)
	if err != nil {
		return nil, errors.ErrIndexOperation.WithMessage("search failed").WithCause(err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		r := Result{
			ID:       hit.ID,
			Score:    float64(hit.Score),
			Metadata: make(map[string]any, len(hit.Metadata)),
		}
		for name, value := range hit.Metadata {
			if name == fieldText {
				r.Text, _ = value.(string)
				continue
			}
			r.Metadata[name] = value
		}
		r.Fingerprint, _ = r.Metadata[fieldFP].(string)
		if ord, ok := r.Metadata[fieldOrdinal].(int64); ok {
			r.Ordinal = int(ord)
		}
		results = append(results, r)
	}

	sortResults(results)
	return results, nil
}

// Delete 删除指定指纹文档的全部块。
func (m *Milvus) Delete(ctx context.Context, fp string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	expr, err := filterExpr(map[string]any{fieldFP: fp})
	if err != nil {
		return 0, err
	}

	keys, err := m.client.QueryKeys(ctx, m.collection, fieldChunkID, expr, 0)
	if err != nil {
		return 0, errors.ErrIndexOperation.WithMessage("failed to enumerate document chunks").WithCause(err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := m.client.DeleteByExpr(ctx, m.collection, expr)
	if err != nil {
		return 0, errors.ErrIndexOperation.WithMessage("failed to delete document chunks").WithCause(err)
	}
	if deleted < int64(len(keys)) {
		return deleted, errors.ErrPartialDelete.WithMessagef(
			"deleted %d of %d chunks for fingerprint %s", deleted, len(keys), fp)
	}
	return deleted, nil
}

// Stats 返回集合统计。
func (m *Milvus) Stats(ctx context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count, err := m.client.GetCollectionStats(ctx, m.collection)
	if err != nil {
		return nil, errors.ErrIndexOperation.WithMessage("failed to get collection stats").WithCause(err)
	}
	return &Stats{
		EntryCount: count,
		Dimension:  m.dimension,
		Collection: m.collection,
	}, nil
}

// Reset 清空集合：删除后重建空集合。与其它操作互斥。
func (m *Milvus) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.client.DropCollection(ctx, m.collection); err != nil {
		return errors.ErrIndexOperation.WithMessage("failed to drop collection").WithCause(err)
	}
	return m.ensureCollection(ctx)
}

// sortResults 客户端确定性重排：相似度降序，同分按序号升序，再按主键升序。
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Ordinal != results[j].Ordinal {
			return results[i].Ordinal < results[j].Ordinal
		}
		return results[i].ID < results[j].ID
	})
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

func metaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

var _ Index = (*Milvus)(nil)
