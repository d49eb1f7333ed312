// Package index 定义分块向量索引的统一契约。
//
// 索引持久化 EmbeddedChunk 并支持按内容指纹的存在性检查、条件相似度
// 检索、按文档删除与整体清空。写入语义是按块身份的 upsert：相同
// (指纹, 序号) 覆盖旧行而非产生重复。
package index

import (
	"context"

	"github.com/lontok/kala-rag/pkg/chunk"
)

// EmbeddedChunk 是携带向量的分块，向量维度必须与索引配置一致。
type EmbeddedChunk struct {
	chunk.Chunk

	// Vector 是块文本的嵌入向量。
	Vector []float32
}

// Result 是一次检索命中，按相似度从高到低排列。
type Result struct {
	// ID 是块标识：指纹_序号。
	ID string

	// Fingerprint 是父文档指纹。
	Fingerprint string

	// Ordinal 是块在文档内的序号。
	Ordinal int

	// Text 是块文本。
	Text string

	// Metadata 是持久化的块元数据。
	Metadata map[string]any

	// Score 是与查询向量的余弦相似度。
	Score float64
}

// Stats 描述集合当前状态。
type Stats struct {
	// EntryCount 是集合中的块条目数。
	EntryCount int64

	// Dimension 是集合配置的向量维度。
	Dimension int

	// Collection 是集合名称。
	Collection string
}

// Index 是向量索引契约。
//
// 实现必须保证检索顺序确定：相似度相同的条目按块序号升序、再按
// 插入先后排列。Reset 只能由显式调用触发，任何其它操作不得隐式清空集合。
type Index interface {
	// Insert 按块身份 upsert 一批向量化分块。
	Insert(ctx context.Context, chunks []EmbeddedChunk) error

	// Exists 检查指定指纹的文档是否已有块入库。
	Exists(ctx context.Context, fp string) (bool, error)

	// Search 返回与查询向量最相似的至多 k 个条目。
	// filter 是元数据的合取精确匹配约束，nil 表示不过滤。
	Search(ctx context.Context, vector []float32, k int, filter map[string]any) ([]Result, error)

	// Delete 删除指定指纹文档的全部块，返回实际删除数。
	// 只删除了部分块时返回 ErrPartialDelete 而非伪装成功。
	Delete(ctx context.Context, fp string) (int64, error)

	// Stats 返回集合统计。
	Stats(ctx context.Context) (*Stats, error)

	// Reset 不可恢复地清空集合。
	Reset(ctx context.Context) error
}
