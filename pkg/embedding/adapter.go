package embedding

import (
	"context"

	"github.com/lontok/kala-rag/pkg/errors"
)

// DefaultBatchSize 是默认的批量嵌入上限。
const DefaultBatchSize = 32

// Adapter 在供应商之上施加批量与维度约束。
//
// 批量调用按 batchSize 切分，任一批失败则整体失败（不静默丢弃部分结果），
// 重试策略由上层摄取管线负责。返回向量的维度必须与配置一致，不一致时
// 返回 ErrEmbeddingDimension 而非截断或补零。
type Adapter struct {
	provider  Provider
	batchSize int
	dimension int
}

// NewAdapter 创建 Adapter。batchSize <= 0 时使用 DefaultBatchSize。
func NewAdapter(provider Provider, batchSize, dimension int) *Adapter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Adapter{
		provider:  provider,
		batchSize: batchSize,
		dimension: dimension,
	}
}

// Dimension 返回配置的向量维度。
func (a *Adapter) Dimension() int {
	return a.dimension
}

// Name 返回底层供应商名称。
func (a *Adapter) Name() string {
	return a.provider.Name()
}

// EmbedTexts 批量生成向量，结果顺序与输入一致。
func (a *Adapter) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += a.batchSize {
		end := start + a.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		embedded, err := a.provider.Embed(ctx, batch)
		if err != nil {
			return nil, errors.ErrEmbeddingService.WithMessagef(
				"embedding batch [%d:%d) failed", start, end).WithCause(err)
		}
		if len(embedded) != len(batch) {
			return nil, errors.ErrEmbeddingService.WithMessagef(
				"embedding batch [%d:%d) returned %d vectors for %d texts", start, end, len(embedded), len(batch))
		}

		for _, vec := range embedded {
			if err := a.checkDimension(vec); err != nil {
				return nil, err
			}
			vectors = append(vectors, vec)
		}
	}

	return vectors, nil
}

// EmbedQuery 为单个查询文本生成向量。
func (a *Adapter) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := a.provider.EmbedSingle(ctx, text)
	if err != nil {
		return nil, errors.ErrEmbeddingService.WithMessage("query embedding failed").WithCause(err)
	}
	if err := a.checkDimension(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func (a *Adapter) checkDimension(vec []float32) error {
	if a.dimension > 0 && len(vec) != a.dimension {
		return errors.ErrEmbeddingDimension.WithMessagef(
			"embedding dimension %d does not match configured dimension %d", len(vec), a.dimension)
	}
	return nil
}
