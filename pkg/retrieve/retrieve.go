// Package retrieve 实现查询检索与上下文拼装。
//
// 检索管线：查询向量化 → 索引相似度检索 → 相似度阈值过滤 → 可选重排。
// 阈值过滤先于一切截断执行；重排只对候选集重新排序或截断，绝不引入
// 索引结果之外的条目。上下文拼装按名次顺序连接块文本，超出 token 预算
// 时从尾部丢弃整块，从不输出被截断一半的块。
package retrieve

import (
	"context"
	"sort"
	"strings"

	"github.com/kart-io/logger"

	"github.com/lontok/kala-rag/pkg/index"
	retrievalopts "github.com/lontok/kala-rag/pkg/options/retrieval"
	"github.com/lontok/kala-rag/pkg/token"
)

// NoRelevantContext 是"没有可用上下文"的哨兵值。
// 阈值过滤后候选为空时 Context 返回该值而非空字符串，
// 调用方据此区分"没查到"与"查到但都不够相关"。
const NoRelevantContext = "NO_RELEVANT_CONTEXT"

// Result 是带名次的检索结果。
type Result struct {
	index.Result

	// Rank 是结果名次，从 1 开始。
	Rank int
}

// QueryEmbedder 将查询文本向量化。
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Retriever 组合向量化、索引检索与上下文拼装。
type Retriever struct {
	embedder QueryEmbedder
	idx      index.Index
	tk       token.Tokenizer
	opts     *retrievalopts.Options
}

// New 创建 Retriever。
func New(embedder QueryEmbedder, idx index.Index, tk token.Tokenizer, opts *retrievalopts.Options) *Retriever {
	if opts == nil {
		opts = retrievalopts.NewOptions()
	}
	return &Retriever{
		embedder: embedder,
		idx:      idx,
		tk:       tk,
		opts:     opts,
	}
}

// Retrieve 返回与查询最相关的至多 topK 个结果。
//
// topK <= 0 时使用配置默认值。向量化或检索失败返回错误，与"零结果"
// 是两种不可混淆的结局。
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, filter map[string]any) ([]Result, error) {
	if topK <= 0 {
		topK = r.opts.TopK
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := r.idx.Search(ctx, vector, topK, filter)
	if err != nil {
		return nil, err
	}

	// 阈值过滤先于任何截断
	kept := hits[:0:len(hits)]
	for _, h := range hits {
		if h.Score >= r.opts.SimilarityThreshold {
			kept = append(kept, h)
		}
	}

	if r.opts.Rerank {
		kept = rerank(query, kept)
	}

	results := make([]Result, len(kept))
	for i, h := range kept {
		results[i] = Result{Result: h, Rank: i + 1}
	}

	logger.Debugw("retrieval finished",
		"query_length", len(query), "candidates", len(hits), "kept", len(results))
	return results, nil
}

// Context 按名次顺序拼装结果文本，受 token 预算约束。
// 预算覆盖块文本与块间连接符；不足时从尾部丢弃整块，
// 没有任何可用块时返回 NoRelevantContext。
func (r *Retriever) Context(results []Result) string {
	if len(results) == 0 {
		return NoRelevantContext
	}

	budget := r.opts.MaxContextTokens
	sep := r.tk.Count("\n\n")
	used := 0
	var parts []string
	for _, res := range results {
		cost := r.tk.Count(res.Text)
		// 连接符也计入预算
		if len(parts) > 0 {
			cost += sep
		}
		if budget > 0 && used+cost > budget {
			break
		}
		parts = append(parts, res.Text)
		used += cost
	}

	if len(parts) == 0 {
		return NoRelevantContext
	}
	return strings.Join(parts, "\n\n")
}

// rerank 对候选集做纯重排：向量相似度与查询词重合度加权，
// 不引入新结果。同分按块序号升序。
func rerank(query string, hits []index.Result) []index.Result {
	type scored struct {
		hit   index.Result
		score float64
	}

	rescored := make([]scored, len(hits))
	for i, h := range hits {
		rescored[i] = scored{
			hit:   h,
			score: 0.8*h.Score + 0.2*termOverlap(query, h.Text),
		}
	}

	sort.SliceStable(rescored, func(i, j int) bool {
		if rescored[i].score != rescored[j].score {
			return rescored[i].score > rescored[j].score
		}
		return rescored[i].hit.Ordinal < rescored[j].hit.Ordinal
	})

	out := make([]index.Result, len(rescored))
	for i, s := range rescored {
		out[i] = s.hit
	}
	return out
}

// termOverlap 返回查询词在文本中出现的比例，区间 [0, 1]。
func termOverlap(query, text string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}

	lowered := strings.ToLower(text)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
