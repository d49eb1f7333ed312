// Package chunk 提供 token 空间内的滑动窗口分块。
//
// 分块在 token 序列上进行：窗口长度为 chunk_size，每步前进
// chunk_size - overlap，相邻块恰好重叠 overlap 个 token。窗口触及
// 序列末尾即停止，末块可以短于 chunk_size 但至少含 1 个 token。
// 块身份 = 父文档指纹 + 序号，对给定 (文本, 尺寸, 重叠) 组合稳定。
package chunk

import (
	"strconv"
	"strings"

	"github.com/lontok/kala-rag/pkg/errors"
	"github.com/lontok/kala-rag/pkg/extract"
	"github.com/lontok/kala-rag/pkg/token"
)

// Chunk 是文档的一个可检索片段。
type Chunk struct {
	// Fingerprint 是父文档指纹。
	Fingerprint string

	// Ordinal 是块在文档内的序号，从 0 开始。
	Ordinal int

	// StartToken 和 EndToken 是块在文档 token 序列中的跨度 [start, end)。
	StartToken int
	EndToken   int

	// Text 是跨度还原出的文本。
	Text string

	// Metadata 携带来源信息与定位字段。
	Metadata map[string]any
}

// ID 返回块的稳定标识：指纹_序号。
func (c *Chunk) ID() string {
	return c.Fingerprint + "_" + strconv.Itoa(c.Ordinal)
}

// TokenCount 返回块的 token 数。
func (c *Chunk) TokenCount() int {
	return c.EndToken - c.StartToken
}

// Source 描述被分块文档的来源。
type Source struct {
	// Fingerprint 是文档内容指纹，参与块身份。
	Fingerprint string

	// Name 是来源文件名。
	Name string

	// Metadata 是文档级元数据，复制进每个块。
	Metadata map[string]any

	// Pages 是抽取阶段的单元偏移表，存在时块会带上 page_hint。
	Pages []extract.PageOffset
}

// Chunker 基于可逆分词器执行分块。
type Chunker struct {
	tk token.Tokenizer
}

// New 创建 Chunker。
func New(tk token.Tokenizer) *Chunker {
	return &Chunker{tk: tk}
}

// Split 将文本切分为重叠的 token 窗口。
//
// 前置条件 0 < overlap < size，违反时返回 ErrInvalidChunkConfig。
// 空文本（或纯空白）返回空切片而非错误，是否视为异常由调用方决定。
// token 数不超过 size 时恰好产生一个覆盖全文的块。
func (c *Chunker) Split(text string, src Source, size, overlap int) ([]Chunk, error) {
	if size <= 0 {
		return nil, errors.ErrInvalidChunkConfig.WithMessagef("chunk size must be positive, got %d", size)
	}
	if overlap <= 0 || overlap >= size {
		return nil, errors.ErrInvalidChunkConfig.WithMessagef(
			"overlap must satisfy 0 < overlap < chunk size, got overlap=%d size=%d", overlap, size)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}
	// 去掉的前导空白不参与分词，换算 page_hint 时补回偏移
	lead := strings.Index(text, trimmed)

	tokens := c.tk.Encode(trimmed)
	if len(tokens) == 0 {
		return nil, nil
	}

	step := size - overlap
	total := 0
	for start := 0; start < len(tokens); start += step {
		total++
		if start+size >= len(tokens) {
			break
		}
	}

	chunks := make([]Chunk, 0, total)
	for start := 0; start < len(tokens); start += step {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}

		ordinal := len(chunks)
		meta := make(map[string]any, len(src.Metadata)+6)
		for k, v := range src.Metadata {
			meta[k] = v
		}
		meta["source_name"] = src.Name
		meta["fingerprint"] = src.Fingerprint
		meta["chunk_ordinal"] = ordinal
		meta["chunk_token_count"] = end - start
		meta["total_chunks"] = total

		if len(src.Pages) > 0 {
			off := lead + len(c.tk.Decode(tokens[:start]))
			if page := extract.PageForOffset(src.Pages, off); page > 0 {
				meta["page_hint"] = page
			}
		}

		chunks = append(chunks, Chunk{
			Fingerprint: src.Fingerprint,
			Ordinal:     ordinal,
			StartToken:  start,
			EndToken:    end,
			Text:        c.tk.Decode(tokens[start:end]),
			Metadata:    meta,
		})

		if end == len(tokens) {
			break
		}
	}

	return chunks, nil
}
