// Package token 提供文档分块所依赖的可逆分词器。
//
// 分词器契约：Decode(Encode(s)) == s，即编码到 token 序列后可以无损还原原文。
// 分块器基于该契约在 token 空间滑动窗口，并将窗口还原为文本。
package token

import (
	"sync"
	"unicode"
)

// Tokenizer 将文本编码为有序 token 序列。
type Tokenizer interface {
	// Encode 将文本编码为 token 序列。
	Encode(text string) []int

	// Decode 将 token 序列还原为文本。
	Decode(tokens []int) string

	// Count 返回文本的 token 数。
	Count(text string) int

	// Name 返回分词器名称。
	Name() string
}

// Whitespace 是确定性的离线分词器：每个 token 为一个非空白字符段
// 及其后续的空白段。token 边界永远不会切分多字节字符。
type Whitespace struct {
	mu    sync.Mutex
	vocab map[string]int
	units []string
}

// NewWhitespace 创建空词表的 Whitespace 分词器。
func NewWhitespace() *Whitespace {
	return &Whitespace{
		vocab: make(map[string]int),
	}
}

// Name 返回分词器名称。
func (w *Whitespace) Name() string {
	return "whitespace"
}

// Encode 将文本编码为 token 序列。词表按需增长，同一实例内编码稳定。
func (w *Whitespace) Encode(text string) []int {
	segments := splitSegments(text)

	w.mu.Lock()
	defer w.mu.Unlock()

	tokens := make([]int, len(segments))
	for i, seg := range segments {
		id, ok := w.vocab[seg]
		if !ok {
			id = len(w.units)
			w.vocab[seg] = id
			w.units = append(w.units, seg)
		}
		tokens[i] = id
	}
	return tokens
}

// Decode 将 token 序列还原为文本。未知 token 被跳过。
func (w *Whitespace) Decode(tokens []int) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var sb []byte
	for _, id := range tokens {
		if id >= 0 && id < len(w.units) {
			sb = append(sb, w.units[id]...)
		}
	}
	return string(sb)
}

// Count 返回文本的 token 数。
func (w *Whitespace) Count(text string) int {
	return len(splitSegments(text))
}

// splitSegments 切分文本：每段为一个非空白段加其后续空白段。
// 开头的纯空白段自成一个 token，保证拼接还原原文。
func splitSegments(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	var segments []string

	i := 0
	// 前导空白自成一段
	if unicode.IsSpace(runes[0]) {
		j := 0
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		segments = append(segments, string(runes[:j]))
		i = j
	}

	for i < len(runes) {
		j := i
		for j < len(runes) && !unicode.IsSpace(runes[j]) {
			j++
		}
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		segments = append(segments, string(runes[i:j]))
		i = j
	}

	return segments
}
