package token

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tiktoken 基于 cl100k_base BPE 编码的分词器，与原部署的 token 预算口径一致。
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken 创建 cl100k_base 分词器。
func NewTiktoken() (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load cl100k_base encoding: %w", err)
	}
	return &Tiktoken{enc: enc}, nil
}

// Name 返回分词器名称。
func (t *Tiktoken) Name() string {
	return "cl100k_base"
}

// Encode 将文本编码为 BPE token 序列。
func (t *Tiktoken) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode 将 BPE token 序列还原为文本。
func (t *Tiktoken) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// Count 返回文本的 BPE token 数。
func (t *Tiktoken) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

var _ Tokenizer = (*Tiktoken)(nil)
var _ Tokenizer = (*Whitespace)(nil)
