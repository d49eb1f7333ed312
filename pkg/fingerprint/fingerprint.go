// Package fingerprint 提供基于内容的文档指纹。
//
// 指纹是原始字节的 SHA-256 摘要，作为文档的去重身份：相同字节在不同
// 文件名下产生相同指纹，被视为同一文档。
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// Size 是十六进制指纹字符串的长度。
const Size = sha256.Size * 2

// Sum 计算字节内容的指纹。
func Sum(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// SumReader 流式计算 reader 内容的指纹。
func SumReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SumFile 计算文件内容的指纹。
func SumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return SumReader(f)
}
