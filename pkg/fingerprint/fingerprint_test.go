package fingerprint_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lontok/kala-rag/pkg/fingerprint"
)

func TestSumDeterministic(t *testing.T) {
	data := []byte("the quick brown fox")

	first := fingerprint.Sum(data)
	second := fingerprint.Sum(data)

	assert.Equal(t, first, second)
	assert.Len(t, first, fingerprint.Size)
}

func TestSumSingleByteChange(t *testing.T) {
	a := fingerprint.Sum([]byte("document content"))
	b := fingerprint.Sum([]byte("document contenu"))
	assert.NotEqual(t, a, b)
}

func TestSumEmptyInput(t *testing.T) {
	// SHA-256 空输入摘要
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		fingerprint.Sum(nil))
}

func TestSumReaderMatchesSum(t *testing.T) {
	data := []byte("streamed content with some length to cross buffer boundaries")

	got, err := fingerprint.SumReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, fingerprint.Sum(data), got)
}

func TestSumFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	data := []byte("file contents")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := fingerprint.SumFile(path)
	require.NoError(t, err)
	assert.Equal(t, fingerprint.Sum(data), got)

	// 相同字节不同文件名产生相同指纹
	other := filepath.Join(dir, "renamed.txt")
	require.NoError(t, os.WriteFile(other, data, 0o644))
	renamed, err := fingerprint.SumFile(other)
	require.NoError(t, err)
	assert.Equal(t, got, renamed)
}

func TestSumFileMissing(t *testing.T) {
	_, err := fingerprint.SumFile(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}
