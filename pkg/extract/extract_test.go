package extract_test

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lontok/kala-rag/pkg/errors"
	"github.com/lontok/kala-rag/pkg/extract"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		format extract.Format
	}{
		{"纯文本", "notes.txt", extract.FormatText},
		{"Markdown", "README.md", extract.FormatMarkdown},
		{"CSV", "data.csv", extract.FormatCSV},
		{"PDF", "report.pdf", extract.FormatPDF},
		{"DOCX", "letter.docx", extract.FormatDOCX},
		{"大写扩展名", "NOTES.TXT", extract.FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extract.DetectFormat(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.format, got)
		})
	}
}

func TestDetectFormatUnsupported(t *testing.T) {
	_, err := extract.DetectFormat("image.png")
	assert.ErrorIs(t, err, errors.ErrUnsupportedFormat)

	_, err = extract.DetectFormat("noext")
	assert.ErrorIs(t, err, errors.ErrUnsupportedFormat)
}

func TestValidate(t *testing.T) {
	e := extract.New(0)

	t.Run("文件不存在", func(t *testing.T) {
		err := e.Validate(filepath.Join(t.TempDir(), "absent.txt"))
		assert.ErrorIs(t, err, errors.ErrInvalidFile)
	})

	t.Run("路径是目录", func(t *testing.T) {
		err := e.Validate(t.TempDir())
		assert.ErrorIs(t, err, errors.ErrInvalidFile)
	})

	t.Run("空文件", func(t *testing.T) {
		err := e.Validate(writeFile(t, "empty.txt", ""))
		assert.ErrorIs(t, err, errors.ErrInvalidFile)
	})

	t.Run("超过大小上限", func(t *testing.T) {
		small := extract.New(8)
		err := small.Validate(writeFile(t, "big.txt", "more than eight bytes"))
		assert.ErrorIs(t, err, errors.ErrInvalidFile)
	})

	t.Run("有效文件", func(t *testing.T) {
		assert.NoError(t, e.Validate(writeFile(t, "ok.txt", "content")))
	})
}

func TestExtractText(t *testing.T) {
	path := writeFile(t, "doc.txt", "first line\n\nsecond line\n")

	doc, err := extract.New(0).Extract(path)
	require.NoError(t, err)

	assert.Equal(t, extract.FormatText, doc.Format)
	assert.Equal(t, "first line\n\nsecond line\n", doc.Text)
	assert.Equal(t, 4, doc.Metadata["total_lines"])
	assert.Equal(t, 2, doc.Metadata["non_empty_lines"])
	assert.Empty(t, doc.Pages)
}

func TestExtractFileMetadata(t *testing.T) {
	content := "first line\n\nsecond line\n"
	path := writeFile(t, "doc.txt", content)

	doc, err := extract.New(0).Extract(path)
	require.NoError(t, err)

	// 所有格式统一携带文件大小与抽取时间戳
	assert.Equal(t, int64(len(content)), doc.Metadata["file_size"])

	stamp, ok := doc.Metadata["extracted_at"].(string)
	require.True(t, ok)
	_, err = time.Parse(time.RFC3339, stamp)
	assert.NoError(t, err)
}

func TestExtractMarkdown(t *testing.T) {
	path := writeFile(t, "doc.md", "# Title\n\nbody text\n\n## Section\n\nmore text\n")

	doc, err := extract.New(0).Extract(path)
	require.NoError(t, err)

	assert.Equal(t, extract.FormatMarkdown, doc.Format)
	assert.Equal(t, 2, doc.Metadata["header_count"])
	assert.Equal(t, 4, doc.Metadata["non_empty_lines"])
}

func TestExtractCSV(t *testing.T) {
	path := writeFile(t, "data.csv", "name,age\nalice,30\n,\nbob,25\n")

	doc, err := extract.New(0).Extract(path)
	require.NoError(t, err)

	assert.Equal(t, extract.FormatCSV, doc.Format)
	assert.Equal(t, "name | age\nalice | 30\nbob | 25", doc.Text)
	assert.Equal(t, 4, doc.Metadata["total_rows"])
	assert.Equal(t, 2, doc.Metadata["total_columns"])

	// 全空行被跳过，偏移表中行号保持源文件口径
	require.Len(t, doc.Pages, 3)
	assert.Equal(t, 1, doc.Pages[0].Page)
	assert.Equal(t, 2, doc.Pages[1].Page)
	assert.Equal(t, 4, doc.Pages[2].Page)

	// 偏移指向每行文本的起点
	assert.Equal(t, "alice", doc.Text[doc.Pages[1].Start:doc.Pages[1].Start+5])
}

func TestExtractCSVMalformed(t *testing.T) {
	path := writeFile(t, "bad.csv", "a,\"unterminated\n")

	_, err := extract.New(0).Extract(path)
	assert.ErrorIs(t, err, errors.ErrExtraction)
}

func TestExtractPDFCorrupt(t *testing.T) {
	path := writeFile(t, "broken.pdf", "this is not a pdf")

	_, err := extract.New(0).Extract(path)
	assert.ErrorIs(t, err, errors.ErrExtraction)
}

func writeDOCX(t *testing.T, body string) string {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(
		`<?xml version="1.0"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
			`<w:body>` + body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "doc.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestExtractDOCX(t *testing.T) {
	path := writeDOCX(t,
		`<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>`+
			`<w:p></w:p>`+
			`<w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>`+
			`<w:tbl>`+
			`<w:tr><w:tc><w:p><w:r><w:t>h1</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>h2</w:t></w:r></w:p></w:tc></w:tr>`+
			`<w:tr><w:tc><w:p><w:r><w:t>a</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>b</w:t></w:r></w:p></w:tc></w:tr>`+
			`</w:tbl>`)

	doc, err := extract.New(0).Extract(path)
	require.NoError(t, err)

	assert.Equal(t, extract.FormatDOCX, doc.Format)
	assert.Equal(t, 2, doc.Metadata["paragraph_count"])
	assert.Equal(t, 1, doc.Metadata["table_count"])

	parts := strings.Split(doc.Text, "\n\n")
	require.Len(t, parts, 3)
	assert.Equal(t, "First paragraph.", parts[0])
	assert.Equal(t, "Second paragraph.", parts[1])
	assert.Equal(t, "h1 | h2\na | b", parts[2])
}

func TestExtractDOCXMissingBody(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<styles/>`))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "hollow.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	_, err = extract.New(0).Extract(path)
	assert.ErrorIs(t, err, errors.ErrExtraction)
}

func TestPageForOffset(t *testing.T) {
	pages := []extract.PageOffset{
		{Page: 1, Start: 0},
		{Page: 2, Start: 100},
		{Page: 3, Start: 250},
	}

	assert.Equal(t, 1, extract.PageForOffset(pages, 0))
	assert.Equal(t, 1, extract.PageForOffset(pages, 99))
	assert.Equal(t, 2, extract.PageForOffset(pages, 100))
	assert.Equal(t, 3, extract.PageForOffset(pages, 999))
	assert.Equal(t, 0, extract.PageForOffset(nil, 50))
}
