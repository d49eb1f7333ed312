// Package extract 提供格式感知的文档文本抽取。
//
// 每种支持的格式有独立的抽取器，输出统一的 Document：纯文本正文加上
// 格式相关的元数据。对分页/分行格式（PDF、CSV）额外记录单元偏移表，
// 供下游分块时推断 page_hint。
package extract

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lontok/kala-rag/pkg/errors"
)

// Format 标识文档格式。
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
)

// DefaultMaxFileSize 是默认的单文件大小上限（50MiB）。
const DefaultMaxFileSize = 50 << 20

// formatByExt 按扩展名路由到抽取器。
var formatByExt = map[string]Format{
	".txt":  FormatText,
	".md":   FormatMarkdown,
	".csv":  FormatCSV,
	".pdf":  FormatPDF,
	".docx": FormatDOCX,
}

// DetectFormat 根据文件扩展名判定格式。
// 扩展名无对应抽取器时返回 ErrUnsupportedFormat。
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := formatByExt[ext]
	if !ok {
		return "", errors.ErrUnsupportedFormat.WithMessagef(
			"unsupported document format: %q (supported: %s)", ext, supportedExts())
	}
	return f, nil
}

// SupportedExtensions 返回全部受支持的扩展名。
func SupportedExtensions() []string {
	exts := make([]string, 0, len(formatByExt))
	for ext := range formatByExt {
		exts = append(exts, ext)
	}
	return exts
}

func supportedExts() string {
	return strings.Join(SupportedExtensions(), ", ")
}

// PageOffset 记录一个文档单元（PDF 页或 CSV 行）在正文中的起始字节偏移。
// Page 从 1 开始编号；0 保留为"未知"。
type PageOffset struct {
	Page  int
	Start int
}

// PageForOffset 返回覆盖给定字节偏移的单元编号。偏移表为空时返回 0。
func PageForOffset(pages []PageOffset, off int) int {
	page := 0
	for _, p := range pages {
		if p.Start > off {
			break
		}
		page = p.Page
	}
	return page
}

// Document 是抽取结果：纯文本正文加格式相关元数据。
// Text 为空但 err 为 nil 表示文档有效但不含文本（例如纯图片 PDF）。
type Document struct {
	Text     string
	Format   Format
	Metadata map[string]any

	// Pages 是单元偏移表，仅分页/分行格式填充。
	Pages []PageOffset
}

// Extractor 负责文件校验与按格式分发抽取。
type Extractor struct {
	maxFileSize int64
}

// New 创建 Extractor。maxFileSize <= 0 时使用 DefaultMaxFileSize。
func New(maxFileSize int64) *Extractor {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Extractor{maxFileSize: maxFileSize}
}

// Validate 在抽取前校验文件：存在、是常规文件、非空且不超过大小上限。
// 不满足时返回 ErrInvalidFile。
func (e *Extractor) Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.ErrInvalidFile.WithMessagef("file does not exist: %s", path)
		}
		return errors.ErrInvalidFile.WithCause(err)
	}
	if !info.Mode().IsRegular() {
		return errors.ErrInvalidFile.WithMessagef("not a regular file: %s", path)
	}
	if info.Size() == 0 {
		return errors.ErrInvalidFile.WithMessagef("file is empty: %s", path)
	}
	if info.Size() > e.maxFileSize {
		return errors.ErrInvalidFile.WithMessagef(
			"file size %.1fMB exceeds maximum %.1fMB",
			float64(info.Size())/(1<<20), float64(e.maxFileSize)/(1<<20))
	}
	return nil
}

// Extract 校验文件并按格式抽取文本。
// 元数据统一携带 file_size 与 extracted_at（RFC 3339）。
func (e *Extractor) Extract(path string) (*Document, error) {
	if err := e.Validate(path); err != nil {
		return nil, err
	}

	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	var doc *Document
	switch format {
	case FormatText:
		doc, err = extractText(path)
	case FormatMarkdown:
		doc, err = extractMarkdown(path)
	case FormatCSV:
		doc, err = extractCSV(path)
	case FormatPDF:
		doc, err = extractPDF(path)
	case FormatDOCX:
		doc, err = extractDOCX(path)
	default:
		return nil, errors.ErrUnsupportedFormat.WithMessagef("no extractor for format %q", format)
	}
	if err != nil {
		return nil, err
	}

	if info, statErr := os.Stat(path); statErr == nil {
		doc.Metadata["file_size"] = info.Size()
	}
	doc.Metadata["extracted_at"] = time.Now().UTC().Format(time.RFC3339)
	return doc, nil
}
