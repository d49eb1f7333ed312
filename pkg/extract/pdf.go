package extract

import (
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/lontok/kala-rag/pkg/errors"
)

// extractPDF 逐页抽取 PDF 文本，页间以空行分隔。
// 无文本的页（如纯图片页）被跳过但仍计入 pages 元数据；
// 偏移表记录每个有文本的页在正文中的起始位置。
func extractPDF(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, errors.ErrExtraction.WithMessagef("failed to open pdf file: %s", path).WithCause(err)
	}
	defer f.Close()

	total := r.NumPage()

	var sb strings.Builder
	var offsets []PageOffset
	pageInfo := make([]map[string]any, 0, total)

	for num := 1; num <= total; num++ {
		page := r.Page(num)
		if page.V.IsNull() {
			pageInfo = append(pageInfo, map[string]any{"page_number": num, "has_text": false})
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, errors.ErrExtraction.WithMessagef(
				"failed to extract text from pdf page %d: %s", num, path).WithCause(err)
		}

		if strings.TrimSpace(text) == "" {
			pageInfo = append(pageInfo, map[string]any{"page_number": num, "has_text": false})
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		offsets = append(offsets, PageOffset{Page: num, Start: sb.Len()})
		sb.WriteString(text)
		pageInfo = append(pageInfo, map[string]any{"page_number": num, "has_text": true})
	}

	return &Document{
		Text:   sb.String(),
		Format: FormatPDF,
		Metadata: map[string]any{
			"total_pages": total,
			"pages":       pageInfo,
		},
		Pages: offsets,
	}, nil
}
