package extract

import (
	"os"
	"strings"

	"github.com/lontok/kala-rag/pkg/errors"
)

// extractText 读取纯文本文件，记录总行数与非空行数。
func extractText(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ErrExtraction.WithMessagef("failed to read text file: %s", path).WithCause(err)
	}

	text := string(data)
	lines := strings.Split(text, "\n")
	nonEmpty := 0
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			nonEmpty++
		}
	}

	return &Document{
		Text:   text,
		Format: FormatText,
		Metadata: map[string]any{
			"total_lines":     len(lines),
			"non_empty_lines": nonEmpty,
		},
	}, nil
}

// extractMarkdown 在纯文本抽取之上统计标题行数。
func extractMarkdown(path string) (*Document, error) {
	doc, err := extractText(path)
	if err != nil {
		return nil, err
	}

	headers := 0
	for _, line := range strings.Split(doc.Text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			headers++
		}
	}

	doc.Format = FormatMarkdown
	doc.Metadata["header_count"] = headers
	return doc, nil
}
