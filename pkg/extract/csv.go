package extract

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/lontok/kala-rag/pkg/errors"
)

// extractCSV 将 CSV 的每一行展平为 " | " 分隔的文本行，跳过全空行。
// 偏移表记录每个保留行（按源文件中 1 起始的行号）在正文中的起始位置。
func extractCSV(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.ErrExtraction.WithMessagef("failed to open csv file: %s", path).WithCause(err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ErrExtraction.WithMessagef("failed to parse csv file: %s", path).WithCause(err)
	}

	columns := 0
	if len(rows) > 0 {
		columns = len(rows[0])
	}

	var sb strings.Builder
	var offsets []PageOffset
	for i, row := range rows {
		if !rowHasContent(row) {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		offsets = append(offsets, PageOffset{Page: i + 1, Start: sb.Len()})
		sb.WriteString(strings.Join(row, " | "))
	}

	return &Document{
		Text:   sb.String(),
		Format: FormatCSV,
		Metadata: map[string]any{
			"total_rows":    len(rows),
			"total_columns": columns,
		},
		Pages: offsets,
	}, nil
}

func rowHasContent(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return true
		}
	}
	return false
}
