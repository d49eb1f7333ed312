package extract

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strings"

	"github.com/lontok/kala-rag/pkg/errors"
)

// documentXML 映射 word/document.xml 的正文结构。
// 只匹配 body 的直接子节点，表格单元格内的段落由 tableCellXML 单独匹配。
type documentXML struct {
	Body struct {
		Paragraphs []paragraphXML `xml:"p"`
		Tables     []tableXML     `xml:"tbl"`
	} `xml:"body"`
}

type paragraphXML struct {
	Runs []runXML `xml:"r"`
}

type runXML struct {
	Text []textXML `xml:"t"`
}

type textXML struct {
	Content string `xml:",chardata"`
}

type tableXML struct {
	Rows []tableRowXML `xml:"tr"`
}

type tableRowXML struct {
	Cells []tableCellXML `xml:"tc"`
}

type tableCellXML struct {
	Paragraphs []paragraphXML `xml:"p"`
}

// extractDOCX 抽取 DOCX 文档：先段落后表格，段落间以空行分隔，
// 表格每行展平为 " | " 分隔的一行文本。
func extractDOCX(path string) (*Document, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.ErrExtraction.WithMessagef("failed to open docx file: %s", path).WithCause(err)
	}
	defer archive.Close()

	var content []byte
	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, errors.ErrExtraction.WithMessagef("failed to open docx body: %s", path).WithCause(err)
		}
		content, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.ErrExtraction.WithMessagef("failed to read docx body: %s", path).WithCause(err)
		}
		break
	}
	if content == nil {
		return nil, errors.ErrExtraction.WithMessagef("docx archive missing word/document.xml: %s", path)
	}

	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, errors.ErrExtraction.WithMessagef("failed to parse docx body: %s", path).WithCause(err)
	}

	var parts []string

	paragraphCount := 0
	for _, para := range doc.Body.Paragraphs {
		text := paragraphText(para)
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, text)
		paragraphCount++
	}

	tableCount := 0
	for _, table := range doc.Body.Tables {
		var rows []string
		for _, row := range table.Rows {
			cells := make([]string, 0, len(row.Cells))
			hasContent := false
			for _, cell := range row.Cells {
				text := strings.TrimSpace(cellText(cell))
				if text != "" {
					hasContent = true
				}
				cells = append(cells, text)
			}
			if hasContent {
				rows = append(rows, strings.Join(cells, " | "))
			}
		}
		if len(rows) > 0 {
			parts = append(parts, strings.Join(rows, "\n"))
			tableCount++
		}
	}

	return &Document{
		Text:   strings.Join(parts, "\n\n"),
		Format: FormatDOCX,
		Metadata: map[string]any{
			"paragraph_count": paragraphCount,
			"table_count":     tableCount,
		},
	}, nil
}

func paragraphText(para paragraphXML) string {
	var sb strings.Builder
	for _, run := range para.Runs {
		for _, t := range run.Text {
			sb.WriteString(t.Content)
		}
	}
	return sb.String()
}

func cellText(cell tableCellXML) string {
	var sb strings.Builder
	for i, para := range cell.Paragraphs {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(paragraphText(para))
	}
	return sb.String()
}
