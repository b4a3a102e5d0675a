package converter

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmtext "github.com/yuin/goldmark/text"

	"knowledge-rag/internal/models"
)

// ErrUnsupported reports a file extension no converter handles.
var ErrUnsupported = errors.New("unsupported file format")

// Result is the outcome of converting one file to plain text.
type Result struct {
	Text    string
	Title   string
	Quality string
	Success bool
}

var supported = map[string]bool{
	".pdf": true, ".docx": true, ".pptx": true,
	".xlsx": true, ".ods": true,
	".txt": true, ".md": true, ".markdown": true,
}

func CanConvert(path string) bool {
	return supported[strings.ToLower(filepath.Ext(path))]
}

func SupportedFormats() []string {
	formats := make([]string, 0, len(supported))
	for ext := range supported {
		formats = append(formats, ext)
	}
	return formats
}

// Convert reads a file and produces plain text plus a conversion-quality
// label. A failed conversion returns a Result with Quality "error" alongside
// the error, so callers can count it and move on.
func Convert(path string) (Result, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supported[ext] {
		return Result{Quality: models.QualityError}, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}

	var text string
	var err error
	switch ext {
	case ".pdf":
		text, err = convertPDF(path)
	case ".docx":
		text, err = convertDOCX(path)
	case ".pptx":
		text, err = convertPPTX(path)
	case ".xlsx":
		text, err = convertXLSX(path)
	case ".ods":
		text, err = convertODS(path)
	default:
		text, err = convertText(path)
	}
	if err != nil {
		return Result{Quality: models.QualityError}, fmt.Errorf("convert %s: %w", filepath.Base(path), err)
	}

	return Result{
		Text:    text,
		Title:   extractTitle(text),
		Quality: assessQuality(text, ext),
		Success: true,
	}, nil
}

func convertPDF(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		pageText, err := reader.Page(i).GetPlainText(nil)
		if err != nil {
			return "", err
		}
		text.WriteString(pageText)
		text.WriteString("\n\n")
	}
	return text.String(), nil
}

func convertDOCX(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var text strings.Builder
	for _, paragraph := range strings.Split(content, "\n") {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}
		text.WriteString(paragraph)
		text.WriteString("\n\n")
	}
	return text.String(), nil
}

func convertPPTX(path string) (string, error) {
	f, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slideText := extractTextFromXML(string(data))
		if strings.TrimSpace(slideText) != "" {
			text.WriteString(slideText)
			text.WriteString("\n\n")
		}
	}
	return text.String(), nil
}

func convertXLSX(path string) (string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, sheet := range f.Sheets {
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				cells = append(cells, cell.String())
			}
			text.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
		text.WriteString("\n")
	}
	return text.String(), nil
}

func convertODS(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheetName))
		for _, row := range rows {
			text.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}
		text.WriteString("\n")
	}
	return text.String(), nil
}

func convertText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func extractTextFromXML(xmlContent string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		if endIdx := strings.Index(part, "</a:t>"); endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return text.String()
}

// extractTitle returns the text of the first markdown heading, if any.
func extractTitle(content string) string {
	source := []byte(content)
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(gmtext.NewReader(source))

	var title string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			title = string(h.Text(source))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(title)
}

// assessQuality grades a conversion per format family: heading structure for
// documents, table markup for spreadsheets, plain length for text formats.
func assessQuality(content string, ext string) string {
	content = strings.TrimSpace(content)
	if len(content) < 10 {
		return models.QualityPoor
	}

	switch ext {
	case ".pdf", ".docx":
		switch {
		case strings.Contains(content, "# ") && strings.Contains(content, "## "):
			return models.QualityExcellent
		case strings.Contains(content, "# "):
			return models.QualityGood
		case len(content) > 200:
			return models.QualityFair
		default:
			return models.QualityPoor
		}
	case ".xlsx", ".ods":
		switch {
		case strings.Contains(content, "|") && strings.Contains(content, "## Sheet"):
			return models.QualityExcellent
		case strings.Contains(content, "|"):
			return models.QualityGood
		case len(content) > 100:
			return models.QualityFair
		default:
			return models.QualityPoor
		}
	case ".pptx":
		switch {
		case len(content) > 500:
			return models.QualityExcellent
		case len(content) > 100:
			return models.QualityGood
		default:
			return models.QualityFair
		}
	default: // text formats
		switch {
		case len(content) > 100:
			return models.QualityExcellent
		case len(content) > 50:
			return models.QualityGood
		default:
			return models.QualityFair
		}
	}
}
