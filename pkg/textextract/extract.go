package textextract

import (
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extract pulls plain text out of an uploaded document. Supported types:
// .pdf, .docx, .txt.
func Extract(data io.ReaderAt, size int64, fileType string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(fileType, ".")) {
	case "pdf":
		return extractPDF(data, size)
	case "docx":
		return extractDOCX(data, size)
	case "txt":
		return extractTXT(data, size)
	default:
		return "", fmt.Errorf("unsupported file type: %s", fileType)
	}
}

func SupportedTypes() []string {
	return []string{".pdf", ".docx", ".txt"}
}

func extractPDF(data io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(data, size)
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}

	return buf.String(), nil
}

var docxTagRe = regexp.MustCompile(`<[^>]+>`)

func extractDOCX(data io.ReaderAt, size int64) (string, error) {
	reader, err := zip.NewReader(data, size)
	if err != nil {
		return "", fmt.Errorf("open DOCX: %w", err)
	}

	for _, f := range reader.File {
		if filepath.Base(f.Name) != "document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}
		// Paragraph closes become line breaks, remaining tags are stripped.
		text := strings.ReplaceAll(string(content), "</w:p>", "\n")
		return docxTagRe.ReplaceAllString(text, ""), nil
	}

	return "", fmt.Errorf("document.xml not found in archive")
}

func extractTXT(data io.ReaderAt, size int64) (string, error) {
	buf := make([]byte, size)
	if _, err := data.ReadAt(buf, 0); err != nil && err != io.EOF {
		return "", fmt.Errorf("read TXT: %w", err)
	}
	return string(buf), nil
}
