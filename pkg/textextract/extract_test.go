package textextract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func TestExtractTXT(t *testing.T) {
	data := []byte("plain text content\nsecond line")
	got, err := Extract(bytes.NewReader(data), int64(len(data)), ".txt")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}
}

func TestExtractDOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	f.Write([]byte(`<w:document><w:body>` +
		`<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>` +
		`</w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := Extract(bytes.NewReader(buf.Bytes()), int64(buf.Len()), "docx")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(got, "First paragraph.") || !strings.Contains(got, "Second paragraph.") {
		t.Errorf("extracted text = %q", got)
	}
	if strings.Contains(got, "<w:") {
		t.Errorf("tags leaked into output: %q", got)
	}
	if !strings.Contains(got, "First paragraph.\n") {
		t.Errorf("paragraph break missing: %q", got)
	}
}

func TestExtractDOCXMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, _ := zw.Create("word/styles.xml")
	f.Write([]byte("<styles/>"))
	zw.Close()

	if _, err := Extract(bytes.NewReader(buf.Bytes()), int64(buf.Len()), ".docx"); err == nil {
		t.Fatal("expected error for archive without document.xml")
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	data := []byte("x")
	if _, err := Extract(bytes.NewReader(data), 1, ".exe"); err == nil {
		t.Fatal("unsupported type accepted")
	}
}
