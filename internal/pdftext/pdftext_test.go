package pdftext

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writePDF builds a minimal single-page PDF showing the given text, tracking
// object byte offsets so the cross-reference table is valid.
func writePDF(t *testing.T, path, text string) {
	t.Helper()

	var buf bytes.Buffer
	offsets := make([]int, 6)
	buf.WriteString("%PDF-1.4\n")

	writeObj := func(n int, body string) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}

	stream := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", text)
	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	writeObj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
		"/Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>")
	writeObj(4, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	writeObj(5, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))

	xrefOffset := buf.Len()
	buf.WriteString("xref\n0 6\n0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xrefOffset)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
}

func TestExtractPages(t *testing.T) {
	t.Run("extracts trimmed text with zero-based page numbers", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "book.pdf")
		writePDF(t, path, "Hello distilled world")

		pages, err := ExtractPages(path)
		if err != nil {
			t.Fatalf("ExtractPages() error = %v", err)
		}
		if len(pages) != 1 {
			t.Fatalf("expected 1 page, got %d", len(pages))
		}
		if pages[0].Num != 0 {
			t.Errorf("page num = %d, want 0", pages[0].Num)
		}
		if !strings.Contains(pages[0].Content, "Hello") {
			t.Errorf("page content = %q, want the drawn text", pages[0].Content)
		}
		if pages[0].Content != strings.TrimSpace(pages[0].Content) {
			t.Errorf("content not trimmed: %q", pages[0].Content)
		}
	})

	t.Run("rejects files that are not PDFs", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "junk.pdf")
		if err := os.WriteFile(path, []byte("definitely not a pdf"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := ExtractPages(path); err == nil {
			t.Error("expected an error for a non-PDF file")
		}
	})
}
