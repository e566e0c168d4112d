// Package pdftext extracts per-page plain text from PDF documents.
// Uploaded files are untrusted, so the document is validated with pdfcpu
// before text extraction.
package pdftext

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/bookdistill/bookdistill/internal/models"
)

// ExtractPages returns one Page per document page, 0-based and contiguous.
// Text is trimmed of surrounding whitespace; pages without extractable text
// are kept as empty pages so page numbers stay aligned with the source.
func ExtractPages(path string) ([]models.Page, error) {
	if err := api.ValidateFile(path, nil); err != nil {
		return nil, fmt.Errorf("validate pdf %s: %w", path, err)
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	pageCount := reader.NumPage()
	pages := make([]models.Page, 0, pageCount)
	// Font charmaps are cached across pages so repeated fonts are parsed once.
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)

		content := ""
		if !page.V.IsNull() {
			for _, name := range page.Fonts() {
				if _, ok := fonts[name]; !ok {
					f := page.Font(name)
					fonts[name] = &f
				}
			}
			text, err := page.GetPlainText(fonts)
			if err != nil {
				return nil, fmt.Errorf("extract text from page %d: %w", i, err)
			}
			content = strings.TrimSpace(text)
		}

		pages = append(pages, models.Page{Num: i - 1, Content: content})
	}

	return pages, nil
}
