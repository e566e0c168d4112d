// Package distill turns annotated model output into ordered, page-attributed
// paragraphs and densifies them for reading.
//
// The model emits prose with inline provenance markers: "(Core: 1,2,3)"
// closes the preceding span as page-attributed core content, "(Transition)"
// closes it as connective narrative. The tokenizer is deliberately tolerant
// of whitespace and truncated output, but input with no markers at all is a
// structural failure, never a single unattributed paragraph.
package distill

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bookdistill/bookdistill/internal/models"
)

// ErrNoMarkers is returned when the input contains no provenance markers.
var ErrNoMarkers = errors.New("no content markers found")

var (
	markerRe = regexp.MustCompile(`(?s)(.*?)(?:\(Core: ([0-9,\s]+)\)|\(Transition\))`)

	// lastMarkerRe matches the final marker in the text when no further
	// marker follows it, used to salvage trailing un-marked prose.
	lastMarkerRe = regexp.MustCompile(`\((Core: [0-9,\s]+|Transition)\)[^(]*$`)
)

// Parse scans text left to right. Each marker closes the preceding un-marked
// span into one paragraph: content is trimmed of surrounding whitespace and
// periods and re-terminated with exactly one period; core page lists keep
// their source order and duplicates (de-duplication happens during merging).
// Trailing text after the final marker is attributed to that marker's type,
// which recovers truncated-but-salvageable output.
func Parse(text string) ([]models.Paragraph, error) {
	matches := markerRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, ErrNoMarkers
	}

	var paragraphs []models.Paragraph
	pos := 0
	for _, m := range matches {
		content := strings.TrimSpace(text[m[2]:m[3]])
		if content == "" {
			continue
		}
		content = strings.Trim(content, " .\n") + "."
		pos = m[1]

		if m[4] >= 0 {
			pages, err := parsePageList(text[m[4]:m[5]])
			if err != nil {
				return nil, err
			}
			paragraphs = append(paragraphs, models.Paragraph{
				Type:    models.ParagraphCore,
				Content: content,
				Pages:   pages,
			})
		} else {
			paragraphs = append(paragraphs, models.Paragraph{
				Type:    models.ParagraphTransition,
				Content: content,
				Pages:   []int{},
			})
		}
	}

	// Salvage prose left dangling after the final marker. The trailing span
	// inherits that marker's type (and, for core, its pages). Kept as-is from
	// the original behavior, quirks included; see DESIGN.md.
	remaining := strings.TrimSpace(text[pos:])
	last := lastMarkerRe.FindStringSubmatch(text)
	if last != nil && remaining != "" {
		if rest, ok := strings.CutPrefix(last[1], "Core: "); ok {
			pages, err := parsePageList(rest)
			if err != nil {
				return nil, err
			}
			paragraphs = append(paragraphs, models.Paragraph{
				Type:    models.ParagraphCore,
				Content: remaining,
				Pages:   pages,
			})
		} else {
			paragraphs = append(paragraphs, models.Paragraph{
				Type:    models.ParagraphTransition,
				Content: remaining,
				Pages:   []int{},
			})
		}
	}

	return paragraphs, nil
}

func parsePageList(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	pages := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("malformed core page list %q: %w", s, err)
		}
		pages = append(pages, n)
	}
	return pages, nil
}
