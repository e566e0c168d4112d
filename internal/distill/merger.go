package distill

import "github.com/bookdistill/bookdistill/internal/models"

// MinParagraphLength is the content length below which adjacent core
// paragraphs are folded together. Short fragmentary model output otherwise
// yields choppy, overly granular narratives.
const MinParagraphLength = 400

// Merge coalesces adjacent core paragraphs while the running paragraph's
// content is shorter than MinParagraphLength. Contents are joined with a
// single space; page lists are unioned preserving first-seen order with
// duplicates removed. Transition paragraphs, and core paragraphs already at
// the threshold, pass through unchanged and reset the run. Order is never
// changed and merging never crosses a transition boundary, so the merged
// list reads in the model's original emission order. Merging an
// already-merged list is a no-op.
func Merge(paragraphs []models.Paragraph) []models.Paragraph {
	var merged []models.Paragraph
	for _, p := range paragraphs {
		if len(merged) == 0 {
			merged = append(merged, p)
			continue
		}

		last := &merged[len(merged)-1]
		if len(last.Content) < MinParagraphLength &&
			len(p.Content) < MinParagraphLength &&
			last.Type == models.ParagraphCore &&
			p.Type == models.ParagraphCore {
			*last = models.Paragraph{
				Type:    models.ParagraphCore,
				Content: last.Content + " " + p.Content,
				Pages:   unionPages(last.Pages, p.Pages),
			}
			continue
		}

		merged = append(merged, p)
	}
	return merged
}

// unionPages concatenates two page lists, keeping first occurrence order and
// dropping duplicates.
func unionPages(a, b []int) []int {
	seen := make(map[int]struct{}, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, n := range a {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	for _, n := range b {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}
