// Package batch groups ordered book pages into bounded batches for model
// calls. Context windows are finite, so the sectioning prompt sees at most
// one batch of verbatim page text at a time. Section boundaries proposed by
// the model are local to a batch and are not reconciled across batch seams;
// that is an accepted approximation, not a bug.
package batch

import "github.com/bookdistill/bookdistill/internal/models"

// Default limits for sectioning batches.
const (
	DefaultMaxPages  = 50
	DefaultMaxTokens = 20000
)

// Limits bounds a single batch by page count and approximate token volume.
type Limits struct {
	MaxPages  int
	MaxTokens int
}

// DefaultLimits returns the standard sectioning limits.
func DefaultLimits() Limits {
	return Limits{MaxPages: DefaultMaxPages, MaxTokens: DefaultMaxTokens}
}

// ApproxTokens estimates the token count of a string as len/4.
func ApproxTokens(s string) int {
	return len(s) / 4
}

// Split partitions pages into consecutive, non-overlapping batches that
// preserve page order. A batch is closed once it holds MaxPages pages or its
// approximate token count reaches MaxTokens. Any non-empty input yields at
// least one batch; the final batch may be smaller than both limits, and a
// single oversized page still forms a batch on its own.
func Split(pages []models.Page, lim Limits) [][]models.Page {
	if lim.MaxPages <= 0 {
		lim.MaxPages = DefaultMaxPages
	}
	if lim.MaxTokens <= 0 {
		lim.MaxTokens = DefaultMaxTokens
	}

	var batches [][]models.Page
	var current []models.Page
	tokens := 0

	for _, page := range pages {
		current = append(current, page)
		tokens += ApproxTokens(page.Content)

		if len(current) == lim.MaxPages || tokens >= lim.MaxTokens {
			batches = append(batches, current)
			current = nil
			tokens = 0
		}
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches
}
