package batch

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bookdistill/bookdistill/internal/models"
)

func makePages(n, contentLen int) []models.Page {
	pages := make([]models.Page, n)
	for i := range pages {
		pages[i] = models.Page{Num: i, Content: strings.Repeat("a", contentLen)}
	}
	return pages
}

func TestSplit(t *testing.T) {
	t.Run("empty input yields no batches", func(t *testing.T) {
		if got := Split(nil, DefaultLimits()); len(got) != 0 {
			t.Errorf("expected no batches, got %d", len(got))
		}
	})

	t.Run("single short page yields one batch", func(t *testing.T) {
		batches := Split(makePages(1, 10), DefaultLimits())
		if len(batches) != 1 || len(batches[0]) != 1 {
			t.Fatalf("expected one batch of one page, got %v", batches)
		}
	})

	t.Run("closes on page count", func(t *testing.T) {
		batches := Split(makePages(7, 10), Limits{MaxPages: 3, MaxTokens: 1 << 20})
		want := []int{3, 3, 1}
		if len(batches) != len(want) {
			t.Fatalf("expected %d batches, got %d", len(want), len(batches))
		}
		for i, n := range want {
			if len(batches[i]) != n {
				t.Errorf("batch %d: expected %d pages, got %d", i, n, len(batches[i]))
			}
		}
	})

	t.Run("closes on token budget", func(t *testing.T) {
		// 400 chars per page = 100 approx tokens; budget 250 closes after 3 pages.
		batches := Split(makePages(5, 400), Limits{MaxPages: 50, MaxTokens: 250})
		want := []int{3, 2}
		if len(batches) != len(want) {
			t.Fatalf("expected %d batches, got %d", len(want), len(batches))
		}
		for i, n := range want {
			if len(batches[i]) != n {
				t.Errorf("batch %d: expected %d pages, got %d", i, n, len(batches[i]))
			}
		}
	})

	t.Run("oversized page forms its own batch", func(t *testing.T) {
		pages := []models.Page{
			{Num: 0, Content: strings.Repeat("a", 100000)},
			{Num: 1, Content: "b"},
		}
		batches := Split(pages, Limits{MaxPages: 50, MaxTokens: 100})
		if len(batches) != 2 {
			t.Fatalf("expected 2 batches, got %d", len(batches))
		}
	})

	t.Run("covers every page exactly once in order", func(t *testing.T) {
		for _, n := range []int{1, 2, 10, 49, 50, 51, 137} {
			t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
				batches := Split(makePages(n, 200), Limits{MaxPages: 7, MaxTokens: 300})
				next := 0
				for _, b := range batches {
					if len(b) == 0 {
						t.Fatal("empty batch emitted")
					}
					for _, p := range b {
						if p.Num != next {
							t.Fatalf("expected page %d, got %d", next, p.Num)
						}
						next++
					}
				}
				if next != n {
					t.Errorf("covered %d pages, expected %d", next, n)
				}
			})
		}
	})

	t.Run("no batch except the last exceeds the page limit", func(t *testing.T) {
		batches := Split(makePages(23, 10), Limits{MaxPages: 5, MaxTokens: 1 << 20})
		for i, b := range batches {
			if len(b) > 5 {
				t.Errorf("batch %d has %d pages, limit 5", i, len(b))
			}
		}
	})
}
