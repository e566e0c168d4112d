package distill

import (
	"errors"
	"reflect"
	"testing"

	"github.com/bookdistill/bookdistill/internal/models"
)

func TestParse(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		got, err := Parse("A. (Core: 1,2) B. (Transition) C. (Core: 3)")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		want := []models.Paragraph{
			{Type: models.ParagraphCore, Content: "A.", Pages: []int{1, 2}},
			{Type: models.ParagraphTransition, Content: "B.", Pages: []int{}},
			{Type: models.ParagraphCore, Content: "C.", Pages: []int{3}},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Parse() = %+v, want %+v", got, want)
		}
	})

	t.Run("no markers is a structural failure", func(t *testing.T) {
		_, err := Parse("Just some prose without any provenance at all.")
		if !errors.Is(err, ErrNoMarkers) {
			t.Errorf("expected ErrNoMarkers, got %v", err)
		}
	})

	t.Run("content is re-terminated with one period", func(t *testing.T) {
		got, err := Parse("Sentence without dot (Core: 4) Another one... (Core: 5)")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if got[0].Content != "Sentence without dot." {
			t.Errorf("got %q", got[0].Content)
		}
		if got[1].Content != "Another one." {
			t.Errorf("got %q", got[1].Content)
		}
	})

	t.Run("duplicate pages are preserved at parse time", func(t *testing.T) {
		got, err := Parse("X. (Core: 2,2,3)")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if !reflect.DeepEqual(got[0].Pages, []int{2, 2, 3}) {
			t.Errorf("pages = %v, want [2 2 3]", got[0].Pages)
		}
	})

	t.Run("whitespace in page list is tolerated", func(t *testing.T) {
		got, err := Parse("X. (Core: 1, 2,  3)")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if !reflect.DeepEqual(got[0].Pages, []int{1, 2, 3}) {
			t.Errorf("pages = %v, want [1 2 3]", got[0].Pages)
		}
	})

	t.Run("malformed page list fails", func(t *testing.T) {
		if _, err := Parse("X. (Core: 1,,2)"); err == nil {
			t.Error("expected error for empty page entry")
		}
	})

	// Pins the salvage behavior for prose dangling after the final marker:
	// the trailing span inherits the last marker's type and pages.
	t.Run("trailing text after core marker", func(t *testing.T) {
		got, err := Parse("A. (Core: 1,2) trailing thought")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		want := []models.Paragraph{
			{Type: models.ParagraphCore, Content: "A.", Pages: []int{1, 2}},
			{Type: models.ParagraphCore, Content: "trailing thought", Pages: []int{1, 2}},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Parse() = %+v, want %+v", got, want)
		}
	})

	t.Run("trailing text after transition marker", func(t *testing.T) {
		got, err := Parse("A. (Core: 1) B. (Transition) and so it ends")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 paragraphs, got %d: %+v", len(got), got)
		}
		lastPara := got[2]
		if lastPara.Type != models.ParagraphTransition || lastPara.Content != "and so it ends" {
			t.Errorf("got %+v", lastPara)
		}
	})

	t.Run("spans may contain newlines", func(t *testing.T) {
		got, err := Parse("First line\ncontinues here. (Core: 7)")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if got[0].Content != "First line\ncontinues here." {
			t.Errorf("got %q", got[0].Content)
		}
	})
}
