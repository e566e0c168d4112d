package distill

import (
	"reflect"
	"strings"
	"testing"

	"github.com/bookdistill/bookdistill/internal/models"
)

func corePara(length int, pages ...int) models.Paragraph {
	return models.Paragraph{
		Type:    models.ParagraphCore,
		Content: strings.Repeat("x", length),
		Pages:   pages,
	}
}

func TestMerge(t *testing.T) {
	t.Run("short adjacent cores merge, long core stays separate", func(t *testing.T) {
		in := []models.Paragraph{
			corePara(100, 1, 2),
			corePara(50, 2, 3),
			corePara(500, 4),
		}
		got := Merge(in)
		if len(got) != 2 {
			t.Fatalf("expected 2 paragraphs, got %d", len(got))
		}
		if l := len(got[0].Content); l != 151 {
			t.Errorf("merged content length = %d, want 151", l)
		}
		if !reflect.DeepEqual(got[0].Pages, []int{1, 2, 3}) {
			t.Errorf("merged pages = %v, want [1 2 3]", got[0].Pages)
		}
		if len(got[1].Content) != 500 {
			t.Errorf("long paragraph was modified, length %d", len(got[1].Content))
		}
	})

	t.Run("threshold-size core is emitted as-is even after a short run", func(t *testing.T) {
		in := []models.Paragraph{
			corePara(100, 1),
			corePara(MinParagraphLength, 2),
		}
		got := Merge(in)
		if len(got) != 2 {
			t.Fatalf("expected 2 paragraphs, got %d", len(got))
		}
		if len(got[1].Content) != MinParagraphLength {
			t.Errorf("dense paragraph was absorbed, length %d", len(got[1].Content))
		}
		if !reflect.DeepEqual(got[1].Pages, []int{2}) {
			t.Errorf("dense paragraph pages = %v, want [2]", got[1].Pages)
		}
	})

	t.Run("idempotent on already merged input", func(t *testing.T) {
		in := []models.Paragraph{
			corePara(450, 1),
			{Type: models.ParagraphTransition, Content: "bridge.", Pages: []int{}},
			corePara(600, 2, 3),
		}
		once := Merge(in)
		twice := Merge(once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("Merge is not idempotent: %+v vs %+v", once, twice)
		}
		if !reflect.DeepEqual(once, in) {
			t.Errorf("already dense input changed: %+v", once)
		}
	})

	t.Run("never merges across a transition", func(t *testing.T) {
		in := []models.Paragraph{
			corePara(10, 1),
			{Type: models.ParagraphTransition, Content: "bridge.", Pages: []int{}},
			corePara(10, 2),
		}
		got := Merge(in)
		if len(got) != 3 {
			t.Fatalf("expected 3 paragraphs, got %d: %+v", len(got), got)
		}
	})

	t.Run("merge run keeps folding until threshold", func(t *testing.T) {
		in := []models.Paragraph{
			corePara(100, 1),
			corePara(100, 2),
			corePara(100, 3),
			corePara(100, 4),
			corePara(100, 5),
		}
		got := Merge(in)
		// 100+1+100+1+100+1+100 = 403 >= 400, so the fifth starts a new run.
		if len(got) != 2 {
			t.Fatalf("expected 2 paragraphs, got %d", len(got))
		}
		if !reflect.DeepEqual(got[0].Pages, []int{1, 2, 3, 4}) {
			t.Errorf("pages = %v", got[0].Pages)
		}
	})

	t.Run("duplicate pages are dropped on merge", func(t *testing.T) {
		in := []models.Paragraph{
			corePara(10, 3, 1, 3),
			corePara(10, 1, 2),
		}
		got := Merge(in)
		if len(got) != 1 {
			t.Fatalf("expected 1 paragraph, got %d", len(got))
		}
		if !reflect.DeepEqual(got[0].Pages, []int{3, 1, 2}) {
			t.Errorf("pages = %v, want first-seen order [3 1 2]", got[0].Pages)
		}
	})

	t.Run("does not mutate its input", func(t *testing.T) {
		in := []models.Paragraph{corePara(10, 1), corePara(10, 2)}
		before := in[0].Content
		Merge(in)
		if in[0].Content != before {
			t.Error("input paragraph mutated")
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := Merge(nil); len(got) != 0 {
			t.Errorf("expected empty result, got %+v", got)
		}
	})
}
