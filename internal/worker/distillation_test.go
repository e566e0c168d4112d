package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bookdistill/bookdistill/internal/agents"
	"github.com/bookdistill/bookdistill/internal/llm"
	"github.com/bookdistill/bookdistill/internal/models"
	"github.com/bookdistill/bookdistill/internal/store"
)

func seedSection(t *testing.T, sections store.Sections) {
	t.Helper()
	err := sections.Save(context.Background(), &models.ContentSection{
		BookID:    "book-1",
		UserID:    "user-1",
		StartPage: 3,
		EndPage:   5,
		Pages: []models.Page{
			{Num: 3, Content: "First part of the argument."},
			{Num: 4, Content: "The argument continues."},
			{Num: 5, Content: "And concludes."},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestDistillationProcess(t *testing.T) {
	ctx := context.Background()
	job := models.DistillationJob{BookID: "book-1", StartPage: 3, EndPage: 5}

	t.Run("distills a section and persists the completed page", func(t *testing.T) {
		sections := store.NewMemorySections()
		distilled := store.NewMemoryDistilledPages()
		seedSection(t, sections)
		mock := llm.NewMockClient(`{"result": "The argument, stated at length so it stands alone as a paragraph well past the merge threshold for short fragments, repeated and elaborated until the point is unmistakable and the reader needs no surrounding context, restated once more for weight, and then once again so that the single core paragraph carries the full burden of the original pages without leaning on any transition around it, which is the whole idea. (Core: 3, 4) A short bridge. (Transition)"}`)

		p := NewDistillation(DistillationConfig{
			Sections:  sections,
			Distilled: distilled,
			Distiller: agents.NewDistiller(mock, ""),
		})

		if err := p.Process(ctx, job); err != nil {
			t.Fatalf("Process() error = %v", err)
		}

		page, err := distilled.Get(ctx, "book-1", 3, 5, "")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if page.Status != models.StatusCompleted {
			t.Errorf("status = %q, want %q", page.Status, models.StatusCompleted)
		}
		if page.UserID != "user-1" {
			t.Errorf("user = %q", page.UserID)
		}
		if len(page.Paragraphs) == 0 {
			t.Fatal("expected paragraphs")
		}
		if page.Paragraphs[0].Type != models.ParagraphCore {
			t.Errorf("first paragraph type = %q", page.Paragraphs[0].Type)
		}
		// First save is the IN_PROGRESS marker, second the result.
		if distilled.Writes() != 2 {
			t.Errorf("writes = %d, want 2", distilled.Writes())
		}
	})

	t.Run("completed page short-circuits without a model call", func(t *testing.T) {
		sections := store.NewMemorySections()
		distilled := store.NewMemoryDistilledPages()
		seedSection(t, sections)
		err := distilled.Save(ctx, &models.DistilledPage{
			BookID: "book-1", UserID: "user-1", StartPage: 3, EndPage: 5,
			Status: models.StatusCompleted,
		})
		if err != nil {
			t.Fatal(err)
		}
		writes := distilled.Writes()
		mock := llm.NewMockClient()

		p := NewDistillation(DistillationConfig{
			Sections:  sections,
			Distilled: distilled,
			Distiller: agents.NewDistiller(mock, ""),
		})

		if err := p.Process(ctx, job); err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if mock.CallCount() != 0 {
			t.Errorf("expected zero model calls, got %d", mock.CallCount())
		}
		if distilled.Writes() != writes {
			t.Errorf("expected zero additional writes, got %d", distilled.Writes()-writes)
		}
	})

	t.Run("missing section is a precondition failure", func(t *testing.T) {
		distilled := store.NewMemoryDistilledPages()
		p := NewDistillation(DistillationConfig{
			Sections:  store.NewMemorySections(),
			Distilled: distilled,
			Distiller: agents.NewDistiller(llm.NewMockClient(), ""),
		})

		err := p.Process(ctx, job)
		if !errors.Is(err, ErrSectionNotFound) {
			t.Fatalf("expected ErrSectionNotFound, got %v", err)
		}
		if distilled.Writes() != 0 {
			t.Errorf("expected no distilled page row, got %d writes", distilled.Writes())
		}
	})

	t.Run("retry of a stuck page keeps its creation time", func(t *testing.T) {
		sections := store.NewMemorySections()
		distilled := store.NewMemoryDistilledPages()
		seedSection(t, sections)
		created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		err := distilled.Save(ctx, &models.DistilledPage{
			BookID: "book-1", UserID: "user-1", StartPage: 3, EndPage: 5,
			CreatedAt: created, Status: models.StatusInProgress,
		})
		if err != nil {
			t.Fatal(err)
		}
		mock := llm.NewMockClient(`{"result": "A core paragraph. (Core: 3)"}`)

		p := NewDistillation(DistillationConfig{
			Sections:  sections,
			Distilled: distilled,
			Distiller: agents.NewDistiller(mock, ""),
			Now:       func() time.Time { return created.Add(time.Hour) },
		})

		if err := p.Process(ctx, job); err != nil {
			t.Fatalf("Process() error = %v", err)
		}

		page, err := distilled.Get(ctx, "book-1", 3, 5, "")
		if err != nil {
			t.Fatal(err)
		}
		if page.Status != models.StatusCompleted {
			t.Errorf("status = %q", page.Status)
		}
		if !page.CreatedAt.Equal(created) {
			t.Errorf("created at = %v, want %v", page.CreatedAt, created)
		}
	})

	t.Run("model failure leaves the page in progress", func(t *testing.T) {
		sections := store.NewMemorySections()
		distilled := store.NewMemoryDistilledPages()
		seedSection(t, sections)
		mock := llm.NewMockClient(`{"result": "no markers in here"}`)

		p := NewDistillation(DistillationConfig{
			Sections:  sections,
			Distilled: distilled,
			Distiller: agents.NewDistiller(mock, ""),
		})

		if err := p.Process(ctx, job); err == nil {
			t.Fatal("expected error")
		}

		page, err := distilled.Get(ctx, "book-1", 3, 5, "")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if page.Status != models.StatusInProgress {
			t.Errorf("status = %q, want %q", page.Status, models.StatusInProgress)
		}
	})
}
