package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookdistill/bookdistill/internal/agents"
	"github.com/bookdistill/bookdistill/internal/models"
	"github.com/bookdistill/bookdistill/internal/store"
)

// ErrSectionNotFound is returned when a distillation job names a page range
// no content section covers. That is a precondition violation by the
// producer (distillation requested before sectioning finished), not a
// transient failure.
var ErrSectionNotFound = errors.New("no content section for requested range")

// Distillation processes distillation jobs: fetch the covering section,
// mark the distilled page IN_PROGRESS, distill via the model, persist the
// COMPLETED result.
//
// A failure after the IN_PROGRESS write leaves the row stuck there; a
// redelivered job retries from scratch, preserving the original creation
// time. There is no timeout-based failure state.
type Distillation struct {
	sections  store.Sections
	distilled store.DistilledPages
	distiller *agents.Distiller
	logger    *slog.Logger
	now       func() time.Time
}

// DistillationConfig wires a Distillation processor.
type DistillationConfig struct {
	Sections  store.Sections
	Distilled store.DistilledPages
	Distiller *agents.Distiller
	Logger    *slog.Logger
	Now       func() time.Time // test hook, defaults to time.Now
}

// NewDistillation creates the processor.
func NewDistillation(cfg DistillationConfig) *Distillation {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Distillation{
		sections:  cfg.Sections,
		distilled: cfg.Distilled,
		distiller: cfg.Distiller,
		logger:    logger.With("processor", "distillation"),
		now:       now,
	}
}

// Process handles one job. A job whose distilled page is already COMPLETED
// is a no-op; COMPLETED never goes back to IN_PROGRESS.
func (p *Distillation) Process(ctx context.Context, job models.DistillationJob) error {
	existing, err := p.distilled.Get(ctx, job.BookID, job.StartPage, job.EndPage, "")
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("get distilled page: %w", err)
	}
	if existing != nil && existing.Status == models.StatusCompleted {
		p.logger.Info("distilled page already completed",
			"book_id", job.BookID, "start_page", job.StartPage, "end_page", job.EndPage)
		return nil
	}

	section, err := p.sections.GetByRange(ctx, job.BookID, job.StartPage, job.EndPage, "")
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: book %s pages %d-%d", ErrSectionNotFound, job.BookID, job.StartPage, job.EndPage)
	}
	if err != nil {
		return fmt.Errorf("get content section: %w", err)
	}

	// Re-processing a stuck IN_PROGRESS row keeps its original creation
	// time so retries stay auditable.
	page := &models.DistilledPage{
		BookID:     job.BookID,
		UserID:     section.UserID,
		StartPage:  job.StartPage,
		EndPage:    job.EndPage,
		Paragraphs: []models.Paragraph{},
		CreatedAt:  p.now().UTC(),
		Status:     models.StatusInProgress,
	}
	if existing != nil {
		page.UserID = existing.UserID
		page.CreatedAt = existing.CreatedAt
	}
	if err := p.distilled.Save(ctx, page); err != nil {
		return fmt.Errorf("save in-progress distilled page: %w", err)
	}

	startPage, endPage, paragraphs, err := p.distiller.Distill(ctx, section.Pages)
	if err != nil {
		return fmt.Errorf("distill book %s pages %d-%d: %w", job.BookID, job.StartPage, job.EndPage, err)
	}

	// The persisted bounds are the ones observed in the input pages; they
	// may differ from the request when sections don't align exactly with
	// the asked-for range. Accepted, not corrected.
	completed := &models.DistilledPage{
		BookID:     page.BookID,
		UserID:     page.UserID,
		StartPage:  startPage,
		EndPage:    endPage,
		Paragraphs: paragraphs,
		CreatedAt:  page.CreatedAt,
		Status:     models.StatusCompleted,
	}
	if err := p.distilled.Save(ctx, completed); err != nil {
		return fmt.Errorf("save completed distilled page: %w", err)
	}

	p.logger.Info("page range distilled",
		"book_id", job.BookID, "start_page", startPage, "end_page", endPage,
		"paragraphs", len(paragraphs))
	return nil
}
