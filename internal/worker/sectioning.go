package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bookdistill/bookdistill/internal/agents"
	"github.com/bookdistill/bookdistill/internal/batch"
	"github.com/bookdistill/bookdistill/internal/files"
	"github.com/bookdistill/bookdistill/internal/models"
	"github.com/bookdistill/bookdistill/internal/pdftext"
	"github.com/bookdistill/bookdistill/internal/store"
)

// Sectioning processes sectioning jobs: download the document, extract
// pages, batch them, ask the model for section boundaries per batch, persist
// all sections, then mark the book sectioned.
//
// The section write and the flag update are two separate writes, not a
// transaction. A crash between them leaves a sectioned-but-unflagged book
// that a redelivered job would section again; recovery is a manual re-run
// after cleanup. This is a documented gap.
type Sectioning struct {
	files     files.Store
	books     store.Books
	sections  store.Sections
	sectioner *agents.Sectioner
	extract   func(path string) ([]models.Page, error)
	limits    batch.Limits
	logger    *slog.Logger
}

// SectioningConfig wires a Sectioning processor.
type SectioningConfig struct {
	Files     files.Store
	Books     store.Books
	Sections  store.Sections
	Sectioner *agents.Sectioner
	Extract   func(path string) ([]models.Page, error) // defaults to pdftext.ExtractPages
	Limits    batch.Limits                             // zero value means defaults
	Logger    *slog.Logger
}

// NewSectioning creates the processor.
func NewSectioning(cfg SectioningConfig) *Sectioning {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limits := cfg.Limits
	if limits.MaxPages <= 0 && limits.MaxTokens <= 0 {
		limits = batch.DefaultLimits()
	}
	extract := cfg.Extract
	if extract == nil {
		extract = pdftext.ExtractPages
	}
	return &Sectioning{
		files:     cfg.Files,
		books:     cfg.Books,
		sections:  cfg.Sections,
		sectioner: cfg.Sectioner,
		extract:   extract,
		limits:    limits,
		logger:    logger.With("processor", "sectioning"),
	}
}

// Process handles one job. Re-delivered jobs for an already-sectioned book
// terminate successfully without side effects.
func (p *Sectioning) Process(ctx context.Context, job models.SectioningJob) error {
	tempDir, err := os.MkdirTemp("", "bookdistill-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	path := filepath.Join(tempDir, job.BookID)
	if err := p.files.Download(ctx, job.BookID, path); err != nil {
		return fmt.Errorf("download book %s: %w", job.BookID, err)
	}

	book, err := p.books.GetByID(ctx, job.BookID)
	if err != nil {
		return fmt.Errorf("get book %s: %w", job.BookID, err)
	}
	if book.Sectioned {
		p.logger.Info("content sections already generated", "book_id", job.BookID)
		return nil
	}

	if book.ContentType != "pdf" {
		return fmt.Errorf("unsupported content type %q for book %s", book.ContentType, job.BookID)
	}

	pages, err := p.extract(path)
	if err != nil {
		return fmt.Errorf("extract pages of book %s: %w", job.BookID, err)
	}

	var allSections []models.ContentSection
	for _, pageBatch := range batch.Split(pages, p.limits) {
		ranges, err := p.sectioner.ProposeSections(ctx, pageBatch)
		if err != nil {
			return fmt.Errorf("section batch %d-%d of book %s: %w",
				pageBatch[0].Num, pageBatch[len(pageBatch)-1].Num, job.BookID, err)
		}

		byNum := make(map[int]models.Page, len(pageBatch))
		for _, page := range pageBatch {
			byNum[page.Num] = page
		}

		for _, r := range ranges {
			section := models.ContentSection{
				BookID:    book.ID,
				UserID:    book.UserID,
				StartPage: r.StartPage,
				EndPage:   r.EndPage,
			}
			for num := r.StartPage; num <= r.EndPage; num++ {
				section.Pages = append(section.Pages, byNum[num])
			}
			allSections = append(allSections, section)
		}
	}

	// TODO: wrap the section write and the flag update in a batched atomic
	// write once the repository exposes one.
	if err := p.sections.SaveAll(ctx, allSections); err != nil {
		return fmt.Errorf("save sections of book %s: %w", job.BookID, err)
	}

	book.Sectioned = true
	if err := p.books.Save(ctx, book); err != nil {
		return fmt.Errorf("mark book %s sectioned: %w", job.BookID, err)
	}

	p.logger.Info("book sectioned", "book_id", job.BookID, "sections", len(allSections), "pages", len(pages))
	return nil
}
