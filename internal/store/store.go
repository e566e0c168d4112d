// Package store defines the persistence interfaces the core depends on and
// their Firestore adapters. The processors and the HTTP layer only see the
// interfaces; everything Firestore-specific stays in this package.
//
// Writes follow a last-writer-wins policy with no optimistic-concurrency
// check. The processors' status short-circuits make redelivered jobs safe;
// true concurrent first processing of one key is a known narrow race.
package store

import (
	"context"
	"errors"

	"github.com/bookdistill/bookdistill/internal/models"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Books persists book records.
type Books interface {
	// Save creates or overwrites a book.
	Save(ctx context.Context, book *models.Book) error

	// Get returns the book only if it belongs to userID.
	Get(ctx context.Context, bookID, userID string) (*models.Book, error)

	// GetByID returns the book regardless of owner. Used by the processors,
	// which act on behalf of the system.
	GetByID(ctx context.Context, bookID string) (*models.Book, error)

	// List returns all books owned by userID.
	List(ctx context.Context, userID string) ([]models.Book, error)
}

// Sections persists content sections. userID filters, where accepted, are
// optional: empty string skips the ownership check.
type Sections interface {
	// Save creates or overwrites one section.
	Save(ctx context.Context, section *models.ContentSection) error

	// SaveAll persists all sections in one logical write.
	SaveAll(ctx context.Context, sections []models.ContentSection) error

	// GetByBook returns all sections of a book.
	GetByBook(ctx context.Context, bookID string) ([]models.ContentSection, error)

	// GetByPage returns the section whose range contains pageNum.
	GetByPage(ctx context.Context, bookID string, pageNum int, userID string) (*models.ContentSection, error)

	// GetByRange returns the section with exactly these bounds.
	GetByRange(ctx context.Context, bookID string, startPage, endPage int, userID string) (*models.ContentSection, error)
}

// DistilledPages persists distilled pages keyed by (book, start, end).
type DistilledPages interface {
	// Save creates or overwrites the row for the page's key.
	Save(ctx context.Context, page *models.DistilledPage) error

	// Get returns the row for the key. userID is optional as in Sections.
	Get(ctx context.Context, bookID string, startPage, endPage int, userID string) (*models.DistilledPage, error)
}
