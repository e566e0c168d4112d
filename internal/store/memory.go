package store

import (
	"context"
	"sync"

	"github.com/bookdistill/bookdistill/internal/models"
)

// In-memory implementations backing the tests. They honor the same
// last-writer-wins semantics as the Firestore adapters and count writes so
// idempotency tests can assert "zero additional writes".

// MemoryBooks is an in-memory Books implementation.
type MemoryBooks struct {
	mu     sync.Mutex
	books  map[string]models.Book
	writes int
}

// NewMemoryBooks returns an empty in-memory book store.
func NewMemoryBooks() *MemoryBooks {
	return &MemoryBooks{books: make(map[string]models.Book)}
}

func (m *MemoryBooks) Save(ctx context.Context, book *models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[book.ID] = *book
	m.writes++
	return nil
}

func (m *MemoryBooks) Get(ctx context.Context, bookID, userID string) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[bookID]
	if !ok || b.UserID != userID {
		return nil, ErrNotFound
	}
	out := b
	return &out, nil
}

func (m *MemoryBooks) GetByID(ctx context.Context, bookID string) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[bookID]
	if !ok {
		return nil, ErrNotFound
	}
	out := b
	return &out, nil
}

func (m *MemoryBooks) List(ctx context.Context, userID string) ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var books []models.Book
	for _, b := range m.books {
		if b.UserID == userID {
			books = append(books, b)
		}
	}
	return books, nil
}

// Writes returns the number of Save calls seen.
func (m *MemoryBooks) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// MemorySections is an in-memory Sections implementation.
type MemorySections struct {
	mu       sync.Mutex
	sections []models.ContentSection
	writes   int
}

// NewMemorySections returns an empty in-memory section store.
func NewMemorySections() *MemorySections {
	return &MemorySections{}
}

func (m *MemorySections) Save(ctx context.Context, section *models.ContentSection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sections = append(m.sections, *section)
	m.writes++
	return nil
}

func (m *MemorySections) SaveAll(ctx context.Context, sections []models.ContentSection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sections = append(m.sections, sections...)
	m.writes++
	return nil
}

func (m *MemorySections) GetByBook(ctx context.Context, bookID string) ([]models.ContentSection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ContentSection
	for _, s := range m.sections {
		if s.BookID == bookID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemorySections) GetByPage(ctx context.Context, bookID string, pageNum int, userID string) (*models.ContentSection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sections {
		if s.BookID != bookID || (userID != "" && s.UserID != userID) {
			continue
		}
		if s.StartPage <= pageNum && pageNum <= s.EndPage {
			out := s
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemorySections) GetByRange(ctx context.Context, bookID string, startPage, endPage int, userID string) (*models.ContentSection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sections {
		if s.BookID != bookID || (userID != "" && s.UserID != userID) {
			continue
		}
		if s.StartPage == startPage && s.EndPage == endPage {
			out := s
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// Writes returns the number of Save/SaveAll calls seen.
func (m *MemorySections) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

type distilledKey struct {
	bookID     string
	start, end int
}

// MemoryDistilledPages is an in-memory DistilledPages implementation.
type MemoryDistilledPages struct {
	mu     sync.Mutex
	pages  map[distilledKey]models.DistilledPage
	writes int
}

// NewMemoryDistilledPages returns an empty in-memory distilled-page store.
func NewMemoryDistilledPages() *MemoryDistilledPages {
	return &MemoryDistilledPages{pages: make(map[distilledKey]models.DistilledPage)}
}

func (m *MemoryDistilledPages) Save(ctx context.Context, page *models.DistilledPage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[distilledKey{page.BookID, page.StartPage, page.EndPage}] = *page
	m.writes++
	return nil
}

func (m *MemoryDistilledPages) Get(ctx context.Context, bookID string, startPage, endPage int, userID string) (*models.DistilledPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pages[distilledKey{bookID, startPage, endPage}]
	if !ok || (userID != "" && p.UserID != userID) {
		return nil, ErrNotFound
	}
	out := p
	return &out, nil
}

// Writes returns the number of Save calls seen.
func (m *MemoryDistilledPages) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
