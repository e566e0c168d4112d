package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/bookdistill/bookdistill/internal/models"
)

// Default collection names.
const (
	BooksCollection          = "books"
	SectionsCollection       = "content_sections"
	DistilledPagesCollection = "distilled_pages"
)

// NewFirestoreClient creates a Firestore client for the given project.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return client, nil
}

// FirestoreBooks implements Books on a Firestore collection.
type FirestoreBooks struct {
	collection *firestore.CollectionRef
}

// NewFirestoreBooks returns a Books adapter. collection may be empty to use
// the default.
func NewFirestoreBooks(client *firestore.Client, collection string) *FirestoreBooks {
	if collection == "" {
		collection = BooksCollection
	}
	return &FirestoreBooks{collection: client.Collection(collection)}
}

func (r *FirestoreBooks) Save(ctx context.Context, book *models.Book) error {
	if _, err := r.collection.Doc(book.ID).Set(ctx, book); err != nil {
		return fmt.Errorf("save book %s: %w", book.ID, err)
	}
	return nil
}

func (r *FirestoreBooks) Get(ctx context.Context, bookID, userID string) (*models.Book, error) {
	q := r.collection.
		Where("user_id", "==", userID).
		Where("id", "==", bookID).
		Limit(1)
	return firstBook(ctx, q)
}

func (r *FirestoreBooks) GetByID(ctx context.Context, bookID string) (*models.Book, error) {
	q := r.collection.Where("id", "==", bookID).Limit(1)
	return firstBook(ctx, q)
}

func (r *FirestoreBooks) List(ctx context.Context, userID string) ([]models.Book, error) {
	iter := r.collection.Where("user_id", "==", userID).Documents(ctx)
	defer iter.Stop()

	var books []models.Book
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}
		var b models.Book
		if err := doc.DataTo(&b); err != nil {
			return nil, fmt.Errorf("decode book: %w", err)
		}
		books = append(books, b)
	}
	return books, nil
}

func firstBook(ctx context.Context, q firestore.Query) (*models.Book, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query book: %w", err)
	}
	var b models.Book
	if err := doc.DataTo(&b); err != nil {
		return nil, fmt.Errorf("decode book: %w", err)
	}
	return &b, nil
}

// FirestoreSections implements Sections on a Firestore collection.
type FirestoreSections struct {
	client     *firestore.Client
	collection *firestore.CollectionRef
}

// NewFirestoreSections returns a Sections adapter.
func NewFirestoreSections(client *firestore.Client, collection string) *FirestoreSections {
	if collection == "" {
		collection = SectionsCollection
	}
	return &FirestoreSections{client: client, collection: client.Collection(collection)}
}

func (r *FirestoreSections) Save(ctx context.Context, section *models.ContentSection) error {
	if _, err := r.collection.NewDoc().Set(ctx, section); err != nil {
		return fmt.Errorf("save section %s %d-%d: %w", section.BookID, section.StartPage, section.EndPage, err)
	}
	return nil
}

// SaveAll writes every section through one BulkWriter flush. This is the
// "one logical write" of the sectioning step; it is not transactional with
// the book's sectioned flag.
func (r *FirestoreSections) SaveAll(ctx context.Context, sections []models.ContentSection) error {
	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(sections))
	for i := range sections {
		job, err := bw.Set(r.collection.NewDoc(), &sections[i])
		if err != nil {
			return fmt.Errorf("enqueue section write: %w", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("bulk write sections: %w", err)
		}
	}
	return nil
}

func (r *FirestoreSections) GetByBook(ctx context.Context, bookID string) ([]models.ContentSection, error) {
	iter := r.collection.Where("book_id", "==", bookID).Documents(ctx)
	defer iter.Stop()

	var sections []models.ContentSection
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list sections: %w", err)
		}
		var s models.ContentSection
		if err := doc.DataTo(&s); err != nil {
			return nil, fmt.Errorf("decode section: %w", err)
		}
		sections = append(sections, s)
	}
	return sections, nil
}

func (r *FirestoreSections) GetByPage(ctx context.Context, bookID string, pageNum int, userID string) (*models.ContentSection, error) {
	q := r.collection.Where("book_id", "==", bookID)
	if userID != "" {
		q = q.Where("user_id", "==", userID)
	}
	q = q.Where("start_page", "<=", pageNum).
		Where("end_page", ">=", pageNum).
		Limit(1)
	return firstSection(ctx, q)
}

func (r *FirestoreSections) GetByRange(ctx context.Context, bookID string, startPage, endPage int, userID string) (*models.ContentSection, error) {
	q := r.collection.Where("book_id", "==", bookID)
	if userID != "" {
		q = q.Where("user_id", "==", userID)
	}
	q = q.Where("start_page", "==", startPage).
		Where("end_page", "==", endPage).
		Limit(1)
	return firstSection(ctx, q)
}

func firstSection(ctx context.Context, q firestore.Query) (*models.ContentSection, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query section: %w", err)
	}
	var s models.ContentSection
	if err := doc.DataTo(&s); err != nil {
		return nil, fmt.Errorf("decode section: %w", err)
	}
	return &s, nil
}

// FirestoreDistilledPages implements DistilledPages on a Firestore collection.
type FirestoreDistilledPages struct {
	collection *firestore.CollectionRef
}

// NewFirestoreDistilledPages returns a DistilledPages adapter.
func NewFirestoreDistilledPages(client *firestore.Client, collection string) *FirestoreDistilledPages {
	if collection == "" {
		collection = DistilledPagesCollection
	}
	return &FirestoreDistilledPages{collection: client.Collection(collection)}
}

// Save overwrites the existing row for the page's key when present,
// otherwise creates a new document. Last writer wins.
func (r *FirestoreDistilledPages) Save(ctx context.Context, page *models.DistilledPage) error {
	iter := r.keyQuery(page.BookID, page.StartPage, page.EndPage, "").Documents(ctx)
	defer iter.Stop()

	ref := r.collection.NewDoc()
	doc, err := iter.Next()
	if err == nil {
		ref = doc.Ref
	} else if err != iterator.Done {
		return fmt.Errorf("query distilled page: %w", err)
	}

	if _, err := ref.Set(ctx, page); err != nil {
		return fmt.Errorf("save distilled page %s %d-%d: %w", page.BookID, page.StartPage, page.EndPage, err)
	}
	return nil
}

func (r *FirestoreDistilledPages) Get(ctx context.Context, bookID string, startPage, endPage int, userID string) (*models.DistilledPage, error) {
	iter := r.keyQuery(bookID, startPage, endPage, userID).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query distilled page: %w", err)
	}
	var p models.DistilledPage
	if err := doc.DataTo(&p); err != nil {
		return nil, fmt.Errorf("decode distilled page: %w", err)
	}
	return &p, nil
}

func (r *FirestoreDistilledPages) keyQuery(bookID string, startPage, endPage int, userID string) firestore.Query {
	q := r.collection.
		Where("book_id", "==", bookID).
		Where("start_page", "==", startPage).
		Where("end_page", "==", endPage)
	if userID != "" {
		q = q.Where("user_id", "==", userID)
	}
	return q.Limit(1)
}
