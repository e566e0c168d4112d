// Package models defines the domain types shared by the HTTP layer, the
// repositories, and the background processors.
package models

import "time"

// Book is a user-owned uploaded document. The processors only read it and
// flip the Sectioned flag once content sections have been generated.
type Book struct {
	ID          string    `json:"id" firestore:"id"`
	Title       string    `json:"title" firestore:"title"`
	ContentType string    `json:"type" firestore:"type"`
	UserID      string    `json:"user_id" firestore:"user_id"`
	CreatedAt   time.Time `json:"created_datetime" firestore:"created_datetime"`
	Uploaded    bool      `json:"is_uploaded" firestore:"is_uploaded"`
	Sectioned   bool      `json:"content_section_generated" firestore:"content_section_generated"`
}

// Page is a single extracted page of a book. Page numbers are 0-based and
// contiguous within a document; content is immutable once extracted.
type Page struct {
	Num     int    `json:"page_num" firestore:"page_num"`
	Content string `json:"content" firestore:"content"`
}

// ContentSection is a contiguous, topic-coherent page range of a book,
// proposed by the model during sectioning. StartPage and EndPage are
// inclusive and StartPage <= EndPage. Immutable once written.
type ContentSection struct {
	BookID    string `json:"book_id" firestore:"book_id"`
	UserID    string `json:"user_id" firestore:"user_id"`
	StartPage int    `json:"start_page" firestore:"start_page"`
	EndPage   int    `json:"end_page" firestore:"end_page"`
	Pages     []Page `json:"pages" firestore:"pages"`
}

// ProcessingStatus tracks the lifecycle of a distilled page. The transition
// is one-directional: IN_PROGRESS -> COMPLETED.
type ProcessingStatus string

const (
	StatusInProgress ProcessingStatus = "IN_PROGRESS"
	StatusCompleted  ProcessingStatus = "COMPLETED"
)

// ParagraphType distinguishes page-attributed core content from connective
// transition content.
type ParagraphType string

const (
	ParagraphCore       ParagraphType = "core"
	ParagraphTransition ParagraphType = "transition"
)

// Paragraph is one unit of distilled narrative. Core paragraphs carry the
// ordered source page numbers they draw from; transitions carry none.
type Paragraph struct {
	Type    ParagraphType `json:"type" firestore:"type"`
	Content string        `json:"content" firestore:"content"`
	Pages   []int         `json:"pages" firestore:"pages"`
}

// DistilledPage is the compressed narrative artifact for a page range,
// keyed by (BookID, StartPage, EndPage). CreatedAt is preserved across
// re-processing of the same key.
type DistilledPage struct {
	BookID     string           `json:"book_id" firestore:"book_id"`
	UserID     string           `json:"user_id" firestore:"user_id"`
	StartPage  int              `json:"start_page" firestore:"start_page"`
	EndPage    int              `json:"end_page" firestore:"end_page"`
	Paragraphs []Paragraph      `json:"paragraphs" firestore:"paragraphs"`
	CreatedAt  time.Time        `json:"created_datetime" firestore:"created_datetime"`
	Status     ProcessingStatus `json:"processing_status" firestore:"processing_status"`
}

// SectioningJob asks the sectioning processor to split one book into
// content sections. Jobs are identified by their fields, not by an ID;
// duplicate deliveries must be safe to re-process.
type SectioningJob struct {
	BookID string `json:"book_id"`
}

// DistillationJob asks the distillation processor to distill one page range.
type DistillationJob struct {
	BookID    string `json:"book_id"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
}
