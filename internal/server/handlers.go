package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bookdistill/bookdistill/internal/models"
	"github.com/bookdistill/bookdistill/internal/store"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

type createBookRequest struct {
	Title       string `json:"title"`
	ContentType string `json:"type"`
}

type createBookResponse struct {
	Book      models.Book `json:"book"`
	UploadURL string      `json:"upload_url"`
}

// handleCreateBook registers a book and hands back a signed URL the client
// uploads the document to. The book is not processable until the client
// confirms the upload.
func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.ContentType == "" {
		respondError(w, http.StatusBadRequest, "title and type are required")
		return
	}

	book := &models.Book{
		ID:          s.newID(),
		Title:       req.Title,
		ContentType: req.ContentType,
		UserID:      UserID(r.Context()),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.books.Save(r.Context(), book); err != nil {
		s.logger.Error("save book", "error", err)
		respondError(w, http.StatusInternalServerError, "could not create book")
		return
	}

	uploadURL, err := s.files.UploadURL(r.Context(), book.ID)
	if err != nil {
		s.logger.Error("sign upload url", "book_id", book.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "could not create upload url")
		return
	}

	respondJSON(w, http.StatusCreated, createBookResponse{Book: *book, UploadURL: uploadURL})
}

// handleBookUploaded confirms the client finished uploading and enqueues
// the sectioning job. Confirming twice is an error; the first confirmation
// already enqueued the work.
func (s *Server) handleBookUploaded(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	book, err := s.books.Get(r.Context(), bookID, UserID(r.Context()))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "book not found")
		return
	}
	if err != nil {
		s.logger.Error("get book", "book_id", bookID, "error", err)
		respondError(w, http.StatusInternalServerError, "could not load book")
		return
	}
	if book.Uploaded {
		respondError(w, http.StatusBadRequest, "book already uploaded")
		return
	}

	exists, err := s.files.Exists(r.Context(), book.ID)
	if err != nil {
		s.logger.Error("check upload", "book_id", bookID, "error", err)
		respondError(w, http.StatusInternalServerError, "could not verify upload")
		return
	}
	if !exists {
		respondError(w, http.StatusBadRequest, "no uploaded file for book")
		return
	}

	book.Uploaded = true
	if err := s.books.Save(r.Context(), book); err != nil {
		s.logger.Error("save book", "book_id", bookID, "error", err)
		respondError(w, http.StatusInternalServerError, "could not update book")
		return
	}

	if err := s.sectioning.Publish(r.Context(), models.SectioningJob{BookID: book.ID}); err != nil {
		s.logger.Error("publish sectioning job", "book_id", bookID, "error", err)
		respondError(w, http.StatusInternalServerError, "could not enqueue sectioning")
		return
	}

	respondJSON(w, http.StatusOK, book)
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.books.List(r.Context(), UserID(r.Context()))
	if err != nil {
		s.logger.Error("list books", "error", err)
		respondError(w, http.StatusInternalServerError, "could not list books")
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	respondJSON(w, http.StatusOK, books)
}

type sectionRange struct {
	StartPage int `json:"start_page"`
	EndPage   int `json:"end_page"`
}

// handleListSections returns the section ranges of a book, without page
// content. Clients use these ranges as the keys for distillation requests.
func (s *Server) handleListSections(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	if _, err := s.books.Get(r.Context(), bookID, UserID(r.Context())); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "book not found")
			return
		}
		s.logger.Error("get book", "book_id", bookID, "error", err)
		respondError(w, http.StatusInternalServerError, "could not load book")
		return
	}

	sections, err := s.sections.GetByBook(r.Context(), bookID)
	if err != nil {
		s.logger.Error("list sections", "book_id", bookID, "error", err)
		respondError(w, http.StatusInternalServerError, "could not list sections")
		return
	}

	ranges := make([]sectionRange, 0, len(sections))
	for _, sec := range sections {
		ranges = append(ranges, sectionRange{StartPage: sec.StartPage, EndPage: sec.EndPage})
	}
	respondJSON(w, http.StatusOK, ranges)
}

type processingResponse struct {
	Status models.ProcessingStatus `json:"processing_status"`
}

// handleGetDistilled serves the distilled page for an exact section range.
// A cache miss creates the IN_PROGRESS row, enqueues the distillation job,
// and replies 202; clients poll until the page flips to COMPLETED.
func (s *Server) handleGetDistilled(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	userID := UserID(r.Context())

	startPage, err1 := strconv.Atoi(r.URL.Query().Get("start_page"))
	endPage, err2 := strconv.Atoi(r.URL.Query().Get("end_page"))
	if err1 != nil || err2 != nil || startPage > endPage {
		respondError(w, http.StatusBadRequest, "start_page and end_page must be a valid page range")
		return
	}

	if _, err := s.books.Get(r.Context(), bookID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "book not found")
			return
		}
		s.logger.Error("get book", "book_id", bookID, "error", err)
		respondError(w, http.StatusInternalServerError, "could not load book")
		return
	}

	page, err := s.distilled.Get(r.Context(), bookID, startPage, endPage, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Error("get distilled page", "book_id", bookID, "error", err)
		respondError(w, http.StatusInternalServerError, "could not load distilled page")
		return
	}
	if page != nil {
		if page.Status == models.StatusCompleted {
			respondJSON(w, http.StatusOK, page)
			return
		}
		respondJSON(w, http.StatusAccepted, processingResponse{Status: page.Status})
		return
	}

	// Cache miss. Only exact section ranges are distillable.
	if _, err := s.sections.GetByRange(r.Context(), bookID, startPage, endPage, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "no content section for requested range")
			return
		}
		s.logger.Error("get section", "book_id", bookID, "error", err)
		respondError(w, http.StatusInternalServerError, "could not load section")
		return
	}

	pending := &models.DistilledPage{
		BookID:     bookID,
		UserID:     userID,
		StartPage:  startPage,
		EndPage:    endPage,
		Paragraphs: []models.Paragraph{},
		CreatedAt:  s.now().UTC(),
		Status:     models.StatusInProgress,
	}
	if err := s.distilled.Save(r.Context(), pending); err != nil {
		s.logger.Error("save distilled page", "book_id", bookID, "error", err)
		respondError(w, http.StatusInternalServerError, "could not record distillation request")
		return
	}

	job := models.DistillationJob{BookID: bookID, StartPage: startPage, EndPage: endPage}
	if err := s.distillation.Publish(r.Context(), job); err != nil {
		s.logger.Error("publish distillation job", "book_id", bookID, "error", err)
		respondError(w, http.StatusInternalServerError, "could not enqueue distillation")
		return
	}

	respondJSON(w, http.StatusAccepted, processingResponse{Status: models.StatusInProgress})
}
