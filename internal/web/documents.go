package web

import (
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/local/docsummarizer/internal/highlight"
	"github.com/local/docsummarizer/internal/storage"
	"github.com/local/docsummarizer/internal/store"
	"github.com/local/docsummarizer/internal/summarize"
)

type documentView struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	SummaryType string    `json:"summary_type"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	docs, err := s.Documents.ListByOwner(r.Context(), owner)
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("failed to list documents")
		writeError(w, http.StatusInternalServerError, "failed to load documents")
		return
	}
	out := make([]documentView, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentView{ID: d.ID, Filename: d.Filename, SummaryType: d.SummaryType, CreatedAt: d.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

// loadDocument fetches the owner's document named by the {id} URL param and
// writes the error response itself when it cannot.
func (s *Server) loadDocument(w http.ResponseWriter, r *http.Request) (store.Document, bool) {
	owner := ownerID(r)
	doc, err := s.Documents.Get(r.Context(), chi.URLParam(r, "id"), owner)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return store.Document{}, false
	}
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("failed to load document")
		writeError(w, http.StatusInternalServerError, "failed to load document")
		return store.Document{}, false
	}
	return doc, true
}

// displayPoints splits a stored summary for display.
func displayPoints(summary, summaryType string) []string {
	if summaryType == summarySimple {
		return []string{summary}
	}
	return summarize.SplitBullets(summary)
}

func (s *Server) handleViewSummary(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w, r)
	if !ok {
		return
	}
	summaryType := doc.SummaryType
	if q := r.URL.Query().Get("summary_type"); q != "" {
		summaryType = normalizeSummaryType(q)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":            doc.ID,
		"filename":      doc.Filename,
		"summary_type":  summaryType,
		"bullet_points": displayPoints(doc.Summary, summaryType),
		"created_at":    doc.CreatedAt,
	})
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w, r)
	if !ok {
		return
	}
	points := summarize.SplitBullets(doc.Summary)
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || idx < 0 || idx >= len(points) {
		writeError(w, http.StatusBadRequest, "invalid summary point index")
		return
	}

	data, _, err := s.Blob.Get(r.Context(), doc.StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "original file not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("doc_id", doc.ID).Msg("failed to load original file")
		writeError(w, http.StatusInternalServerError, "failed to load original file")
		return
	}
	tmp, err := s.writeTemp(data, strings.ToLower(path.Ext(doc.StorageKey)))
	if err != nil {
		log.Error().Err(err).Str("doc_id", doc.ID).Msg("failed to stage original file")
		writeError(w, http.StatusInternalServerError, "failed to load original file")
		return
	}
	defer removeTemp(tmp)

	text := s.Extractor.Extract(r.Context(), tmp)
	if text == "" {
		writeError(w, http.StatusUnprocessableEntity, "could not extract text from the file")
		return
	}
	res := highlight.Mark(text, points[idx])
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        doc.ID,
		"filename":  doc.Filename,
		"bullet":    res.Bullet,
		"matches":   res.Matches,
		"full_text": res.HTML,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w, r)
	if !ok {
		return
	}
	data, meta, err := s.Blob.Get(r.Context(), doc.StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "file not found, it may have been deleted or moved")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("doc_id", doc.ID).Msg("failed to load original file")
		writeError(w, http.StatusInternalServerError, "failed to load original file")
		return
	}
	contentType := "application/octet-stream"
	if meta != nil && meta.ContentType != "" {
		contentType = meta.ContentType
	} else if info := s.Detector.DetectBytes(data, doc.Filename); info.Supported {
		contentType = info.MIMEType
	}
	writeAttachment(w, contentType, doc.Filename, data)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w, r)
	if !ok {
		return
	}
	if err := s.Blob.Delete(r.Context(), doc.StorageKey); err != nil {
		log.Warn().Err(err).Str("doc_id", doc.ID).Str("key", doc.StorageKey).Msg("failed to delete stored file")
	}
	if err := s.Documents.Delete(r.Context(), doc.ID, doc.OwnerID); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error().Err(err).Str("doc_id", doc.ID).Msg("failed to delete document")
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}
	log.Info().Str("doc_id", doc.ID).Str("owner", doc.OwnerID).Msg("document deleted")
	writeJSON(w, http.StatusOK, map[string]string{"deleted": doc.ID})
}
