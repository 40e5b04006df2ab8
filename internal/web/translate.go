package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/local/docsummarizer/internal/pdfreport"
	"github.com/local/docsummarizer/internal/store"
	"github.com/local/docsummarizer/internal/translate"
)

// summarySource is a summary loaded either from a saved document or a guest session.
type summarySource struct {
	DocID       string
	Summary     string
	Filename    string
	SummaryType string
}

// loadSummary resolves ?doc_id= for signed-in owners and the guest session otherwise.
func (s *Server) loadSummary(w http.ResponseWriter, r *http.Request) (summarySource, bool) {
	ctx := r.Context()
	if docID := r.URL.Query().Get("doc_id"); docID != "" {
		if owner := ownerID(r); owner != "" {
			doc, err := s.Documents.Get(ctx, docID, owner)
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "document not found")
				return summarySource{}, false
			}
			if err != nil {
				log.Error().Err(err).Str("doc_id", docID).Msg("failed to load document")
				writeError(w, http.StatusInternalServerError, "failed to load document")
				return summarySource{}, false
			}
			st := doc.SummaryType
			if q := r.URL.Query().Get("summary_type"); q != "" {
				st = normalizeSummaryType(q)
			}
			return summarySource{DocID: doc.ID, Summary: doc.Summary, Filename: doc.Filename, SummaryType: st}, true
		}
	}

	sid, ok := guestSession(r)
	if !ok {
		writeError(w, http.StatusNotFound, "no active summary session found, please upload a file")
		return summarySource{}, false
	}
	g, err := s.Guests.Get(ctx, sid)
	if errors.Is(err, store.ErrSessionNotFound) || (err == nil && g.Summary == "") {
		writeError(w, http.StatusNotFound, "no active summary session found, please upload a file")
		return summarySource{}, false
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to load guest session")
		writeError(w, http.StatusInternalServerError, "failed to load summary")
		return summarySource{}, false
	}
	filename := g.Filename
	if filename == "" {
		filename = "summary"
	}
	return summarySource{Summary: g.Summary, Filename: filename, SummaryType: normalizeSummaryType(g.SummaryType)}, true
}

// translationUnits are the non-blank lines of a stored summary.
func translationUnits(summary string) []string {
	var out []string
	for _, p := range strings.Split(summary, "\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// backend resolves the translator for the {lang} URL param and writes the
// error response itself when there is none.
func (s *Server) backend(w http.ResponseWriter, r *http.Request) (string, *translate.Backend, bool) {
	lang, ok := translate.NormalizeLang(chi.URLParam(r, "lang"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid language code")
		return "", nil, false
	}
	if s.Translator == nil {
		writeError(w, http.StatusServiceUnavailable, "translation for the selected language is not available right now")
		return "", nil, false
	}
	b, ok := s.Translator.Get(r.Context(), lang)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "translation for the selected language is not available right now")
		return "", nil, false
	}
	return lang, b, true
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	src, ok := s.loadSummary(w, r)
	if !ok {
		return
	}
	lang, b, ok := s.backend(w, r)
	if !ok {
		return
	}
	points := translationUnits(src.Summary)
	translated := s.Translator.TranslateAll(r.Context(), b, points)
	log.Info().Str("lang", lang).Str("backend", b.Name).Int("units", len(points)).Msg("summary translated")
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":            src.DocID,
		"filename":          src.Filename,
		"summary_type":      src.SummaryType,
		"lang":              lang,
		"backend":           b.Name,
		"bullet_points":     points,
		"translated_points": translated,
	})
}

func (s *Server) handleDownloadSummary(w http.ResponseWriter, r *http.Request) {
	src, ok := s.loadSummary(w, r)
	if !ok {
		return
	}
	data, err := s.Reports.Summary(src.Filename, src.Summary)
	if err != nil {
		log.Error().Err(err).Str("filename", src.Filename).Msg("failed to render summary pdf")
		writeError(w, http.StatusInternalServerError, "failed to render summary")
		return
	}
	writeAttachment(w, "application/pdf", pdfreport.SummaryFilename(src.Filename, ""), data)
}

func (s *Server) handleDownloadTranslated(w http.ResponseWriter, r *http.Request) {
	src, ok := s.loadSummary(w, r)
	if !ok {
		return
	}
	lang, b, ok := s.backend(w, r)
	if !ok {
		return
	}
	translated := s.Translator.TranslateAll(r.Context(), b, translationUnits(src.Summary))
	data, err := s.Reports.Translated(src.Filename, lang, translated)
	if err != nil {
		log.Error().Err(err).Str("lang", lang).Msg("failed to render translated pdf")
		writeError(w, http.StatusInternalServerError, "failed to render summary")
		return
	}
	writeAttachment(w, "application/pdf", pdfreport.SummaryFilename(src.Filename, lang), data)
}
