package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/docsummarizer/internal/filetype"
	"github.com/local/docsummarizer/internal/storage"
	"github.com/local/docsummarizer/internal/store"
	"github.com/local/docsummarizer/internal/summarize"
)

const (
	tempPrefix     = "upload-"
	summaryBullets = "bullets"
	summarySimple  = "simple"
	multipartSlack = 1 << 20
)

type summarizeResponse struct {
	ID           string   `json:"id,omitempty"`
	Filename     string   `json:"filename"`
	SummaryType  string   `json:"summary_type"`
	BulletPoints []string `json:"bullet_points"`
	Saved        bool     `json:"saved"`
}

func normalizeSummaryType(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), summarySimple) {
		return summarySimple
	}
	return summaryBullets
}

// cleanFilename keeps the base name with a conservative character set.
func cleanFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "._")
}

// withExtension makes the stored name carry the sniffed extension.
func withExtension(name, ext string) string {
	if strings.EqualFold(filepath.Ext(name), ext) {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

func (s *Server) writeTemp(data []byte, ext string) (string, error) {
	if err := os.MkdirAll(s.Conf.TempDir, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	p := filepath.Join(s.Conf.TempDir, tempPrefix+uuid.NewString()+ext)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	return p, nil
}

func removeTemp(p string) {
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("path", p).Msg("failed to remove temp file")
	}
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.Conf.MaxUploadBytes+multipartSlack)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds the %d MB limit", s.Conf.MaxUploadBytes>>20))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, hdr, err := r.FormFile("document")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()
	if hdr.Size > s.Conf.MaxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds the %d MB limit", s.Conf.MaxUploadBytes>>20))
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, s.Conf.MaxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if int64(len(data)) > s.Conf.MaxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds the %d MB limit", s.Conf.MaxUploadBytes>>20))
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "could not extract text from the file")
		return
	}

	info := s.Detector.DetectBytes(data, hdr.Filename)
	if !info.Supported {
		writeError(w, http.StatusUnsupportedMediaType, info.Description)
		return
	}
	filename := cleanFilename(hdr.Filename)
	if filename == "" {
		filename = "upload_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	filename = withExtension(filename, info.Extension)
	summaryType := normalizeSummaryType(r.FormValue("summary_type"))
	logger := log.With().Str("filename", filename).Str("mime", info.MIMEType).Str("summary_type", summaryType).Logger()

	tmp, err := s.writeTemp(data, info.Extension)
	if err != nil {
		logger.Error().Err(err).Msg("failed to stage upload")
		writeError(w, http.StatusInternalServerError, "uploaded file could not be saved")
		return
	}
	defer removeTemp(tmp)

	start := time.Now()
	text := s.Extractor.Extract(r.Context(), tmp)
	if strings.TrimSpace(text) == "" {
		logger.Warn().Msg("no text extracted from upload")
		writeError(w, http.StatusUnprocessableEntity, "could not extract text from the file")
		return
	}
	logger.Info().Int("chars", len(text)).Dur("duration", time.Since(start)).Msg("text extracted")

	summary, bullets, st := s.summarize(r, text, summaryType)
	if st != summarize.StatusOK {
		code, msg := summaryFailure(st)
		logger.Warn().Str("status", st.String()).Msg("summarization failed")
		writeError(w, code, msg)
		return
	}

	resp := summarizeResponse{Filename: filename, SummaryType: summaryType, BulletPoints: bullets}

	if owner := ownerID(r); owner != "" {
		doc, err := s.persist(r, owner, filename, info, data, summary, summaryType)
		if err != nil {
			logger.Error().Err(err).Str("owner", owner).Msg("failed to persist document")
			writeError(w, http.StatusInternalServerError, "failed to save document")
			return
		}
		resp.ID = doc.ID
		resp.Saved = true
		logger.Info().Str("doc_id", doc.ID).Str("owner", owner).Msg("document saved")
		writeJSON(w, http.StatusCreated, resp)
		return
	}

	sid, ok := guestSession(r)
	if !ok {
		sid = uuid.NewString()
	}
	if err := s.Guests.Save(r.Context(), sid, store.GuestSummary{
		Summary:     summary,
		Filename:    filename,
		SummaryType: summaryType,
	}); err != nil {
		logger.Error().Err(err).Msg("failed to store guest session")
		writeError(w, http.StatusInternalServerError, "failed to store summary")
		return
	}
	s.setGuestSession(w, r, sid)
	writeJSON(w, http.StatusOK, resp)
}

// summarize returns the stored form, the display points and the outcome.
func (s *Server) summarize(r *http.Request, text, summaryType string) (string, []string, summarize.Status) {
	if summaryType == summarySimple {
		sum := s.Summarizer.Summarize(r.Context(), text)
		if !sum.OK() {
			return "", nil, sum.Status
		}
		return sum.Text, []string{sum.Text}, summarize.StatusOK
	}
	bullets, st := s.Summarizer.SummarizeToBullets(r.Context(), text)
	if st != summarize.StatusOK {
		return "", nil, st
	}
	return summarize.JoinBullets(bullets), bullets, summarize.StatusOK
}

func summaryFailure(st summarize.Status) (int, string) {
	switch st {
	case summarize.StatusUnavailable:
		return http.StatusServiceUnavailable, summarize.MsgUnavailable
	case summarize.StatusNoText:
		return http.StatusUnprocessableEntity, summarize.MsgNoText
	case summarize.StatusNoSummary:
		return http.StatusBadGateway, summarize.MsgNoSummary
	default:
		return http.StatusBadGateway, summarize.MsgFailed
	}
}

func (s *Server) persist(r *http.Request, owner, filename string, info *filetype.FileTypeInfo, data []byte, summary, summaryType string) (store.Document, error) {
	ctx := r.Context()
	id := uuid.NewString()
	key := storage.ObjectKey(owner, id, filename)
	if err := s.Blob.Put(ctx, key, data, storage.FileMetadata{
		OriginalName: filename,
		ContentType:  info.MIMEType,
		Size:         int64(len(data)),
	}); err != nil {
		return store.Document{}, fmt.Errorf("store upload: %w", err)
	}
	doc, err := s.Documents.Create(ctx, store.Document{
		ID:          id,
		OwnerID:     owner,
		Filename:    filename,
		StorageKey:  key,
		Summary:     summary,
		SummaryType: summaryType,
	})
	if err != nil {
		if derr := s.Blob.Delete(ctx, key); derr != nil {
			log.Warn().Err(derr).Str("key", key).Msg("failed to remove orphaned upload")
		}
		return store.Document{}, fmt.Errorf("create record: %w", err)
	}
	return doc, nil
}
