// Package web exposes the summarizer over HTTP.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	cfgpkg "github.com/local/docsummarizer/internal/config"
	"github.com/local/docsummarizer/internal/filetype"
	mpkg "github.com/local/docsummarizer/internal/metrics"
	"github.com/local/docsummarizer/internal/pdfreport"
	"github.com/local/docsummarizer/internal/statuscheck"
	"github.com/local/docsummarizer/internal/storage"
	"github.com/local/docsummarizer/internal/store"
	"github.com/local/docsummarizer/internal/summarize"
	"github.com/local/docsummarizer/internal/translate"
)

// Extractor turns a file on disk into plain text; "" means nothing usable.
type Extractor interface {
	Extract(ctx context.Context, path string) string
}

type Summarizer interface {
	Available() bool
	Summarize(ctx context.Context, text string) summarize.Summary
	SummarizeToBullets(ctx context.Context, text string) ([]string, summarize.Status)
}

type Translator interface {
	Get(ctx context.Context, lang string) (*translate.Backend, bool)
	TranslateAll(ctx context.Context, b *translate.Backend, units []string) []string
}

type Documents interface {
	Create(ctx context.Context, doc store.Document) (store.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]store.Document, error)
	Get(ctx context.Context, id, ownerID string) (store.Document, error)
	Delete(ctx context.Context, id, ownerID string) error
}

type Guests interface {
	Save(ctx context.Context, sessionID string, g store.GuestSummary) error
	Get(ctx context.Context, sessionID string) (store.GuestSummary, error)
}

type StatusReporter interface {
	Summary(ctx context.Context) statuscheck.Summary
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Conf       cfgpkg.ServerConfig
	SessionTTL time.Duration
	Detector   *filetype.Detector
	Extractor  Extractor
	Summarizer Summarizer
	Translator Translator
	Documents  Documents
	Guests     Guests
	Blob       storage.Blob
	Reports    *pdfreport.Renderer
	Status     StatusReporter
}

type Server struct {
	Deps
}

func New(d Deps) *Server {
	if d.Conf.MaxUploadBytes <= 0 {
		d.Conf.MaxUploadBytes = 50 << 20
	}
	if d.Conf.TempDir == "" {
		d.Conf.TempDir = "temp_uploads"
	}
	if d.SessionTTL <= 0 {
		d.SessionTTL = 24 * time.Hour
	}
	if d.Detector == nil {
		d.Detector = filetype.New()
	}
	if d.Reports == nil {
		d.Reports = pdfreport.New("")
	}
	return &Server{Deps: d}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.Conf.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", ownerHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", mpkg.Handler())
	r.Get("/status", s.handleStatus)

	r.Post("/summarize-doc", s.handleSummarize)
	r.Get("/translate/{lang}", s.handleTranslate)
	r.Get("/download-summary", s.handleDownloadSummary)
	r.Get("/download-translated-summary/{lang}", s.handleDownloadTranslated)

	r.Group(func(r chi.Router) {
		r.Use(requireOwner)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/view-summary/{id}", s.handleViewSummary)
		r.Get("/highlight/{id}/{index}", s.handleHighlight)
		r.Get("/download/{id}", s.handleDownload)
		r.Post("/delete/{id}", s.handleDelete)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		mpkg.ObserveHTTP(route, r.Method, status, dur)
		ev := log.Info()
		if status >= 500 {
			ev = log.Warn()
		}
		ev.Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", dur).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.Status == nil {
		writeError(w, http.StatusServiceUnavailable, "status checks not configured")
		return
	}
	writeJSON(w, http.StatusOK, s.Status.Summary(r.Context()))
}
