package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/local/docsummarizer/internal/ai"
	cfgpkg "github.com/local/docsummarizer/internal/config"
	"github.com/local/docsummarizer/internal/dispatcher"
	"github.com/local/docsummarizer/internal/extract"
	"github.com/local/docsummarizer/internal/filetype"
	"github.com/local/docsummarizer/internal/limiter"
	logpkg "github.com/local/docsummarizer/internal/logger"
	mpkg "github.com/local/docsummarizer/internal/metrics"
	"github.com/local/docsummarizer/internal/ocr"
	"github.com/local/docsummarizer/internal/pdfreport"
	"github.com/local/docsummarizer/internal/statuscheck"
	"github.com/local/docsummarizer/internal/storage"
	"github.com/local/docsummarizer/internal/store"
	"github.com/local/docsummarizer/internal/summarize"
	"github.com/local/docsummarizer/internal/translate"
	"github.com/local/docsummarizer/internal/web"
)

func main() {
	cfg := cfgpkg.FromEnv()

	// Init logging
	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	mpkg.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis: provider breaker and guest sessions
	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	// Model providers
	var clients []ai.Client
	var openAI *ai.OpenAIClient
	if cfg.Providers.OpenAIKey != "" {
		openAI = ai.NewOpenAIClient(cfg.Providers.OpenAIKey)
		clients = append(clients, openAI)
	}
	if cfg.Providers.AnthropicKey != "" {
		clients = append(clients, ai.NewAnthropicClient(cfg.Providers.AnthropicKey))
	}
	breaker := dispatcher.NewCircuitBreaker(rdb, cfg.Providers.BreakerBase, cfg.Providers.BreakerMax)
	failover := dispatcher.NewFailover(cfg.Providers, breaker, clients...).
		WithSlots(limiter.New(cfg.Providers.MaxInflight))
	if !failover.Ready() {
		log.Warn().Msg("no summarization provider configured; summaries will report unavailable")
	}

	var gen summarize.Generator
	if failover.Ready() {
		gen = failover
	}
	tok, err := summarize.NewTiktoken(cfg.Summarizer.Encoding)
	if err != nil {
		log.Error().Err(err).Str("encoding", cfg.Summarizer.Encoding).Msg("tokenizer unavailable; summaries will report unavailable")
	}
	summarizer := summarize.New(cfg.Summarizer, gen, tok)

	// Extraction
	var vision ai.Client
	if openAI != nil {
		vision = openAI
	}
	engine, err := ocr.New(cfg.OCR, vision)
	if err != nil {
		log.Warn().Err(err).Str("engine", cfg.OCR.Engine).Msg("OCR disabled")
		engine = nil
	}
	extractor := extract.New(cfg.OCR, engine)

	// Persistence
	docs, err := store.OpenDocuments(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("failed to open document store")
	}
	defer docs.Close()
	guests := store.NewRedisGuests(rdb, cfg.Redis.SessionTTL)

	blob, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("failed to init storage")
	}

	checker := statuscheck.New(statuscheck.Options{
		Redis:         statuscheck.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		Storage:       blob,
		StorageName:   blob.Name(),
		Database:      docs,
		OCREngine:     cfg.OCR.Engine,
		TesseractPath: cfg.OCR.TesseractPath,
		OpenAIKey:     cfg.Providers.OpenAIKey,
		AnthropicKey:  cfg.Providers.AnthropicKey,
	})

	srv := web.New(web.Deps{
		Conf:       cfg.Server,
		SessionTTL: cfg.Redis.SessionTTL,
		Detector:   filetype.New(),
		Extractor:  extractor,
		Summarizer: summarizer,
		Translator: translate.NewSelector(cfg.Translation),
		Documents:  docs,
		Guests:     guests,
		Blob:       blob,
		Reports:    pdfreport.New(cfg.Report.FontPath),
		Status:     checker,
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if cfg.Server.CleanupInterval <= 0 {
			return nil
		}
		t := time.NewTicker(cfg.Server.CleanupInterval)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				web.CleanupTemps(cfg.Server.TempDir, cfg.Server.TempMaxAge)
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		logpkg.Close()
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}
