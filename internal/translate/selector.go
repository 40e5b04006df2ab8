package translate

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	cfgpkg "github.com/local/docsummarizer/internal/config"
	mpkg "github.com/local/docsummarizer/internal/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// Factory builds a backend for lang, or returns nil when it cannot serve it.
type Factory func(ctx context.Context, lang string) *Backend

// resolution is a cached Get result; a nil backend means "none".
type resolution struct{ backend *Backend }

// Selector resolves the first available backend per language and memoizes the
// result, including the absence of one, for the life of the process.
type Selector struct {
	factories []Factory
	retry     RetryPolicy
	batchSize int
	cache     sync.Map // lang -> *resolution
}

// NewSelector wires the specialized, cloud and fallback factories from config.
func NewSelector(conf cfgpkg.TranslationConfig) *Selector {
	client := &http.Client{Timeout: conf.RequestTimeout}
	factories := []Factory{
		hfFactory(conf, client),
		awsFactory(conf),
		googleFactory(conf, client),
	}
	return newSelector(RetryPolicy{Attempts: conf.Attempts, BaseDelay: conf.BaseDelay}, conf.BatchSize, factories...)
}

func newSelector(retry RetryPolicy, batchSize int, factories ...Factory) *Selector {
	if batchSize <= 0 {
		batchSize = 8
	}
	return &Selector{factories: factories, retry: retry, batchSize: batchSize}
}

// NormalizeLang lower-cases a code and checks that it is a well-formed BCP 47 tag.
func NormalizeLang(lang string) (string, bool) {
	lang = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(lang, "_", "-")))
	if lang == "" {
		return "", false
	}
	if _, err := language.Parse(lang); err != nil {
		// well-formed but unregistered subtags are left to the backends to reject
		var unknown language.ValueError
		if !errors.As(err, &unknown) {
			return "", false
		}
	}
	return lang, true
}

// Get returns the backend for lang. Concurrent first resolutions may both run
// the factories; the first stored result wins.
func (s *Selector) Get(ctx context.Context, lang string) (*Backend, bool) {
	code, ok := NormalizeLang(lang)
	if !ok {
		return nil, false
	}
	if v, ok := s.cache.Load(code); ok {
		r := v.(*resolution)
		return r.backend, r.backend != nil
	}

	res := &resolution{backend: s.resolve(ctx, code)}
	v, _ := s.cache.LoadOrStore(code, res)
	r := v.(*resolution)
	return r.backend, r.backend != nil
}

func (s *Selector) resolve(ctx context.Context, lang string) *Backend {
	for _, f := range s.factories {
		if b := f(ctx, lang); b != nil {
			log.Info().Str("lang", lang).Str("backend", b.Name).Str("kind", b.Kind.String()).Msg("translation backend resolved")
			mpkg.BackendResolved(b.Name)
			return b
		}
	}
	log.Warn().Str("lang", lang).Msg("no translator available")
	mpkg.BackendResolved("none")
	return nil
}

// TranslateAll translates units in order. The output always has len(units) entries;
// failed units hold Sentinel.
func (s *Selector) TranslateAll(ctx context.Context, b *Backend, units []string) []string {
	out := make([]string, 0, len(units))
	switch b.Kind {
	case KindSpecialized:
		for i := 0; i < len(units); i += s.batchSize {
			batch := units[i:min(i+s.batchSize, len(units))]
			out = append(out, s.translateBatch(ctx, b, batch)...)
		}
	case KindSimple:
		for _, u := range units {
			out = append(out, translateWithRetry(ctx, s.retry, b, u))
		}
	default:
		for range units {
			out = append(out, Sentinel)
		}
	}
	return out
}

// TranslateText translates a single unit.
func (s *Selector) TranslateText(ctx context.Context, b *Backend, text string) string {
	return s.TranslateAll(ctx, b, []string{text})[0]
}

func (s *Selector) translateBatch(ctx context.Context, b *Backend, batch []string) []string {
	res, err := b.batch.TranslateBatch(ctx, batch)
	out := make([]string, len(batch))
	if err != nil {
		log.Error().Err(err).Str("backend", b.Name).Str("lang", b.Lang).Int("units", len(batch)).Msg("batch translation failed")
	}
	for i := range out {
		if err != nil || i >= len(res) {
			out[i] = Sentinel
			mpkg.IncTranslation(b.Name, "sentinel")
			continue
		}
		out[i] = res[i]
		mpkg.IncTranslation(b.Name, "ok")
	}
	return out
}

func hfFactory(conf cfgpkg.TranslationConfig, client *http.Client) Factory {
	return func(_ context.Context, lang string) *Backend {
		model, ok := conf.HFModels[lang]
		if !ok || conf.HFToken == "" {
			return nil
		}
		return Specialized("huggingface", lang, newHFTranslator(client, conf.HFBaseURL, model, conf.HFToken, conf.MaxLength))
	}
}

func awsFactory(conf cfgpkg.TranslationConfig) Factory {
	var (
		once   sync.Once
		api    awsTranslateAPI
		apiErr error
	)
	return func(ctx context.Context, lang string) *Backend {
		if !conf.AWSEnabled {
			return nil
		}
		once.Do(func() {
			cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			api, apiErr = newAWSClient(cctx, conf.AWSRegion)
		})
		if apiErr != nil {
			log.Debug().Err(apiErr).Msg("aws translate unavailable")
			return nil
		}
		return Simple("aws", lang, &awsTranslator{api: api, lang: lang})
	}
}

func googleFactory(conf cfgpkg.TranslationConfig, client *http.Client) Factory {
	return func(_ context.Context, lang string) *Backend {
		if !conf.FallbackEnabled || conf.FallbackURL == "" {
			return nil
		}
		return Simple("google", lang, newGoogleTranslator(client, conf.FallbackURL, lang))
	}
}
