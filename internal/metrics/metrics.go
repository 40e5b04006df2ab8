package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docsummarizer"

var (
	providerReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total summarization provider requests by provider, model and result",
		},
		[]string{"provider", "model", "result"},
	)

	providerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of summarization provider requests by provider and model",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "model"},
	)

	breakerEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_events_total",
			Help:      "Circuit breaker events by provider, model and action",
		},
		[]string{"provider", "model", "action"},
	)

	extractions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Text extractions by format, method and result",
		},
		[]string{"format", "method", "result"},
	)

	ocrPages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ocr_pages_total",
			Help:      "Pages sent to OCR by engine and result",
		},
		[]string{"engine", "result"},
	)

	summaries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_total",
			Help:      "Summaries produced by mode and status",
		},
		[]string{"mode", "status"},
	)

	chunkFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_failures_total",
			Help:      "Chunks that could not be summarized by stage",
		},
		[]string{"stage"},
	)

	translations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_units_total",
			Help:      "Translated text units by backend and result",
		},
		[]string{"backend", "result"},
	)

	translationRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_retries_total",
			Help:      "Translation retry attempts by backend",
		},
		[]string{"backend"},
	)

	backendResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_backend_resolutions_total",
			Help:      "Translation backend resolutions by backend kind",
		},
		[]string{"backend"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)

	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"route"},
	)

	registerOnce sync.Once
)

// Init registers collectors.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(providerReqs, providerLatency, breakerEvents, extractions, ocrPages,
			summaries, chunkFailures, translations, translationRetries, backendResolutions,
			httpRequests, httpLatency)
	})
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveProvider(provider, model, result string, dur time.Duration) {
	providerReqs.WithLabelValues(provider, model, result).Inc()
	providerLatency.WithLabelValues(provider, model).Observe(dur.Seconds())
}

func BreakerOpened(provider, model string) {
	breakerEvents.WithLabelValues(provider, model, "opened").Inc()
}
func BreakerClosed(provider, model string) {
	breakerEvents.WithLabelValues(provider, model, "closed").Inc()
}

func IncExtraction(format, method, result string) {
	extractions.WithLabelValues(format, method, result).Inc()
}

func IncOCRPage(engine, result string) { ocrPages.WithLabelValues(engine, result).Inc() }

func IncSummary(mode, status string) { summaries.WithLabelValues(mode, status).Inc() }

func IncChunkFailure(stage string) { chunkFailures.WithLabelValues(stage).Inc() }

func IncTranslation(backend, result string) {
	translations.WithLabelValues(backend, result).Inc()
}

func IncTranslationRetry(backend string) { translationRetries.WithLabelValues(backend).Inc() }

// BackendResolved records which backend a language resolved to ("none" included).
func BackendResolved(backend string) { backendResolutions.WithLabelValues(backend).Inc() }

func ObserveHTTP(route, method string, code int, dur time.Duration) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	httpLatency.WithLabelValues(route).Observe(dur.Seconds())
}
