package statuscheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"
)

// Pinger models the minimal capability needed for a dependency check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Checker aggregates health checks for external dependencies.
type Checker struct {
	redis         Pinger
	storage       Pinger
	database      Pinger
	storageName   string
	ocrEngine     string
	tesseractPath string
	httpClient    *http.Client
	openAIKey     string
	anthropicKey  string
	openAIURL     string
	anthropicURL  string
}

// Options configures the Checker.
type Options struct {
	Redis         Pinger
	Storage       Pinger
	StorageName   string
	Database      Pinger
	OCREngine     string
	TesseractPath string
	HTTPClient    *http.Client
	OpenAIKey     string
	AnthropicKey  string
	OpenAIURL     string
	AnthropicURL  string
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
	Redis     Status `json:"redis"`
	Storage   Status `json:"storage"`
	Database  Status `json:"database"`
	OCR       Status `json:"ocr"`
	OpenAI    Status `json:"openai"`
	Anthropic Status `json:"anthropic"`
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	c := &Checker{
		redis:         opts.Redis,
		storage:       opts.Storage,
		database:      opts.Database,
		storageName:   opts.StorageName,
		ocrEngine:     strings.ToLower(opts.OCREngine),
		tesseractPath: opts.TesseractPath,
		httpClient:    client,
		openAIKey:     strings.TrimSpace(opts.OpenAIKey),
		anthropicKey:  strings.TrimSpace(opts.AnthropicKey),
		openAIURL:     opts.OpenAIURL,
		anthropicURL:  opts.AnthropicURL,
	}
	if c.openAIURL == "" {
		c.openAIURL = "https://api.openai.com/v1/models?limit=1"
	}
	if c.anthropicURL == "" {
		c.anthropicURL = "https://api.anthropic.com/v1/models"
	}
	if c.tesseractPath == "" {
		c.tesseractPath = "tesseract"
	}
	return c
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		Redis:     c.ping(ctx, c.redis, 2*time.Second, "Connected"),
		Storage:   c.checkStorage(ctx),
		Database:  c.ping(ctx, c.database, 2*time.Second, "Connected"),
		OCR:       c.checkOCR(),
		OpenAI:    c.checkOpenAI(ctx),
		Anthropic: c.checkAnthropic(ctx),
	}
}

func (c *Checker) ping(ctx context.Context, p Pinger, timeout time.Duration, okMsg string) Status {
	if p == nil {
		return Status{OK: false, Message: "client unavailable"}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: okMsg}
}

func (c *Checker) checkStorage(ctx context.Context) Status {
	st := c.ping(ctx, c.storage, 5*time.Second, "Connected")
	if st.OK && c.storageName != "" {
		st.Message = fmt.Sprintf("Connected (%s)", c.storageName)
	}
	return st
}

func (c *Checker) checkOCR() Status {
	switch c.ocrEngine {
	case "none", "":
		return Status{OK: false, Message: "Disabled"}
	case "openai":
		if c.openAIKey == "" {
			return Status{OK: false, Message: "API key missing"}
		}
		return Status{OK: true, Message: "Vision model"}
	}
	if _, err := exec.LookPath(c.tesseractPath); err != nil {
		return Status{OK: false, Message: "Binary not found"}
	}
	return Status{OK: true, Message: "Available"}
}

func (c *Checker) checkOpenAI(ctx context.Context) Status {
	if c.openAIKey == "" {
		return Status{OK: false, Message: "API key missing"}
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.openAIURL, nil)
	req.Header.Set("Authorization", "Bearer "+c.openAIKey)
	return c.probe(req)
}

func (c *Checker) checkAnthropic(ctx context.Context) Status {
	if c.anthropicKey == "" {
		return Status{OK: false, Message: "API key missing"}
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.anthropicURL, nil)
	req.Header.Set("x-api-key", c.anthropicKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	return c.probe(req)
}

func (c *Checker) probe(req *http.Request) Status {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Status{OK: false, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	return Status{OK: true, Message: "Available"}
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
