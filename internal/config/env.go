package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// ServerConfig controls the HTTP listener and upload handling.
type ServerConfig struct {
	Port            string
	MaxUploadBytes  int64
	TempDir         string
	TempMaxAge      time.Duration
	CleanupInterval time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// ProviderModels defines the model pair used for one provider.
type ProviderModels struct {
	Primary   string
	Secondary string
}

// ProvidersConfig defines engines and models per provider.
type ProvidersConfig struct {
	PrimaryEngine   string // "openai"|"anthropic"
	SecondaryEngine string // "anthropic"|"openai"|""
	OpenAIKey       string
	AnthropicKey    string
	OpenAI          ProviderModels
	Anthropic       ProviderModels
	RequestTimeout  time.Duration
	MaxInflight     int
	BreakerBase     time.Duration
	BreakerMax      time.Duration
}

// SummarizerConfig holds the chunking limits of the summarization pipeline.
type SummarizerConfig struct {
	Encoding         string
	MaxInputTokens   int
	SafetyTokens     int
	MaxLength        int
	MinLength        int
	BulletMaxLength  int
	BulletMinLength  int
	BulletChunkChars int
	MaxReducePasses  int
}

// OCRConfig selects the OCR engine used for scanned PDFs.
type OCRConfig struct {
	Engine        string // "tesseract"|"openai"|"none"
	TesseractPath string
	Language      string
	DPI           int
	MaxPages      int
	VisionModel   string
	MinTextChars  int
}

// TranslationConfig defines the translation backend cascade.
type TranslationConfig struct {
	HFToken         string
	HFBaseURL       string
	HFModels        map[string]string
	BatchSize       int
	MaxLength       int
	AWSEnabled      bool
	AWSRegion       string
	FallbackEnabled bool
	FallbackURL     string
	Attempts        int
	BaseDelay       time.Duration
	RequestTimeout  time.Duration
}

// StorageConfig defines where persisted uploads live.
type StorageConfig struct {
	Backend   string // "local"|"s3"
	LocalDir  string
	S3Bucket  string
	S3Prefix  string
	SealKey   string
	AWSRegion string

	// S3-compatible endpoint (MinIO etc.); empty uses AWS.
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
}

// ReportConfig controls generated summary PDFs.
type ReportConfig struct {
	FontPath string // optional UTF-8 TTF for non-Latin scripts
}

// DatabaseConfig holds the document record store location.
type DatabaseConfig struct {
	Path string
}

// RedisConfig holds guest session and breaker connectivity.
type RedisConfig struct {
	URL        string
	SessionTTL time.Duration
}

// Config is the top-level configuration.
type Config struct {
	Logging     LoggingConfig
	Axiom       AxiomConfig
	Server      ServerConfig
	Providers   ProvidersConfig
	Summarizer  SummarizerConfig
	OCR         OCRConfig
	Translation TranslationConfig
	Storage     StorageConfig
	Report      ReportConfig
	Database    DatabaseConfig
	Redis       RedisConfig
}

// FromEnv loads configuration from environment with sensible defaults.
// A .env file in the working directory is read first when present.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/docsummarizer.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_docsummarizer",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Server = ServerConfig{
		Port:            getEnv("PORT", "8080"),
		MaxUploadBytes:  int64(parseInt(getEnv("MAX_UPLOAD_MB", "50"), 50)) << 20,
		TempDir:         getEnv("TEMP_UPLOAD_DIR", "temp_uploads"),
		TempMaxAge:      parseDuration(getEnv("TEMP_MAX_AGE", "1h"), time.Hour),
		CleanupInterval: parseDuration(getEnv("TEMP_CLEANUP_INTERVAL", "10m"), 10*time.Minute),
		ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
		AllowedOrigins:  parseList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	cfg.Providers = ProvidersConfig{
		PrimaryEngine:   strings.ToLower(getEnv("PRIMARY_ENGINE", "openai")),
		SecondaryEngine: strings.ToLower(getEnv("SECONDARY_ENGINE", "anthropic")),
		OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
		AnthropicKey:    getEnv("ANTHROPIC_API_KEY", ""),
		OpenAI: ProviderModels{
			Primary:   getEnv("OPENAI_PRIMARY_MODEL", "gpt-4.1-mini"),
			Secondary: getEnv("OPENAI_SECONDARY_MODEL", "gpt-4o-mini"),
		},
		Anthropic: ProviderModels{
			Primary:   getEnv("ANTHROPIC_PRIMARY_MODEL", "claude-3-5-haiku-latest"),
			Secondary: getEnv("ANTHROPIC_SECONDARY_MODEL", "claude-3-5-sonnet-latest"),
		},
		RequestTimeout: parseDuration(getEnv("REQUEST_TIMEOUT", "60s"), 60*time.Second),
		MaxInflight:    parseInt(getEnv("MAX_INFLIGHT_PER_MODEL", "4"), 4),
		BreakerBase:    parseDuration(getEnv("BREAKER_BASE_BACKOFF", "30s"), 30*time.Second),
		BreakerMax:     parseDuration(getEnv("BREAKER_MAX_BACKOFF", "5m"), 5*time.Minute),
	}

	cfg.Summarizer = SummarizerConfig{
		Encoding:         getEnv("TOKENIZER_ENCODING", "cl100k_base"),
		MaxInputTokens:   parseInt(getEnv("SUMMARY_MAX_INPUT_TOKENS", "1024"), 1024),
		SafetyTokens:     parseInt(getEnv("SUMMARY_SAFETY_TOKENS", "50"), 50),
		MaxLength:        parseInt(getEnv("SUMMARY_MAX_LENGTH", "300"), 300),
		MinLength:        parseInt(getEnv("SUMMARY_MIN_LENGTH", "100"), 100),
		BulletMaxLength:  parseInt(getEnv("BULLET_MAX_LENGTH", "150"), 150),
		BulletMinLength:  parseInt(getEnv("BULLET_MIN_LENGTH", "40"), 40),
		BulletChunkChars: parseInt(getEnv("BULLET_CHUNK_CHARS", "2000"), 2000),
		MaxReducePasses:  parseInt(getEnv("SUMMARY_MAX_REDUCE_PASSES", "4"), 4),
	}

	cfg.OCR = OCRConfig{
		Engine:        strings.ToLower(getEnv("OCR_ENGINE", "tesseract")),
		TesseractPath: getEnv("TESSERACT_PATH", "tesseract"),
		Language:      getEnv("OCR_LANGUAGE", "eng"),
		DPI:           parseInt(getEnv("OCR_DPI", "300"), 300),
		MaxPages:      parseInt(getEnv("OCR_MAX_PAGES", "200"), 200),
		VisionModel:   getEnv("OCR_VISION_MODEL", "gpt-4.1-mini"),
		MinTextChars:  parseInt(getEnv("PDF_MIN_TEXT_CHARS", "100"), 100),
	}

	cfg.Translation = TranslationConfig{
		HFToken:   getEnv("HF_API_TOKEN", ""),
		HFBaseURL: getEnv("HF_INFERENCE_URL", "https://api-inference.huggingface.co/models"),
		HFModels: parseModelMap(getEnv("HF_TRANSLATION_MODELS",
			"hi=Helsinki-NLP/opus-mt-en-hi,bn=Helsinki-NLP/opus-mt-en-bn,es=Helsinki-NLP/opus-mt-en-es,fr=Helsinki-NLP/opus-mt-en-fr")),
		BatchSize:       parseInt(getEnv("TRANSLATION_BATCH_SIZE", "8"), 8),
		MaxLength:       parseInt(getEnv("TRANSLATION_MAX_LENGTH", "2000"), 2000),
		AWSEnabled:      parseBool(getEnv("AWS_TRANSLATE_ENABLED", "true")),
		AWSRegion:       getEnv("AWS_REGION", ""),
		FallbackEnabled: parseBool(getEnv("TRANSLATION_FALLBACK_ENABLED", "true")),
		FallbackURL:     getEnv("TRANSLATION_FALLBACK_URL", "https://translate.googleapis.com/translate_a/single"),
		Attempts:        parseInt(getEnv("TRANSLATION_ATTEMPTS", "4"), 4),
		BaseDelay:       parseDuration(getEnv("TRANSLATION_BASE_DELAY", "600ms"), 600*time.Millisecond),
		RequestTimeout:  parseDuration(getEnv("TRANSLATION_TIMEOUT", "15s"), 15*time.Second),
	}

	cfg.Storage = StorageConfig{
		Backend:   strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
		LocalDir:  getEnv("UPLOAD_DIR", "uploads"),
		S3Bucket:  getEnv("AWS_S3_BUCKET", ""),
		S3Prefix:  getEnv("AWS_S3_PREFIX", "uploads"),
		SealKey:   getEnv("STORAGE_SEAL_KEY", ""),
		AWSRegion: getEnv("AWS_REGION", ""),

		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),
		S3UsePathStyle: parseBool(getEnv("S3_USE_PATH_STYLE", "false")),
	}

	cfg.Report = ReportConfig{
		FontPath: getEnv("PDF_FONT_PATH", ""),
	}

	cfg.Database = DatabaseConfig{
		Path: getEnv("DB_PATH", "docsummarizer.db"),
	}

	cfg.Redis = RedisConfig{
		URL:        getEnv("REDIS_URL", "redis://localhost:6379"),
		SessionTTL: parseDuration(getEnv("GUEST_SESSION_TTL", "24h"), 24*time.Hour),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func parseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseModelMap reads "lang=model,lang=model" pairs.
func parseModelMap(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range parseList(s) {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
