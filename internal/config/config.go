// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// data sources, matching thresholds, queueing, and server settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// LINE Bot Configuration
	LineChannelToken  string
	LineChannelSecret string

	// LLM Configuration
	GeminiAPIKey string // Gemini API key (primary provider)
	GeminiModel  string // Gemini model name (default: gemini-2.5-flash)

	// Fallback LLM provider (OpenAI-compatible API, e.g. Groq)
	FallbackLLMAPIKey  string
	FallbackLLMBaseURL string
	FallbackLLMModel   string

	// Data Sources
	DocumentURL string   // Published document URL (plain text or HTML export)
	SheetURL    string   // Spreadsheet CSV export URL (page name appended as query)
	SheetPages  []string // Named pages to load keyword rows from

	// Matching and Orchestration
	DocAcceptThreshold     int     // Min confidence to accept a document-backed answer (default: 60)
	KeywordAcceptThreshold int     // Min confidence to accept a keyword-backed answer (default: 70)
	KeywordMatchThreshold  float64 // Word-overlap threshold for keyword lookup (default: 0.6)
	SourcePolicy           string  // Source selection policy: "heuristic" or "classifier"

	// Queueing and Sessions
	MaxQueueSize   int           // Admission-control cap on pending requests (default: 100)
	SessionTimeout time.Duration // Session expiry since last touch (default: 30m)
	SweepInterval  time.Duration // Session sweep period (default: 10m)
	HandleTimeout  time.Duration // Per-request orchestration deadline (default: 30s)

	// Caching and Refresh
	DocumentTTL     time.Duration // Document snapshot TTL (default: 5m)
	RefreshInterval time.Duration // Background refresh period (default: 1m)

	// Fetch Configuration
	FetchTimeout    time.Duration
	FetchMaxRetries int

	// Bot Persona
	BotName          string
	ResponseLanguage string // BCP-47-ish language tag, "th" enables the polite particle
	DefaultResponse  string // Returned when every source in the chain fails
	BusyResponse     string // Returned on queue saturation
	Greeting         string // Sent on follow events
	ClosingLine      string // Appended to document-sourced answers

	// Metrics Authentication
	MetricsUsername string
	MetricsPassword string

	// Crash Reporting
	SentryDSN string

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir string // Directory for the local snapshot database
}

// Default fallback strings. Thai because the bot serves a Thai LINE Official
// Account; all overridable via environment.
const (
	defaultResponse = "ขออภัยค่ะ ขณะนี้ระบบไม่สามารถตอบคำถามได้ กรุณาลองใหม่อีกครั้งภายหลังนะคะ"
	defaultBusy     = "ขออภัยค่ะ ขณะนี้มีผู้ใช้งานจำนวนมาก กรุณารอสักครู่แล้วส่งข้อความใหม่อีกครั้งนะคะ"
	defaultGreeting = "สวัสดีค่ะ ยินดีให้บริการ สอบถามข้อมูลได้เลยนะคะ"
	defaultClosing  = "หากต้องการข้อมูลเพิ่มเติม สอบถามเข้ามาได้เลยนะคะ"
)

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		LineChannelToken:  getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineChannelSecret: getEnv("LINE_CHANNEL_SECRET", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		FallbackLLMAPIKey:  getEnv("FALLBACK_LLM_API_KEY", ""),
		FallbackLLMBaseURL: getEnv("FALLBACK_LLM_BASE_URL", "https://api.groq.com/openai/v1/"),
		FallbackLLMModel:   getEnv("FALLBACK_LLM_MODEL", "llama-3.3-70b-versatile"),

		DocumentURL: getEnv("DOCUMENT_URL", ""),
		SheetURL:    getEnv("SHEET_URL", ""),
		SheetPages:  getEnvList("SHEET_PAGES", []string{"FAQ"}),

		DocAcceptThreshold:     getEnvInt("DOC_ACCEPT_THRESHOLD", 60),
		KeywordAcceptThreshold: getEnvInt("KEYWORD_ACCEPT_THRESHOLD", 70),
		KeywordMatchThreshold:  getEnvFloat("KEYWORD_MATCH_THRESHOLD", 0.6),
		SourcePolicy:           getEnv("SOURCE_POLICY", "heuristic"),

		MaxQueueSize:   getEnvInt("MAX_QUEUE_SIZE", 100),
		SessionTimeout: getEnvDuration("SESSION_TIMEOUT", 30*time.Minute),
		SweepInterval:  getEnvDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),
		HandleTimeout:  getEnvDuration("HANDLE_TIMEOUT", 30*time.Second),

		DocumentTTL:     getEnvDuration("DOCUMENT_TTL", 5*time.Minute),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", time.Minute),

		FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		FetchMaxRetries: getEnvInt("FETCH_MAX_RETRIES", 3),

		BotName:          getEnv("BOT_NAME", "น้องใจดี"),
		ResponseLanguage: getEnv("RESPONSE_LANGUAGE", "th"),
		DefaultResponse:  getEnv("DEFAULT_RESPONSE", defaultResponse),
		BusyResponse:     getEnv("BUSY_RESPONSE", defaultBusy),
		Greeting:         getEnv("GREETING", defaultGreeting),
		ClosingLine:      getEnv("CLOSING_LINE", defaultClosing),

		MetricsUsername: getEnv("METRICS_USERNAME", "prometheus"),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		SentryDSN: getEnv("SENTRY_DSN", ""),

		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DataDir: getEnv("DATA_DIR", "./data"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required settings are present and ranges are sane.
func (c *Config) Validate() error {
	if c.LineChannelToken == "" {
		return errors.New("LINE_CHANNEL_ACCESS_TOKEN is required")
	}
	if c.LineChannelSecret == "" {
		return errors.New("LINE_CHANNEL_SECRET is required")
	}
	if c.DocumentURL == "" && c.SheetURL == "" {
		return errors.New("at least one of DOCUMENT_URL or SHEET_URL is required")
	}
	if c.DocAcceptThreshold < 0 || c.DocAcceptThreshold > 100 {
		return fmt.Errorf("DOC_ACCEPT_THRESHOLD must be 0-100, got %d", c.DocAcceptThreshold)
	}
	if c.KeywordAcceptThreshold < 0 || c.KeywordAcceptThreshold > 100 {
		return fmt.Errorf("KEYWORD_ACCEPT_THRESHOLD must be 0-100, got %d", c.KeywordAcceptThreshold)
	}
	if c.KeywordMatchThreshold < 0 || c.KeywordMatchThreshold > 1 {
		return fmt.Errorf("KEYWORD_MATCH_THRESHOLD must be 0-1, got %v", c.KeywordMatchThreshold)
	}
	if c.MaxQueueSize <= 0 {
		return fmt.Errorf("MAX_QUEUE_SIZE must be positive, got %d", c.MaxQueueSize)
	}
	if c.SessionTimeout <= 0 {
		return errors.New("SESSION_TIMEOUT must be positive")
	}
	switch c.SourcePolicy {
	case "heuristic", "classifier":
	default:
		return fmt.Errorf("SOURCE_POLICY must be 'heuristic' or 'classifier', got %q", c.SourcePolicy)
	}
	return nil
}

// SQLitePath returns the full path to the local snapshot database.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "snapshot.db")
}

// HasLLM reports whether any LLM provider is configured.
func (c *Config) HasLLM() bool {
	return c.GeminiAPIKey != "" || c.FallbackLLMAPIKey != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
