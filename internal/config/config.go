package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Rules and lemmatization
	RulesFile       string
	LemmaDictPath   string
	LemmaServiceURL string
	LemmaAPIKey     string
	LemmaTimeout    time.Duration
	LemmaCacheSize  int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Report history. Empty DatabaseURL keeps reports in memory.
	DatabaseURL    string
	ReportMaxAge   time.Duration
	ReportFontPath string

	// HTTP
	CORSOrigins []string

	// PDF
	PDFFallbackPdftotext bool

	LogLevel slog.Level
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("NORMATEXT_API_KEY"),

		RulesFile:       os.Getenv("RULES_FILE"),
		LemmaDictPath:   os.Getenv("LEMMA_DICT_PATH"),
		LemmaServiceURL: os.Getenv("LEMMA_SERVICE_URL"),
		LemmaAPIKey:     os.Getenv("LEMMA_API_KEY"),
		LemmaTimeout:    envDuration("LEMMA_TIMEOUT", 5*time.Second),
		LemmaCacheSize:  envInt("LEMMA_CACHE_SIZE", 10000),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 20971520), // 20MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ReportMaxAge:   envDuration("REPORT_MAX_AGE", 24*time.Hour),
		ReportFontPath: os.Getenv("REPORT_FONT_PATH"),

		CORSOrigins: envList("CORS_ORIGINS", []string{"*"}),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20971520
	}
	if cfg.LemmaCacheSize <= 0 {
		cfg.LemmaCacheSize = 10000
	}
	if cfg.LemmaTimeout <= 0 {
		cfg.LemmaTimeout = 5 * time.Second
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.ReportMaxAge < 0 {
		cfg.ReportMaxAge = 0
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("NORMATEXT_API_KEY is required")
	}
	if c.ReportFontPath != "" {
		if _, err := os.Stat(c.ReportFontPath); err != nil {
			return fmt.Errorf("REPORT_FONT_PATH: %w", err)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func envLevel(key string, fallback slog.Level) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(os.Getenv(key))); err != nil {
		return fallback
	}
	return l
}
