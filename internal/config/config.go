package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Annotation corpus sources.
const (
	SourceFile   = "file"
	SourceSQLite = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	// Corpora
	AnnotationsPath   string
	AnnotationsSource string // "file" or "sqlite" (default: file)
	BiblePath         string

	// Database
	DatabasePath string

	// VecLite
	VecLitePath   string // Related-notes index; empty disables it
	VecLiteConfig string // Path to veclite.yaml (optional)

	// Anthropic API
	AnthropicAPIKey   string
	AnthropicModel    string
	GenerationTimeout time.Duration

	// Commentary
	PlayName string
	CacheTTL time.Duration // 0 disables the commentary cache

	// HTTP
	HTTPAddr    string
	CORSOrigins []string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables.
// It automatically loads .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AnnotationsPath:   getEnv("ANNOTATIONS_PATH", "data/macbeth_annotations.json"),
		AnnotationsSource: strings.ToLower(getEnv("ANNOTATIONS_SOURCE", SourceFile)),
		BiblePath:         getEnv("BIBLE_PATH", "data/geneva_bible.txt"),
		DatabasePath:      getEnv("DATABASE_PATH", "data/fathom.db"),
		VecLitePath:       getEnv("VECLITE_PATH", ""),
		VecLiteConfig:     getEnv("VECLITE_CONFIG", ""),
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:    getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		PlayName:          getEnv("PLAY_NAME", "Macbeth"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	// Parse durations
	var err error
	cfg.GenerationTimeout, err = time.ParseDuration(getEnv("GENERATION_TIMEOUT", "90s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GENERATION_TIMEOUT: %w", err)
	}

	cfg.CacheTTL, err = time.ParseDuration(getEnv("CACHE_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	switch c.AnnotationsSource {
	case SourceFile, "":
		if c.AnnotationsPath == "" {
			return fmt.Errorf("ANNOTATIONS_PATH is required")
		}
	case SourceSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required when ANNOTATIONS_SOURCE is sqlite")
		}
	default:
		return fmt.Errorf("invalid ANNOTATIONS_SOURCE: %s (must be 'file' or 'sqlite')", c.AnnotationsSource)
	}
	if c.BiblePath == "" {
		return fmt.Errorf("BIBLE_PATH is required")
	}
	return nil
}

// ValidateForDatabase checks configuration needed for import and migrate.
func (c *Config) ValidateForDatabase() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	return nil
}

// ValidateForGeneration checks configuration needed for commentary generation.
func (c *Config) ValidateForGeneration() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required for generation")
	}
	return nil
}

// ValidateForVecLite checks configuration needed for the related-notes index.
func (c *Config) ValidateForVecLite() error {
	if c.VecLitePath == "" {
		return fmt.Errorf("VECLITE_PATH is required")
	}
	return nil
}

// ValidateForServe checks all configuration needed for serve mode.
// Generation is optional: without an API key every miss is reported as an
// error outcome.
func (c *Config) ValidateForServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
