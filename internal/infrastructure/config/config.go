// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Values missing from a YAML file keep their defaults.
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	engineCfg := cfg.Analysis.EngineConfig()
//	dbPath := cfg.Storage.DatabasePath
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/recurring-finder/internal/domain/analysis"
)

// Config represents the entire application configuration
type Config struct {
	Analysis      AnalysisConfig      `yaml:"analysis"`
	Links         LinksConfig         `yaml:"links"`
	Storage       StorageConfig       `yaml:"storage"`
	API           APIConfig           `yaml:"api"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// AnalysisConfig holds the recurrence engine parameters
type AnalysisConfig struct {
	SimilarityThreshold int     `yaml:"similarity_threshold"`
	MinOccurrences      int     `yaml:"min_occurrences"`
	MaxGapDays          int     `yaml:"max_gap_days"`
	AmountVariance      float64 `yaml:"amount_variance"`
}

// LinksConfig holds cancellation link lookup settings
type LinksConfig struct {
	File                string `yaml:"file"`
	SimilarityThreshold int    `yaml:"similarity_threshold"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// APIConfig holds HTTP server settings
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	engine := analysis.DefaultConfig()
	return &Config{
		Analysis: AnalysisConfig{
			SimilarityThreshold: engine.SimilarityThreshold,
			MinOccurrences:      engine.MinOccurrences,
			MaxGapDays:          engine.MaxGapDays,
			AmountVariance:      engine.AmountVariance,
		},
		Links: LinksConfig{
			File:                "known_merchants.yaml",
			SimilarityThreshold: 80,
		},
		Storage: StorageConfig{
			DatabasePath: "recurring.db",
		},
		API: APIConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "text",
			},
		},
	}
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${RECURRING_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	def := Default()
	return &Config{
		Analysis: AnalysisConfig{
			SimilarityThreshold: getEnvInt("SIMILARITY_THRESHOLD", def.Analysis.SimilarityThreshold),
			MinOccurrences:      getEnvInt("MIN_OCCURRENCES", def.Analysis.MinOccurrences),
			MaxGapDays:          getEnvInt("MAX_GAP_DAYS", def.Analysis.MaxGapDays),
			AmountVariance:      getEnvFloat("AMOUNT_VARIANCE", def.Analysis.AmountVariance),
		},
		Links: LinksConfig{
			File:                getEnv("RECURRING_LINKS_FILE", def.Links.File),
			SimilarityThreshold: getEnvInt("LINKS_SIMILARITY_THRESHOLD", def.Links.SimilarityThreshold),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("RECURRING_DB_PATH", def.Storage.DatabasePath),
		},
		API: APIConfig{
			Port:           getEnvInt("API_PORT", def.API.Port),
			AllowedOrigins: getEnvList("API_ALLOWED_ORIGINS", def.API.AllowedOrigins),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", def.Observability.Logging.Level),
				Format: getEnv("LOG_FORMAT", def.Observability.Logging.Format),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// Validate checks the engine and link parameters.
func (c *Config) Validate() error {
	if err := c.Analysis.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if c.Links.SimilarityThreshold < 0 || c.Links.SimilarityThreshold > 100 {
		return fmt.Errorf("links: similarity threshold must be within 0..100, got %d", c.Links.SimilarityThreshold)
	}
	return nil
}

// EngineConfig converts the YAML section into the engine's Config.
func (a AnalysisConfig) EngineConfig() analysis.Config {
	return analysis.Config{
		SimilarityThreshold: a.SimilarityThreshold,
		MinOccurrences:      a.MinOccurrences,
		MaxGapDays:          a.MaxGapDays,
		AmountVariance:      a.AmountVariance,
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return result
		}
	}
	return fallback
}

// getEnvFloat retrieves a float environment variable with a fallback default
func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return result
		}
	}
	return fallback
}

// getEnvList splits a comma-separated environment variable
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
