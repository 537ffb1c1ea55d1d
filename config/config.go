package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"reforma/internal/domain"
)

// Config holds all configuration for the reforma tool.
type Config struct {
	Content    ContentConfig    `yaml:"content"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Storage    StorageConfig    `yaml:"storage"`
	Validation ValidationConfig `yaml:"validation"`
	Server     ServerConfig     `yaml:"server"`
	Watch      WatchConfig      `yaml:"watch"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ContentConfig describes where knowledge-base documents live.
type ContentConfig struct {
	Root      string   `yaml:"root"`
	Extension string   `yaml:"extension"`
	Includes  []string `yaml:"includes"`
	Excludes  []string `yaml:"excludes"`
}

// ChunkingConfig holds chunk sizing.
type ChunkingConfig struct {
	MaxTokens        int  `yaml:"max_tokens"`
	OverlapTokens    int  `yaml:"overlap_tokens"`
	PreserveSections bool `yaml:"preserve_sections"`
}

// Options converts the section to chunker options.
func (c ChunkingConfig) Options() domain.ChunkOptions {
	return domain.ChunkOptions{
		MaxTokens:        c.MaxTokens,
		OverlapTokens:    c.OverlapTokens,
		PreserveSections: c.PreserveSections,
	}
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider"`    // "openai", "openrouter", "ollama", "compatible", "mock", "none"
	Model     string        `yaml:"model"`       // e.g., "text-embedding-3-small"
	APIKeyEnv string        `yaml:"api_key_env"` // Environment variable for API key
	BaseURL   string        `yaml:"base_url"`
	Dimension int           `yaml:"dimension"`
	BatchSize int           `yaml:"batch_size"`
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// StorageConfig selects the chunk store.
type StorageConfig struct {
	Backend        string `yaml:"backend"` // "bolt", "postgres", "memory"
	DatabaseURLEnv string `yaml:"database_url_env"`
}

// ValidationConfig holds content validation thresholds.
type ValidationConfig struct {
	MinPublishedWords int `yaml:"min_published_words"`
	MinDraftWords     int `yaml:"min_draft_words"`
	StaleDays         int `yaml:"stale_days"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// WatchConfig holds watch mode configuration.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Content: ContentConfig{
			Root:      "content",
			Extension: ".md",
			Includes:  []string{"**/*.md"},
			Excludes:  []string{"**/_*", "**/drafts/**", "**/node_modules/**"},
		},
		Chunking: ChunkingConfig{
			MaxTokens:        500,
			OverlapTokens:    50,
			PreserveSections: true,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 20,
			CacheSize: 1000,
			CacheTTL:  24 * time.Hour,
		},
		Storage: StorageConfig{
			Backend:        "bolt",
			DatabaseURLEnv: "DATABASE_URL",
		},
		Validation: ValidationConfig{
			MinPublishedWords: 300,
			MinDraftWords:     100,
			StaleDays:         180,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// PostgresVectorDimension is the width of the vector columns created by the
// postgres migrations.
const PostgresVectorDimension = 1536

// Validate reports settings that would make a component misbehave.
func (c *Config) Validate() error {
	var errs []error
	if c.Chunking.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("chunking.max_tokens must be positive"))
	}
	if c.Chunking.OverlapTokens < 0 || c.Chunking.OverlapTokens >= c.Chunking.MaxTokens {
		errs = append(errs, fmt.Errorf("chunking.overlap_tokens must be smaller than max_tokens"))
	}
	if c.Embedding.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("embedding.batch_size must be positive"))
	}
	switch c.Storage.Backend {
	case "bolt", "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}
	if c.Storage.Backend == "postgres" && c.Embedding.Dimension != 0 && c.Embedding.Dimension != PostgresVectorDimension {
		errs = append(errs, fmt.Errorf("embedding.dimension %d does not fit the postgres vector(%d) columns",
			c.Embedding.Dimension, PostgresVectorDimension))
	}
	return errors.Join(errs...)
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for reforma.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "reforma.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".reforma", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// LoadEnv loads credentials from dir/.env without overriding variables
// already set. A missing file is not an error.
func LoadEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DataDir returns the directory holding local state.
func DataDir(dir string) string {
	return filepath.Join(dir, ".reforma")
}

// IndexDBPath returns the path to the chunk database.
func IndexDBPath(dir string) string {
	return filepath.Join(DataDir(dir), "index.db")
}

// EnsureDataDir ensures the .reforma directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(DataDir(dir), 0755)
}
