package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "FEEDSENSE_CONFIG"
	dbPathEnv     = "FEEDSENSE_DB_PATH"
	apiKeyEnv     = "LLM_API_KEY"
	modelEnv      = "LLM_MODEL_NAME"
	baseURLEnv    = "LLM_BASE_URL"
)

// Config holds high-level settings required across the application. It is
// built once at process entry and passed into component constructors; no
// component reads the environment directly.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig describes the sqlite database location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LLMConfig defines how to contact the OpenAI-compatible judge API.
type LLMConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`
}

// IngestConfig tunes the ingestion sweep.
type IngestConfig struct {
	Workers             int `yaml:"workers"`
	FetchTimeoutSeconds int `yaml:"fetchTimeoutSeconds"`
}

// FetchTimeout is the per-feed fetch deadline.
func (c IngestConfig) FetchTimeout() time.Duration {
	if c.FetchTimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// ScoringConfig tunes the scoring engine.
type ScoringConfig struct {
	DefaultLimit          int `yaml:"defaultLimit"`
	RequestTimeoutSeconds int `yaml:"requestTimeoutSeconds"`
}

// RequestTimeout is the per-article judge call deadline.
func (c ScoringConfig) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(dbPathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(apiKeyEnv); v != "" {
		c.LLM.APIKey = v
	}

	if v := os.Getenv(modelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(baseURLEnv); v != "" {
		c.LLM.BaseURL = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.LLM.BaseURL != "" {
		base.LLM.BaseURL = override.LLM.BaseURL
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}

	if override.Ingest.Workers > 0 {
		base.Ingest.Workers = override.Ingest.Workers
	}
	if override.Ingest.FetchTimeoutSeconds > 0 {
		base.Ingest.FetchTimeoutSeconds = override.Ingest.FetchTimeoutSeconds
	}

	if override.Scoring.DefaultLimit > 0 {
		base.Scoring.DefaultLimit = override.Scoring.DefaultLimit
	}
	if override.Scoring.RequestTimeoutSeconds > 0 {
		base.Scoring.RequestTimeoutSeconds = override.Scoring.RequestTimeoutSeconds
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Path: "feedsense.db"},
		LLM: LLMConfig{
			BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
			Model:   "qwen-turbo",
			APIKey:  "",
		},
		Ingest: IngestConfig{
			Workers:             4,
			FetchTimeoutSeconds: 20,
		},
		Scoring: ScoringConfig{
			DefaultLimit:          10,
			RequestTimeoutSeconds: 60,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
