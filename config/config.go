// Package config loads service configuration from a YAML file with
// environment overrides. Secrets (the model API key) come only from the
// environment; a .env file is honored when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config matches config.yaml.
type Config struct {
	Addr      string          `yaml:"addr"`
	Model     ModelConfig     `yaml:"model"`
	Catalog   string          `yaml:"catalog"`
	Docs      DocsConfig      `yaml:"docs"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Retriever RetrieverConfig `yaml:"retriever"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ModelConfig describes the chat model endpoint.
type ModelConfig struct {
	// Provider selects the client implementation: "openai" (default) or
	// "ollama" for a local server.
	Provider    string  `yaml:"provider"`
	Endpoint    string  `yaml:"endpoint"`
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env"`
}

// DocsConfig locates the documentation corpus and its vector index.
type DocsConfig struct {
	// Dir is the documentation source tree indexed by the index command.
	Dir string `yaml:"dir"`
	// IndexPath is the persistent vector database directory.
	IndexPath string `yaml:"index_path"`
	// EmbeddingModel names the embedding model used when indexing and
	// querying. Empty selects the embedding provider's default.
	EmbeddingModel string `yaml:"embedding_model"`
}

// SessionsConfig locates the session database.
type SessionsConfig struct {
	DBPath string `yaml:"db_path"`
}

// WorkspaceConfig controls the compiler workspace.
type WorkspaceConfig struct {
	BaseDir     string `yaml:"base_dir"`
	UILibrary   string `yaml:"ui_library"`
	UIVersion   string `yaml:"ui_version"`
	SkipInstall bool   `yaml:"skip_install"`
}

// WorkflowConfig tunes the orchestrator.
type WorkflowConfig struct {
	MaxIterations int `yaml:"max_iterations"`
}

// RetrieverConfig tunes documentation retrieval.
type RetrieverConfig struct {
	MaxSnippetLines int `yaml:"max_snippet_lines"`
	MaxCacheEntries int `yaml:"max_cache_entries"`
}

// LoggingConfig describes log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Addr: ":8080",
		Model: ModelConfig{
			Endpoint:  "https://api.openai.com",
			Name:      "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Catalog: "data/catalog.json",
		Docs: DocsConfig{
			Dir:       "data/docs",
			IndexPath: "data/index",
		},
		Sessions:  SessionsConfig{DBPath: "data/sessions.db"},
		Workspace: WorkspaceConfig{BaseDir: "data/workspace"},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// Load reads the config at path, falling back to defaults when the file does
// not exist, and applies environment overrides last. A .env file in the
// working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults stand
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv maps UIGEN_* environment variables over the file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("UIGEN_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("UIGEN_MODEL_PROVIDER"); v != "" {
		c.Model.Provider = v
	}
	if v := os.Getenv("UIGEN_MODEL_ENDPOINT"); v != "" {
		c.Model.Endpoint = v
	}
	if v := os.Getenv("UIGEN_MODEL_NAME"); v != "" {
		c.Model.Name = v
	}
	if v := os.Getenv("UIGEN_CATALOG"); v != "" {
		c.Catalog = v
	}
	if v := os.Getenv("UIGEN_DOCS_DIR"); v != "" {
		c.Docs.Dir = v
	}
	if v := os.Getenv("UIGEN_INDEX_PATH"); v != "" {
		c.Docs.IndexPath = v
	}
	if v := os.Getenv("UIGEN_SESSIONS_DB"); v != "" {
		c.Sessions.DBPath = v
	}
	if v := os.Getenv("UIGEN_WORKSPACE_DIR"); v != "" {
		c.Workspace.BaseDir = v
	}
	if v := os.Getenv("UIGEN_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Workflow.MaxIterations = n
		}
	}
	if v := os.Getenv("UIGEN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// APIKey resolves the model API key from the configured environment variable.
func (c *Config) APIKey() string {
	name := c.Model.APIKeyEnv
	if name == "" {
		name = "OPENAI_API_KEY"
	}
	return os.Getenv(name)
}

// NewLogger builds the process logger from the logging section.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(strings.ToLower(c.Logging.Level))
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	var zc zap.Config
	if c.Logging.JSON {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
