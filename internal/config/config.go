// Package config provides configuration loading and structs for the Kotae server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application. Provider credentials
// are resolved from the environment exactly once, in Load, and carried here;
// nothing reads ambient environment state during request handling.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
	Generate  GenerateConfig  `yaml:"generate"`
	Chat      ChatConfig      `yaml:"chat"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Storage   StorageConfig   `yaml:"storage"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// RequestTimeoutSecs is the hard wall-clock budget for one request,
	// covering embedding, retrieval, and the full generation stream.
	RequestTimeoutSecs int `yaml:"request_timeout_secs"`
	// AllowedOrigin is the CORS origin of the chat frontend.
	AllowedOrigin string `yaml:"allowed_origin"`
}

// EmbeddingConfig holds settings for the remote embedding provider.
type EmbeddingConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	TimeoutSecs int    `yaml:"timeout_secs"`

	// APIKey is resolved from APIKeyEnv by Load; never set it in YAML.
	APIKey string `yaml:"-"`
}

// VectorConfig holds settings for the remote vector index.
type VectorConfig struct {
	// IndexHost is the index endpoint, e.g. https://pdf-rag-project-xxxx.svc.pinecone.io
	IndexHost   string `yaml:"index_host"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Namespace   string `yaml:"namespace"`
	TopK        int    `yaml:"top_k"`
	TimeoutSecs int    `yaml:"timeout_secs"`

	// APIKey is resolved from APIKeyEnv by Load; never set it in YAML.
	APIKey string `yaml:"-"`
}

// GenerateConfig holds settings for the generative model provider.
type GenerateConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`

	// APIKey is resolved from APIKeyEnv by Load; never set it in YAML.
	APIKey string `yaml:"-"`
}

// ChatConfig holds orchestrator settings.
type ChatConfig struct {
	// MaxHistory bounds how many of the newest conversation messages are
	// forwarded to the generative model. Older turns are dropped.
	MaxHistory int `yaml:"max_history"`
}

// IngestConfig holds document ingestion settings.
type IngestConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	// MaxUploadBytes bounds the accepted multipart upload size.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// StorageConfig holds the ingest registry database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// WatchConfig holds drop-directory auto-ingest settings.
type WatchConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions"`
}

// Load reads and parses the config file at path, applies defaults, expands
// paths, and resolves provider API keys from the environment. A missing key
// for any configured provider is an error here, at startup, rather than a
// surprise on the first request.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Watch.Directory != "" {
		cfg.Watch.Directory = expandPath(cfg.Watch.Directory, configDir)
	}

	if err := resolveCredentials(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveCredentials copies provider API keys out of the environment into
// the config. The vector index host is optional (the server degrades to
// ungrounded answers without it), but a configured host without a key is a
// configuration error.
func resolveCredentials(cfg *Config) error {
	cfg.Embedding.APIKey = os.Getenv(cfg.Embedding.APIKeyEnv)
	if cfg.Embedding.APIKey == "" {
		return fmt.Errorf("missing embedding API key in env %s", cfg.Embedding.APIKeyEnv)
	}
	cfg.Generate.APIKey = os.Getenv(cfg.Generate.APIKeyEnv)
	if cfg.Generate.APIKey == "" {
		return fmt.Errorf("missing generation API key in env %s", cfg.Generate.APIKeyEnv)
	}
	if cfg.Vector.IndexHost != "" {
		cfg.Vector.APIKey = os.Getenv(cfg.Vector.APIKeyEnv)
		if cfg.Vector.APIKey == "" {
			return fmt.Errorf("missing vector index API key in env %s", cfg.Vector.APIKeyEnv)
		}
	}
	return nil
}

// Save writes the config to path. Credentials are excluded by the yaml:"-"
// tags, so a saved config never leaks keys.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
