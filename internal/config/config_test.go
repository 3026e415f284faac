package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	path := writeConfig(t, "debug: true\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug not loaded")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port default: got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeoutSecs != 30 {
		t.Errorf("request timeout default: got %d", cfg.Server.RequestTimeoutSecs)
	}
	if cfg.Vector.TopK != 3 {
		t.Errorf("top_k default: got %d", cfg.Vector.TopK)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("dimensions default: got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("embedding key not resolved: got %q", cfg.Embedding.APIKey)
	}
	if cfg.Chat.MaxHistory != 20 {
		t.Errorf("max history default: got %d", cfg.Chat.MaxHistory)
	}
}

func TestLoadMissingEmbeddingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := writeConfig(t, "server:\n  port: 9000\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing embedding API key")
	}
}

func TestLoadVectorKeyRequiredWhenHostSet(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PINECONE_API_KEY", "")
	path := writeConfig(t, "vector:\n  index_host: https://example.svc.pinecone.io\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing vector API key")
	}

	t.Setenv("PINECONE_API_KEY", "pc-test")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Vector.APIKey != "pc-test" {
		t.Errorf("vector key not resolved: got %q", cfg.Vector.APIKey)
	}
}

func TestSaveOmitsCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-secret")
	path := writeConfig(t, "debug: false\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	out := filepath.Join(t.TempDir(), "saved.yaml")
	if err := Save(out, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "sk-secret") {
		t.Error("saved config contains an API key")
	}
}
