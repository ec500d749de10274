package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port: got %d, want 8000", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host: got %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Storage.StorageEngine != "sqlite" {
		t.Errorf("Storage.StorageEngine: got %q, want sqlite", cfg.Storage.StorageEngine)
	}
	if cfg.LLM.Timeout != 60*time.Second {
		t.Errorf("LLM.Timeout: got %v, want 60s", cfg.LLM.Timeout)
	}
	if cfg.Security.SecurityMode != "development" {
		t.Errorf("Security.SecurityMode: got %q, want development", cfg.Security.SecurityMode)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("TASKCHAT_PORT", "9090")
	t.Setenv("TASKCHAT_STORAGE_ENGINE", "postgres")
	t.Setenv("TASKCHAT_POSTGRES_DSN", "postgres://localhost/taskchat")
	t.Setenv("TASKCHAT_LLM_TIMEOUT", "30s")
	t.Setenv("TASKCHAT_RATE_LIMIT", "2.5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port: got %d, want 9090", cfg.Server.Port)
	}
	if cfg.Storage.StorageEngine != "postgres" {
		t.Errorf("Storage.StorageEngine: got %q, want postgres", cfg.Storage.StorageEngine)
	}
	if cfg.Storage.PostgresDSN != "postgres://localhost/taskchat" {
		t.Errorf("Storage.PostgresDSN: got %q", cfg.Storage.PostgresDSN)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Errorf("LLM.Timeout: got %v, want 30s", cfg.LLM.Timeout)
	}
	if cfg.Tools.RateLimit != 2.5 {
		t.Errorf("Tools.RateLimit: got %v, want 2.5", cfg.Tools.RateLimit)
	}
}

func TestLoadConfig_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("TASKCHAT_PORT", "not-a-number")
	t.Setenv("TASKCHAT_LLM_TIMEOUT", "soon")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port: got %d, want default 8000", cfg.Server.Port)
	}
	if cfg.LLM.Timeout != 60*time.Second {
		t.Errorf("LLM.Timeout: got %v, want default 60s", cfg.LLM.Timeout)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskchat.yaml")
	data := []byte(`
server:
  port: 8800
  host: 0.0.0.0
storage:
  engine: sqlite
  data_path: /var/lib/taskchat
llm:
  model: llama-3.3-70b-versatile
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile() failed: %v", err)
	}
	if cfg.Server.Port != 8800 {
		t.Errorf("Server.Port: got %d, want 8800", cfg.Server.Port)
	}
	if cfg.Storage.DataPath != "/var/lib/taskchat" {
		t.Errorf("Storage.DataPath: got %q", cfg.Storage.DataPath)
	}
	if cfg.LLM.Model != "llama-3.3-70b-versatile" {
		t.Errorf("LLM.Model: got %q", cfg.LLM.Model)
	}
}

func TestLoadConfigFromFile_EnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskchat.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8800\n"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("TASKCHAT_PORT", "9999")

	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile() failed: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port: got %d, want env override 9999", cfg.Server.Port)
	}
}

func TestLoadConfigFromFile_Missing(t *testing.T) {
	cfg, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfigFromFile() on missing file: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port: got %d, want default 8000", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	cfg, _ := LoadConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults: %v", err)
	}

	cfg.Storage.StorageEngine = "postgres"
	cfg.Storage.PostgresDSN = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject postgres without a DSN")
	}

	cfg.Storage.StorageEngine = "cassandra"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject an unknown engine")
	}

	cfg.Storage.StorageEngine = "sqlite"
	cfg.Security.SecurityMode = "production"
	cfg.Security.TokenSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject production mode without a secret")
	}
}
