package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadSubstitutesEnvVars(t *testing.T) {
	t.Setenv("VIVARIUM_TEST_DSN", "postgres://live:secret@db/vivarium")

	path := writeConfig(t, `{
		"server": {"port": 9090, "log_level": "debug"},
		"generator": {"type": "openai", "api_key": "${VIVARIUM_TEST_KEY:fallback-key}"},
		"database": {
			"postgres": {"dsn": "${VIVARIUM_TEST_DSN}"},
			"redis": {"url": "${VIVARIUM_TEST_REDIS:redis://localhost:6379}"}
		},
		"bus": {"buffer_size": 128}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Postgres.DSN != "postgres://live:secret@db/vivarium" {
		t.Errorf("dsn = %q, env var not substituted", cfg.Database.Postgres.DSN)
	}
	if cfg.Generator.APIKey != "fallback-key" {
		t.Errorf("api_key = %q, want default for unset var", cfg.Generator.APIKey)
	}
	if cfg.Database.Redis.URL != "redis://localhost:6379" {
		t.Errorf("redis url = %q, want default", cfg.Database.Redis.URL)
	}
	if cfg.Server.Port != 9090 || cfg.Bus.BufferSize != 128 {
		t.Errorf("explicit values overridden: %+v", cfg)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.Server.LogLevel)
	}
	if cfg.Generator.Type != "template" {
		t.Errorf("generator type = %q, want template", cfg.Generator.Type)
	}
	if cfg.Bus.BufferSize != 32 {
		t.Errorf("bus buffer = %d, want 32", cfg.Bus.BufferSize)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
