package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with no file: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("default addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Match.VictoryScore != 8 || cfg.Match.BestOf != 3 {
		t.Errorf("default match = %d/%d, want 8/3", cfg.Match.VictoryScore, cfg.Match.BestOf)
	}
	if cfg.Database.DSN != "" {
		t.Errorf("default DSN should be empty, got %q", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default log level = %q", cfg.Logging.Level)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server:
  addr: ":9999"
  shutdown_timeout: 3s
catalog:
  path: /srv/cards.yaml
  strict_clauses: true
match:
  victory_score: 10
  best_of: 1
replay:
  dir: /var/lib/rift/replays
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("shutdown_timeout = %v", cfg.Server.ShutdownTimeout)
	}
	if !cfg.Catalog.StrictClauses || cfg.Catalog.Path != "/srv/cards.yaml" {
		t.Errorf("catalog = %+v", cfg.Catalog)
	}
	if cfg.Match.VictoryScore != 10 || cfg.Match.BestOf != 1 {
		t.Errorf("match = %+v", cfg.Match)
	}
	if cfg.Replay.Dir != "/var/lib/rift/replays" {
		t.Errorf("replay dir = %q", cfg.Replay.Dir)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RIFT_SERVER_ADDR", ":7001")
	t.Setenv("RIFT_DATABASE_DSN", "postgres://rift@localhost/rift")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7001" {
		t.Errorf("env override addr = %q, want :7001", cfg.Server.Addr)
	}
	if cfg.Database.DSN != "postgres://rift@localhost/rift" {
		t.Errorf("env override dsn = %q", cfg.Database.DSN)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"best_of":       "match:\n  best_of: 2\n",
		"victory_score": "match:\n  victory_score: 0\n",
		"log_level":     "logging:\n  level: verbose\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name+".yaml")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for explicit missing file")
	}
}
