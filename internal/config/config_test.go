package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")

	cfg := Load()

	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Scraper.Timeout() != 10*time.Second {
		t.Fatalf("timeout = %v", cfg.Scraper.Timeout())
	}
	if cfg.Scraper.DefaultDelaySeconds != 3 {
		t.Fatalf("delay = %v", cfg.Scraper.DefaultDelaySeconds)
	}
	if cfg.Jobs.StateFile != "data/jobs.json" {
		t.Fatalf("state file = %q", cfg.Jobs.StateFile)
	}
	if cfg.Updater.Interval() != 0 {
		t.Fatalf("updater interval = %v", cfg.Updater.Interval())
	}
}

func TestFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
http:
  addr: ":9090"
scraper:
  timeoutSeconds: 30
updater:
  intervalMinutes: 15
sitesFile: custom/sites.yaml
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Scraper.Timeout() != 30*time.Second {
		t.Fatalf("timeout = %v", cfg.Scraper.Timeout())
	}
	if cfg.Updater.Interval() != 15*time.Minute {
		t.Fatalf("updater interval = %v", cfg.Updater.Interval())
	}
	if cfg.SitesFile != "custom/sites.yaml" {
		t.Fatalf("sites file = %q", cfg.SitesFile)
	}
	// Untouched sections keep their defaults.
	if cfg.Jobs.DownloadDir != "downloads" {
		t.Fatalf("download dir = %q", cfg.Jobs.DownloadDir)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("http:\n  addr: \":9090\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(httpAddrEnv, ":7070")
	t.Setenv(databaseDSNEnv, "postgres://env/db")

	cfg := Load()
	if cfg.HTTP.Addr != ":7070" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Database.DSN != "postgres://env/db" {
		t.Fatalf("dsn = %q", cfg.Database.DSN)
	}
}

func TestUnreadableFileFallsBackToDefaults(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "absent.yaml"))

	cfg := Load()
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
}
