package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestDefaultSessionCookies(t *testing.T) {
	var names []string
	for _, c := range DefaultConfig().Crawl.Cookies {
		if c.Value == "" {
			t.Errorf("cookie %s has no value", c.Name)
		}
		names = append(names, c.Name)
	}
	want := []string{"cookiesession1", "PHPSESSID", "popup_login", "_gid", "_ga_NVWBC6YDH5", "_ga"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("cookie names mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative start url", func(c *Config) { c.Crawl.StartURL = "/en/most-wanted" }},
		{"negative max pages", func(c *Config) { c.Crawl.MaxPages = -1 }},
		{"zero concurrency", func(c *Config) { c.Crawl.Concurrency = 0 }},
		{"unknown fetcher", func(c *Config) { c.Fetcher.Type = "curl" }},
		{"unknown format", func(c *Config) { c.Export.Formats = []string{"ods"} }},
		{"no formats", func(c *Config) { c.Export.Formats = nil }},
		{"zero workers", func(c *Config) { c.Translate.Workers = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"empty cookie name", func(c *Config) { c.Crawl.Cookies = []Cookie{{Value: "x"}} }},
		{"photos without size limit", func(c *Config) { c.Export.Photos = true; c.Export.PhotoMaxSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestValidateSkipsTranslateWhenDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Translate.Enabled = false
	cfg.Translate.Workers = 0
	if err := Validate(cfg); err != nil {
		t.Errorf("disabled translation should not be validated: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wantedcrawl.yaml")
	content := `
crawl:
  max_pages: 3
  request_timeout: 5s
  cookies:
    - name: PHPSESSID
      value: abc
export:
  output_dir: out
  formats: [XLSX, " Csv"]
translate:
  workers: 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Crawl.MaxPages != 3 {
		t.Errorf("expected max_pages 3, got %d", cfg.Crawl.MaxPages)
	}
	if cfg.Crawl.RequestTimeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", cfg.Crawl.RequestTimeout)
	}
	if len(cfg.Crawl.Cookies) != 1 || cfg.Crawl.Cookies[0].Name != "PHPSESSID" {
		t.Errorf("cookie names must keep their case, got %+v", cfg.Crawl.Cookies)
	}
	if cfg.Export.OutputDir != "out" {
		t.Errorf("unexpected output dir %q", cfg.Export.OutputDir)
	}
	if diff := cmp.Diff([]string{"xlsx", "csv"}, cfg.Export.Formats); diff != "" {
		t.Errorf("formats mismatch (-want +got):\n%s", diff)
	}
	if cfg.Translate.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Translate.Workers)
	}
	// Untouched keys keep their defaults.
	if cfg.Translate.Target != "en" {
		t.Errorf("expected default target en, got %q", cfg.Translate.Target)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("WANTEDCRAWL_CRAWL_MAX_PAGES", "7")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Crawl.MaxPages != 7 {
		t.Errorf("expected env override 7, got %d", cfg.Crawl.MaxPages)
	}
}
