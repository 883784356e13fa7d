package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Crawl.StartURL); err != nil {
		return fmt.Errorf("crawl.start_url: %w", err)
	}
	if cfg.Crawl.MaxPages < 0 {
		return fmt.Errorf("crawl.max_pages must be >= 0, got %d", cfg.Crawl.MaxPages)
	}
	if cfg.Crawl.Concurrency < 1 || cfg.Crawl.Concurrency > 100 {
		return fmt.Errorf("crawl.concurrency must be 1-100, got %d", cfg.Crawl.Concurrency)
	}
	if cfg.Crawl.RequestTimeout <= 0 {
		return fmt.Errorf("crawl.request_timeout must be > 0")
	}
	if cfg.Crawl.PolitenessDelay < 0 {
		return fmt.Errorf("crawl.politeness_delay must be >= 0")
	}
	for _, c := range cfg.Crawl.Cookies {
		if c.Name == "" {
			return fmt.Errorf("crawl.cookies: cookie with empty name")
		}
	}

	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	if cfg.Parser.DetailLinks == "" || cfg.Parser.NextPage == "" {
		return fmt.Errorf("parser.detail_links and parser.next_page are required")
	}
	if cfg.Parser.ProfileXPath == "" {
		return fmt.Errorf("parser.profile_xpath is required")
	}

	if cfg.Export.OutputDir == "" {
		return fmt.Errorf("export.output_dir is required")
	}
	if cfg.Export.FilePrefix == "" {
		return fmt.Errorf("export.file_prefix is required")
	}
	if len(cfg.Export.Formats) == 0 {
		return fmt.Errorf("export.formats must list at least one format")
	}
	validFormats := map[string]bool{"xlsx": true, "csv": true, "json": true}
	for _, f := range cfg.Export.Formats {
		if !validFormats[strings.ToLower(f)] {
			return fmt.Errorf("export.formats: %q is not supported (valid: xlsx, csv, json)", f)
		}
	}

	if cfg.Export.Photos && cfg.Export.PhotoMaxSize <= 0 {
		return fmt.Errorf("export.photo_max_size must be > 0 when photos are enabled")
	}

	if cfg.Translate.Enabled {
		if cfg.Translate.Workers < 1 {
			return fmt.Errorf("translate.workers must be >= 1, got %d", cfg.Translate.Workers)
		}
		if cfg.Translate.Target == "" {
			return fmt.Errorf("translate.target is required when translation is enabled")
		}
		if err := ValidateURL(cfg.Translate.Endpoint); err != nil {
			return fmt.Errorf("translate.endpoint: %w", err)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is valid for crawling.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
