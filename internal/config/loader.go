package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied on top by the caller.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("WANTEDCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("wantedcrawl")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".wantedcrawl"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	for i, f := range cfg.Export.Formats {
		cfg.Export.Formats[i] = strings.ToLower(strings.TrimSpace(f))
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env overrides resolve.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("crawl.start_url", cfg.Crawl.StartURL)
	v.SetDefault("crawl.max_pages", cfg.Crawl.MaxPages)
	v.SetDefault("crawl.concurrency", cfg.Crawl.Concurrency)
	v.SetDefault("crawl.request_timeout", cfg.Crawl.RequestTimeout)
	v.SetDefault("crawl.politeness_delay", cfg.Crawl.PolitenessDelay)
	v.SetDefault("crawl.respect_robots_txt", cfg.Crawl.RespectRobotsTxt)
	v.SetDefault("crawl.user_agent", cfg.Crawl.UserAgent)

	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.stealth", cfg.Fetcher.Stealth)

	v.SetDefault("parser.detail_links", cfg.Parser.DetailLinks)
	v.SetDefault("parser.next_page", cfg.Parser.NextPage)
	v.SetDefault("parser.profile_xpath", cfg.Parser.ProfileXPath)
	v.SetDefault("parser.details_xpath", cfg.Parser.DetailsXPath)
	v.SetDefault("parser.photo_xpath", cfg.Parser.PhotoXPath)

	v.SetDefault("export.output_dir", cfg.Export.OutputDir)
	v.SetDefault("export.file_prefix", cfg.Export.FilePrefix)
	v.SetDefault("export.translated_prefix", cfg.Export.TranslatedPrefix)
	v.SetDefault("export.formats", cfg.Export.Formats)
	v.SetDefault("export.mongo_uri", cfg.Export.MongoURI)
	v.SetDefault("export.mongo_database", cfg.Export.MongoDatabase)
	v.SetDefault("export.mongo_collection", cfg.Export.MongoCollection)
	v.SetDefault("export.photos", cfg.Export.Photos)
	v.SetDefault("export.photo_dir", cfg.Export.PhotoDir)
	v.SetDefault("export.photo_max_size", cfg.Export.PhotoMaxSize)

	v.SetDefault("translate.enabled", cfg.Translate.Enabled)
	v.SetDefault("translate.source", cfg.Translate.Source)
	v.SetDefault("translate.target", cfg.Translate.Target)
	v.SetDefault("translate.workers", cfg.Translate.Workers)
	v.SetDefault("translate.timeout", cfg.Translate.Timeout)
	v.SetDefault("translate.endpoint", cfg.Translate.Endpoint)
	v.SetDefault("translate.skip_columns", cfg.Translate.SkipColumns)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
