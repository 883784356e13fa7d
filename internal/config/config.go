package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for wantedcrawl.
type Config struct {
	Crawl     CrawlConfig     `mapstructure:"crawl"     yaml:"crawl"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"   yaml:"fetcher"`
	Parser    ParserConfig    `mapstructure:"parser"    yaml:"parser"`
	Export    ExportConfig    `mapstructure:"export"    yaml:"export"`
	Translate TranslateConfig `mapstructure:"translate" yaml:"translate"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// CrawlConfig controls the listing/detail crawl.
type CrawlConfig struct {
	StartURL         string            `mapstructure:"start_url"          yaml:"start_url"`
	MaxPages         int               `mapstructure:"max_pages"          yaml:"max_pages"`
	Concurrency      int               `mapstructure:"concurrency"        yaml:"concurrency"`
	RequestTimeout   time.Duration     `mapstructure:"request_timeout"    yaml:"request_timeout"`
	PolitenessDelay  time.Duration     `mapstructure:"politeness_delay"   yaml:"politeness_delay"`
	RespectRobotsTxt bool              `mapstructure:"respect_robots_txt" yaml:"respect_robots_txt"`
	UserAgent        string            `mapstructure:"user_agent"         yaml:"user_agent"`
	Headers          map[string]string `mapstructure:"headers"            yaml:"headers"`
	Cookies          []Cookie          `mapstructure:"cookies"            yaml:"cookies"`
}

// Cookie is a session cookie sent with every request. Names are case sensitive,
// which is why cookies are a list rather than a map.
type Cookie struct {
	Name  string `mapstructure:"name"  yaml:"name"`
	Value string `mapstructure:"value" yaml:"value"`
}

// FetcherConfig controls the page fetcher.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	Stealth         bool          `mapstructure:"stealth"           yaml:"stealth"`
}

// ParserConfig holds the selectors for listing and detail pages.
type ParserConfig struct {
	DetailLinks  string `mapstructure:"detail_links"  yaml:"detail_links"`  // CSS, listing page
	NextPage     string `mapstructure:"next_page"     yaml:"next_page"`     // CSS, listing page
	ProfileXPath string `mapstructure:"profile_xpath" yaml:"profile_xpath"` // container of the labelled fields
	DetailsXPath string `mapstructure:"details_xpath" yaml:"details_xpath"`
	PhotoXPath   string `mapstructure:"photo_xpath"   yaml:"photo_xpath"`
}

// ExportConfig controls the spreadsheet exports.
type ExportConfig struct {
	OutputDir        string   `mapstructure:"output_dir"        yaml:"output_dir"`
	FilePrefix       string   `mapstructure:"file_prefix"       yaml:"file_prefix"`
	TranslatedPrefix string   `mapstructure:"translated_prefix" yaml:"translated_prefix"`
	Formats          []string `mapstructure:"formats"           yaml:"formats"`
	MongoURI         string   `mapstructure:"mongo_uri"         yaml:"mongo_uri"`
	MongoDatabase    string   `mapstructure:"mongo_database"    yaml:"mongo_database"`
	MongoCollection  string   `mapstructure:"mongo_collection"  yaml:"mongo_collection"`
	Photos           bool     `mapstructure:"photos"            yaml:"photos"`
	PhotoDir         string   `mapstructure:"photo_dir"         yaml:"photo_dir"` // relative to output_dir
	PhotoMaxSize     int64    `mapstructure:"photo_max_size"    yaml:"photo_max_size"`
}

// TranslateConfig controls the machine translation of the exported table.
type TranslateConfig struct {
	Enabled     bool          `mapstructure:"enabled"      yaml:"enabled"`
	Source      string        `mapstructure:"source"       yaml:"source"`
	Target      string        `mapstructure:"target"       yaml:"target"`
	Workers     int           `mapstructure:"workers"      yaml:"workers"`
	Timeout     time.Duration `mapstructure:"timeout"      yaml:"timeout"`
	Endpoint    string        `mapstructure:"endpoint"     yaml:"endpoint"`
	SkipColumns []string      `mapstructure:"skip_columns" yaml:"skip_columns"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus-style metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config targeting the politiaromana.ro most-wanted listing.
func DefaultConfig() *Config {
	return &Config{
		Crawl: CrawlConfig{
			StartURL:        "https://politiaromana.ro/en/most-wanted",
			MaxPages:        0,
			Concurrency:     8,
			RequestTimeout:  30 * time.Second,
			PolitenessDelay: 0,
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
			Headers: map[string]string{
				"accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
				"accept-language":           "en-US,en;q=0.9,tr;q=0.8",
				"cache-control":             "no-cache",
				"pragma":                    "no-cache",
				"priority":                  "u=0, i",
				"sec-ch-ua":                 `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
				"sec-ch-ua-mobile":          "?0",
				"sec-ch-ua-platform":        `"Windows"`,
				"sec-fetch-dest":            "document",
				"sec-fetch-mode":            "navigate",
				"sec-fetch-site":            "none",
				"sec-fetch-user":            "?1",
				"upgrade-insecure-requests": "1",
			},
			Cookies: []Cookie{
				{Name: "cookiesession1", Value: "678B286D4C4FAC37189C52B1F29297E0"},
				{Name: "PHPSESSID", Value: "q3h6733mieu1efthfd12dm4jo2"},
				{Name: "popup_login", Value: "yes"},
				{Name: "_gid", Value: "GA1.2.982851257.1733120151"},
				{Name: "_ga_NVWBC6YDH5", Value: "GS1.1.1733120151.2.1.1733120284.0.0.0"},
				{Name: "_ga", Value: "GA1.1.1638476436.1732855986"},
			},
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    20,
		},
		Parser: ParserConfig{
			DetailLinks:  "h3.descNume a[href]",
			NextPage:     "a.buttonPaginatie.next[href]",
			ProfileXPath: `//div[@class="descDetaliiDisparuti"]`,
			DetailsXPath: `//div[@class="detaliiSuplimentareDisparuti"]//p/text()`,
			PhotoXPath:   `//*[@class="pozaDetaliiDisparuti"]/img/@src`,
		},
		Export: ExportConfig{
			OutputDir:        "files",
			FilePrefix:       "politiaromana",
			TranslatedPrefix: "translated_",
			Formats:          []string{"xlsx"},
			MongoDatabase:    "wantedcrawl",
			MongoCollection:  "records",
			PhotoDir:         "photos",
			PhotoMaxSize:     5 * 1024 * 1024, // 5MB
		},
		Translate: TranslateConfig{
			Enabled:     true,
			Source:      "auto",
			Target:      "en",
			Workers:     10,
			Timeout:     15 * time.Second,
			Endpoint:    "https://translate.googleapis.com",
			SkipColumns: []string{"id"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
