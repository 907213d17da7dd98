package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"brokenlinks/internal/crawler"
)

const maxWorkers = 256

// Config captures everything a brokenlinks run needs.
type Config struct {
	Crawl      CrawlConfig      `yaml:"crawl"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Politeness PolitenessConfig `yaml:"politeness"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// CrawlConfig controls the frontier and link classification.
type CrawlConfig struct {
	Seed             string   `yaml:"seed"`
	Workers          int      `yaml:"workers"`
	MaxPages         int      `yaml:"max_pages"`
	RunTimeout       Duration `yaml:"run_timeout"`
	PathPrefix       string   `yaml:"path_prefix"`
	UnhandledSchemes []string `yaml:"unhandled_schemes"`
	SkipExtensions   []string `yaml:"skip_extensions"`
	CheckAssets      bool     `yaml:"check_assets"`
}

// FetchConfig controls individual HTTP requests.
type FetchConfig struct {
	Timeout         Duration `yaml:"timeout"`
	UserAgent       string   `yaml:"user_agent"`
	MaxBodyBytes    int64    `yaml:"max_body_bytes"`
	FollowRedirects bool     `yaml:"follow_redirects"`
	MaxRetries      int      `yaml:"max_retries"`
	RetryBackoff    Duration `yaml:"retry_backoff"`
}

// PolitenessConfig throttles the crawl.
type PolitenessConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	RespectRobots     bool    `yaml:"respect_robots"`
}

// OutputConfig selects the report files written after a run.
type OutputConfig struct {
	Dir      string `yaml:"dir"`
	JSON     bool   `yaml:"json"`
	Workbook bool   `yaml:"workbook"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns a Config populated with the stock settings.
func Default() Config {
	return Config{
		Crawl: CrawlConfig{
			Workers:          8,
			UnhandledSchemes: []string{"mailto", "javascript", "tel", "data", "ftp"},
			SkipExtensions:   []string{"gif", "jpg", "jpeg", "png", "mp4", "mov", "pdf", "zip"},
		},
		Fetch: FetchConfig{
			Timeout:      DurationFrom(10 * time.Second),
			UserAgent:    "brokenlinks-bot/1.0",
			MaxBodyBytes: 5 * 1024 * 1024,
			RetryBackoff: DurationFrom(500 * time.Millisecond),
		},
		Politeness: PolitenessConfig{
			RespectRobots: true,
		},
		Output: OutputConfig{
			Dir: ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader. Unknown keys
// are rejected. The result is normalised but not validated, since the seed
// usually arrives from the command line afterwards.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Normalise()
	return &cfg, nil
}

// Normalise trims and lowercases list and string settings.
func (c *Config) Normalise() {
	c.Crawl.Seed = strings.TrimSpace(c.Crawl.Seed)
	c.Crawl.PathPrefix = strings.TrimSpace(c.Crawl.PathPrefix)
	c.Crawl.UnhandledSchemes = dedupeLower(c.Crawl.UnhandledSchemes)
	c.Crawl.SkipExtensions = dedupeLower(c.Crawl.SkipExtensions)
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Output.Dir = strings.TrimSpace(c.Output.Dir)
	if c.Output.Dir == "" {
		c.Output.Dir = "."
	}
}

// Validate enforces the invariants of a runnable configuration.
func (c Config) Validate() error {
	if c.Crawl.Seed == "" {
		return errors.New("crawl.seed must be set")
	}
	if err := crawler.ValidateSeed(c.Crawl.Seed); err != nil {
		return fmt.Errorf("crawl.seed: %w", err)
	}
	if c.Crawl.Workers < 1 || c.Crawl.Workers > maxWorkers {
		return fmt.Errorf("crawl.workers must be between 1 and %d (got %d)", maxWorkers, c.Crawl.Workers)
	}
	if c.Crawl.MaxPages < 0 {
		return fmt.Errorf("crawl.max_pages must be >= 0 (got %d)", c.Crawl.MaxPages)
	}
	if c.Crawl.RunTimeout.Duration < 0 {
		return fmt.Errorf("crawl.run_timeout must be >= 0 (got %s)", c.Crawl.RunTimeout)
	}
	if c.Fetch.Timeout.Duration <= 0 {
		return fmt.Errorf("fetch.timeout must be > 0 (got %s)", c.Fetch.Timeout)
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be > 0 (got %d)", c.Fetch.MaxBodyBytes)
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must be >= 0 (got %d)", c.Fetch.MaxRetries)
	}
	if c.Fetch.RetryBackoff.Duration < 0 {
		return fmt.Errorf("fetch.retry_backoff must be >= 0 (got %s)", c.Fetch.RetryBackoff)
	}
	if c.Fetch.UserAgent == "" {
		return errors.New("fetch.user_agent must be set")
	}
	if c.Politeness.RequestsPerSecond < 0 {
		return fmt.Errorf("politeness.requests_per_second must be >= 0 (got %g)", c.Politeness.RequestsPerSecond)
	}
	if c.Politeness.Burst < 0 {
		return fmt.Errorf("politeness.burst must be >= 0 (got %d)", c.Politeness.Burst)
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("logging.format must be text, json or logfmt (got %q)", c.Logging.Format)
	}
	return nil
}

// CrawlerConfig maps the file configuration onto crawler settings.
func (c Config) CrawlerConfig(logger *log.Logger, progress func(string)) crawler.Config {
	return crawler.Config{
		StartURL:          c.Crawl.Seed,
		MaxWorkers:        c.Crawl.Workers,
		Timeout:           c.Fetch.Timeout.Duration,
		RunTimeout:        c.Crawl.RunTimeout.Duration,
		MaxPages:          c.Crawl.MaxPages,
		RequestsPerSecond: c.Politeness.RequestsPerSecond,
		Burst:             c.Politeness.Burst,
		PathPrefix:        c.Crawl.PathPrefix,
		UnhandledSchemes:  nonNil(c.Crawl.UnhandledSchemes),
		SkipExtensions:    nonNil(c.Crawl.SkipExtensions),
		CheckAssets:       c.Crawl.CheckAssets,
		IgnoreRobots:      !c.Politeness.RespectRobots,
		FollowRedirects:   c.Fetch.FollowRedirects,
		MaxRetries:        c.Fetch.MaxRetries,
		RetryBackoff:      c.Fetch.RetryBackoff.Duration,
		MaxBodyBytes:      c.Fetch.MaxBodyBytes,
		UserAgent:         c.Fetch.UserAgent,
		Logger:            logger,
		Progress:          progress,
	}
}

// nonNil keeps an explicitly emptied list from selecting the crawler defaults.
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func dedupeLower(values []string) []string {
	if values == nil {
		return nil
	}
	unique := make(map[string]struct{}, len(values))
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := unique[v]; ok {
			continue
		}
		unique[v] = struct{}{}
		cleaned = append(cleaned, v)
	}
	return cleaned
}
