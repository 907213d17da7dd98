package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultNeedsOnlySeed(t *testing.T) {
	cfg := Default()
	require.Error(t, cfg.Validate())

	cfg.Crawl.Seed = "https://example.test/"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8, cfg.Crawl.Workers)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout.Duration)
	assert.True(t, cfg.Politeness.RespectRobots)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brokenlinks.yaml")
	data := `
crawl:
  seed: " https://example.test/docs/ "
  workers: 4
  run_timeout: 2m
  skip_extensions: [PDF, ".zip", pdf]
fetch:
  timeout: 3
  retry_backoff: 1.5
  max_retries: 2
politeness:
  requests_per_second: 5
  respect_robots: false
logging:
  level: DEBUG
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://example.test/docs/", cfg.Crawl.Seed)
	assert.Equal(t, 4, cfg.Crawl.Workers)
	assert.Equal(t, 2*time.Minute, cfg.Crawl.RunTimeout.Duration)
	assert.Equal(t, []string{"pdf", ".zip"}, cfg.Crawl.SkipExtensions)
	assert.Equal(t, 3*time.Second, cfg.Fetch.Timeout.Duration)
	assert.Equal(t, 1500*time.Millisecond, cfg.Fetch.RetryBackoff.Duration)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "brokenlinks-bot/1.0", cfg.Fetch.UserAgent)

	crawlCfg := cfg.CrawlerConfig(nil, nil)
	assert.True(t, crawlCfg.IgnoreRobots)
	assert.Equal(t, 5.0, crawlCfg.RequestsPerSecond)
	assert.Equal(t, 2, crawlCfg.MaxRetries)
	assert.Equal(t, []string{"mailto", "javascript", "tel", "data", "ftp"}, crawlCfg.UnhandledSchemes)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("crawl:\n  depth: 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config")
}

func TestLoadAcceptsEmptyFile(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default().Crawl.Workers, cfg.Crawl.Workers)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"ftp seed":         func(c *Config) { c.Crawl.Seed = "ftp://example.test/" },
		"zero workers":     func(c *Config) { c.Crawl.Workers = 0 },
		"too many workers": func(c *Config) { c.Crawl.Workers = 1000 },
		"negative pages":   func(c *Config) { c.Crawl.MaxPages = -1 },
		"zero timeout":     func(c *Config) { c.Fetch.Timeout = DurationFrom(0) },
		"negative retries": func(c *Config) { c.Fetch.MaxRetries = -1 },
		"negative rps":     func(c *Config) { c.Politeness.RequestsPerSecond = -1 },
		"bad level":        func(c *Config) { c.Logging.Level = "loud" },
		"bad format":       func(c *Config) { c.Logging.Format = "xml" },
		"empty agent":      func(c *Config) { c.Fetch.UserAgent = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Crawl.Seed = "https://example.test/"
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEmptiedListsDisableDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader("crawl:\n  skip_extensions: []\n"))
	require.NoError(t, err)
	crawlCfg := cfg.CrawlerConfig(nil, nil)
	assert.NotNil(t, crawlCfg.SkipExtensions)
	assert.Empty(t, crawlCfg.SkipExtensions)
}

func TestDurationRejectsGarbage(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("fetch:\n  timeout: soon\n"))
	require.Error(t, err)
}
