package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigAppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("crawl:\n  seed: https://file.test/\n  workers: 3\nfetch:\n  max_retries: 4\n"), 0o644))

	cfg, err := loadConfig(CLI{
		Seed:         "https://cli.test/",
		Config:       path,
		Timeout:      2 * time.Second,
		IgnoreRobots: true,
		Retries:      -1,
		XLSX:         true,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://cli.test/", cfg.Crawl.Seed)
	assert.Equal(t, 3, cfg.Crawl.Workers)
	assert.Equal(t, 4, cfg.Fetch.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Fetch.Timeout.Duration)
	assert.False(t, cfg.Politeness.RespectRobots)
	assert.True(t, cfg.Output.Workbook)
}

func TestLoadConfigRequiresSeed(t *testing.T) {
	_, err := loadConfig(CLI{Retries: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crawl.seed")
}

func TestLoadConfigZeroRetriesOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch:\n  max_retries: 4\n"), 0o644))

	cfg, err := loadConfig(CLI{Seed: "example.test", Config: path, Retries: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Fetch.MaxRetries)
}
