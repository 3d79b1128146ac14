package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesDefaultsAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache_size: 4
items_file: /tmp/items.txt
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.CacheSize)
	require.Equal(t, defaultTimeoutSecs, cfg.CacheTimeout)
	require.Equal(t, defaultRecordWidth, cfg.RecordWidth)
	require.Equal(t, defaultMaxLines, cfg.MaxLines)
	require.Equal(t, StrategyLFU, cfg.Strategy)
}

func TestNormalize_RejectsMissingCacheSize(t *testing.T) {
	cfg := &Cache{ItemsFile: "x"}
	require.Error(t, cfg.Normalize())
}

func TestNormalize_RejectsMissingItemsFile(t *testing.T) {
	cfg := &Cache{CacheSize: 4}
	require.Error(t, cfg.Normalize())
}

func TestNormalize_RejectsUnknownStrategy(t *testing.T) {
	cfg := &Cache{CacheSize: 4, ItemsFile: "x", Strategy: "lru"}
	require.Error(t, cfg.Normalize())
}

func TestNormalize_RejectsOversizedCache(t *testing.T) {
	cfg := &Cache{CacheSize: 20, ItemsFile: "x", MaxLines: 10}
	require.Error(t, cfg.Normalize())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
