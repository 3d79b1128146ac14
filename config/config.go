// Package config defines the options consumed by the cache engine and
// loads them from a YAML file, following the same read-file,
// unmarshal, derive-fields shape as internal/config.LoadConfig.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Strategy selects the eviction policy. Only Strategy LFU is normative;
// the field exists so the eviction seam is configurable without touching
// the engine (see internal/eviction.Strategy).
type Strategy string

const (
	// StrategyLFU evicts the slot with the lowest access frequency among
	// non-BUSY slots.
	StrategyLFU Strategy = "lfu"
)

// Cache groups the options in spec.md §6.3's configuration table, plus
// ambient logging/metrics settings carried regardless of feature non-goals.
type Cache struct {
	// CacheSize is the buffer pool capacity C.
	CacheSize int `yaml:"cache_size"`

	// ItemsFile is the path to the fixed-width record file backing the store.
	ItemsFile string `yaml:"items_file"`

	// CacheTimeout is the flusher period in seconds.
	CacheTimeout int `yaml:"cache_timeout"`

	// Strategy selects the eviction policy. Defaults to StrategyLFU.
	Strategy Strategy `yaml:"strategy"`

	// RecordWidth is the fixed field width W of one record, in bytes
	// (reference value 10). Not part of spec.md's configuration table but
	// needed to size the record store; defaults applied in Normalize.
	RecordWidth int `yaml:"record_width"`

	// MaxLines is N_MAX, the number of records the backing file holds
	// (reference value 10000).
	MaxLines int `yaml:"max_lines"`

	// LogLevel configures the zerolog level ("debug", "info", "warn", "error").
	// Ambient logging concern, not part of spec.md's table.
	LogLevel string `yaml:"log_level"`

	// MetricsNamespace, if non-empty, enables a Prometheus metrics.Metrics
	// adapter registered under this namespace. Empty disables metrics.
	MetricsNamespace string `yaml:"metrics_namespace"`
}

const (
	defaultRecordWidth = 10
	defaultMaxLines    = 10000
	defaultTimeoutSecs = 5
)

// Timeout returns CacheTimeout as a time.Duration.
func (c *Cache) Timeout() time.Duration {
	return time.Duration(c.CacheTimeout) * time.Second
}

// Normalize fills in reference defaults for fields the caller left zero and
// validates the rest, the same AdjustConfig-style pass other loaders in
// this family run once after unmarshalling and before the config is
// handed to the engine.
func (c *Cache) Normalize() error {
	if c.CacheSize <= 0 {
		return fmt.Errorf("config: cache_size must be > 0")
	}
	if c.ItemsFile == "" {
		return fmt.Errorf("config: items_file must be set")
	}
	if c.CacheTimeout <= 0 {
		c.CacheTimeout = defaultTimeoutSecs
	}
	if c.RecordWidth <= 0 {
		c.RecordWidth = defaultRecordWidth
	}
	if c.MaxLines <= 0 {
		c.MaxLines = defaultMaxLines
	}
	if c.Strategy == "" {
		c.Strategy = StrategyLFU
	}
	if c.Strategy != StrategyLFU {
		return fmt.Errorf("config: unsupported strategy %q", c.Strategy)
	}
	if c.CacheSize > c.MaxLines {
		return fmt.Errorf("config: cache_size (%d) cannot exceed max_lines (%d)", c.CacheSize, c.MaxLines)
	}
	return nil
}

// Load reads and parses a YAML config file, then normalizes it.
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	var cfg Cache
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
