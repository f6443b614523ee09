package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"go-data-concierge/internal/model"
)

// Config is the full configuration surface of the concierge service.
type Config struct {
	Listen    string          `mapstructure:"listen"`
	Store     StoreConfig     `mapstructure:"store"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Collector CollectorConfig `mapstructure:"collector"`
	Quality   QualityConfig   `mapstructure:"quality"`
	Sources   []SourceConfig  `mapstructure:"sources"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type PipelineConfig struct {
	Workers             int          `mapstructure:"workers"`
	AcceptanceThreshold float64      `mapstructure:"acceptance_threshold"`
	ScoreWeights        ScoreWeights `mapstructure:"score_weights"`
}

// ScoreWeights are normalized before use; only the ratios matter.
type ScoreWeights struct {
	Completeness float64 `mapstructure:"completeness"`
	Consistency  float64 `mapstructure:"consistency"`
	Accuracy     float64 `mapstructure:"accuracy"`
}

type RateLimitConfig struct {
	Rate  float64 `mapstructure:"rate"`  // tokens per second
	Burst int     `mapstructure:"burst"` // bucket capacity
}

type CollectorConfig struct {
	MaxAttempts    int             `mapstructure:"max_attempts"`
	BackoffBase    time.Duration   `mapstructure:"backoff_base"`
	BackoffCap     time.Duration   `mapstructure:"backoff_cap"`
	AttemptTimeout time.Duration   `mapstructure:"attempt_timeout"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
}

type QualityConfig struct {
	FlagThreshold     float64       `mapstructure:"flag_threshold"`
	AccuracyTolerance float64       `mapstructure:"accuracy_tolerance"`
	OutlierZ          float64       `mapstructure:"outlier_z"`
	WindowSize        int           `mapstructure:"window_size"`
	MaxTimestampSkew  time.Duration `mapstructure:"max_timestamp_skew"`
}

// SourceConfig describes one upstream provider and how its payload maps into
// the canonical record shape.
type SourceConfig struct {
	Name      string            `mapstructure:"name"`
	Type      string            `mapstructure:"type"` // rest, database, scrape, stream
	URL       string            `mapstructure:"url"`
	Method    string            `mapstructure:"method"`
	AuthToken string            `mapstructure:"auth_token"`
	Headers   map[string]string `mapstructure:"headers"`
	Params    map[string]string `mapstructure:"params"`

	// database sources
	DatabasePath string `mapstructure:"database_path"`
	Query        string `mapstructure:"query"`

	// scrape sources
	Selector       string            `mapstructure:"selector"`
	SelectorFields map[string]string `mapstructure:"selector_fields"` // field -> sub-selector

	// normalization: canonical field -> payload key
	Fields map[string]string `mapstructure:"fields"`
	Unit   string            `mapstructure:"unit"`

	// optional per-source overrides
	RateLimit *RateLimitConfig `mapstructure:"rate_limit"`
	Schema    *model.Schema    `mapstructure:"schema"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8080")
	v.SetDefault("store.path", "concierge.db")

	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.acceptance_threshold", 0.8)
	v.SetDefault("pipeline.score_weights.completeness", 1.0)
	v.SetDefault("pipeline.score_weights.consistency", 1.0)
	v.SetDefault("pipeline.score_weights.accuracy", 1.0)

	v.SetDefault("collector.max_attempts", 3)
	v.SetDefault("collector.backoff_base", "300ms")
	v.SetDefault("collector.backoff_cap", "5s")
	v.SetDefault("collector.attempt_timeout", "10s")
	v.SetDefault("collector.rate_limit.rate", 5.0)
	v.SetDefault("collector.rate_limit.burst", 2)

	v.SetDefault("quality.flag_threshold", 0.7)
	v.SetDefault("quality.accuracy_tolerance", 0.2)
	v.SetDefault("quality.outlier_z", 3.0)
	v.SetDefault("quality.window_size", 64)
	v.SetDefault("quality.max_timestamp_skew", "5m")
}

// Load reads the config file at path (YAML) on top of defaults and CONCIERGE_*
// environment overrides. An empty path yields pure defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CONCIERGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Pipeline.AcceptanceThreshold < 0 || c.Pipeline.AcceptanceThreshold > 1 {
		return fmt.Errorf("pipeline.acceptance_threshold must be in [0,1], got %v", c.Pipeline.AcceptanceThreshold)
	}
	if c.Collector.MaxAttempts < 1 {
		return fmt.Errorf("collector.max_attempts must be >= 1, got %d", c.Collector.MaxAttempts)
	}
	w := c.Pipeline.ScoreWeights
	if w.Completeness < 0 || w.Consistency < 0 || w.Accuracy < 0 {
		return fmt.Errorf("pipeline.score_weights must be non-negative")
	}
	if w.Completeness+w.Consistency+w.Accuracy == 0 {
		return fmt.Errorf("pipeline.score_weights must not all be zero")
	}
	seen := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("every source needs a name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// Source looks up a source definition by name.
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// RetryPolicy builds the collector retry policy from configuration.
func (c *Config) RetryPolicy() model.RetryPolicy {
	return model.RetryPolicy{
		MaxAttempts: c.Collector.MaxAttempts,
		BackoffBase: c.Collector.BackoffBase,
		BackoffCap:  c.Collector.BackoffCap,
	}
}
