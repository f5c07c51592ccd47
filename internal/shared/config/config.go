// Package config loads soullab runtime settings from defaults, an optional
// YAML file and SOULLAB_* environment variables, recording where each
// value came from.
package config

import (
	"time"

	"soullab/internal/observability"
)

// ValueSource describes where a configuration value originated from.
type ValueSource string

const (
	SourceDefault ValueSource = "default"
	SourceFile    ValueSource = "file"
	SourceEnv     ValueSource = "environment"
	SourceFlag    ValueSource = "flag"
)

const (
	DefaultServerAddr      = ":8080"
	DefaultRateLimitRPM    = 120
	DefaultRateLimitBurst  = 20
	DefaultCacheSize       = 512
	DefaultCacheTTL        = 10 * time.Minute
	DefaultMaxBodyBytes    = 16 << 10
	DefaultTopCandidates   = 14
	DefaultBaseReadingCap  = 700
	DefaultLogLevel        = "info"
	DefaultIDStrategy      = "ksuid"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config captures every user-configurable setting.
type Config struct {
	Server     ServerConfig                `yaml:"server"`
	Engine     EngineConfig                `yaml:"engine"`
	Fortune    FortuneConfig               `yaml:"fortune"`
	Log        LogConfig                   `yaml:"log"`
	Tracing    observability.TracingConfig `yaml:"tracing"`
	Metrics    observability.MetricsConfig `yaml:"metrics"`
	IDStrategy string                      `yaml:"id_strategy"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	RateLimitRPM    int           `yaml:"rate_limit_rpm"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	CacheSize       int           `yaml:"cache_size"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// EngineConfig configures the empathy engine.
type EngineConfig struct {
	CorpusPath     string `yaml:"corpus_path"`
	TopCandidates  int    `yaml:"top_candidates"`
	BaseReadingCap int    `yaml:"base_reading_cap"`
}

// FortuneConfig configures the daily fortune evaluator.
type FortuneConfig struct {
	RulesPath string `yaml:"rules_path"`
}

// LogConfig configures the file logger.
type LogConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            DefaultServerAddr,
			AllowedOrigins:  []string{"*"},
			RateLimitRPM:    DefaultRateLimitRPM,
			RateLimitBurst:  DefaultRateLimitBurst,
			CacheSize:       DefaultCacheSize,
			CacheTTL:        DefaultCacheTTL,
			MaxBodyBytes:    DefaultMaxBodyBytes,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Engine: EngineConfig{
			TopCandidates:  DefaultTopCandidates,
			BaseReadingCap: DefaultBaseReadingCap,
		},
		Log: LogConfig{Level: DefaultLogLevel},
		Tracing: observability.TracingConfig{
			Exporter:       "otlp",
			OTLPEndpoint:   "localhost:4318",
			SampleRate:     1.0,
			ServiceName:    "soullab",
			ServiceVersion: "dev",
		},
		Metrics:    observability.MetricsConfig{Enabled: true},
		IDStrategy: DefaultIDStrategy,
	}
}

// Metadata contains provenance details for loaded configuration.
type Metadata struct {
	path     string
	sources  map[string]ValueSource
	loadedAt time.Time
}

// Path returns the config file consulted, which may not exist.
func (m Metadata) Path() string {
	return m.path
}

// Sources returns a copy of the provenance map.
func (m Metadata) Sources() map[string]ValueSource {
	out := make(map[string]ValueSource, len(m.sources))
	for key, value := range m.sources {
		out[key] = value
	}
	return out
}

// Source returns the origin for the given configuration field.
func (m Metadata) Source(field string) ValueSource {
	if src, ok := m.sources[field]; ok {
		return src
	}
	return SourceDefault
}

// MarkOverride records that field was set by source after Load, e.g. by
// a command line flag.
func (m *Metadata) MarkOverride(field string, source ValueSource) {
	if m.sources == nil {
		m.sources = map[string]ValueSource{}
	}
	m.sources[field] = source
}

// LoadedAt returns the timestamp when the configuration was constructed.
func (m Metadata) LoadedAt() time.Time {
	return m.loadedAt
}
