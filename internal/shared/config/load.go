package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"soullab/internal/shared/textutil"
)

// EnvLookup resolves the value for an environment variable.
type EnvLookup func(string) (string, bool)

// DefaultEnvLookup delegates to os.LookupEnv.
func DefaultEnvLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

type loadOptions struct {
	envLookup  EnvLookup
	readFile   func(string) ([]byte, error)
	homeDir    func() (string, error)
	configPath string
}

// Option customizes Load.
type Option func(*loadOptions)

// WithEnv injects an environment lookup, used primarily for tests.
func WithEnv(lookup EnvLookup) Option {
	return func(o *loadOptions) {
		o.envLookup = lookup
	}
}

// WithConfigPath pins the config file instead of resolving it.
func WithConfigPath(path string) Option {
	return func(o *loadOptions) {
		o.configPath = path
	}
}

// WithFileReader injects a custom reader, used primarily for tests.
func WithFileReader(reader func(string) ([]byte, error)) Option {
	return func(o *loadOptions) {
		o.readFile = reader
	}
}

// WithHomeDir overrides how the loader resolves the user's home directory.
func WithHomeDir(resolver func() (string, error)) Option {
	return func(o *loadOptions) {
		o.homeDir = resolver
	}
}

// Load merges defaults, the YAML file and environment overrides, in that
// order. A missing or empty file is not an error.
func Load(opts ...Option) (Config, Metadata, error) {
	options := loadOptions{
		envLookup: DefaultEnvLookup,
		readFile:  os.ReadFile,
		homeDir:   os.UserHomeDir,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.envLookup == nil {
		options.envLookup = DefaultEnvLookup
	}

	cfg := Default()
	meta := Metadata{sources: map[string]ValueSource{}, loadedAt: time.Now()}

	path := strings.TrimSpace(options.configPath)
	if path == "" {
		path, _ = ResolveConfigPath(options.envLookup, options.homeDir)
	}
	meta.path = path

	if err := applyFile(&cfg, &meta, path, options); err != nil {
		return Config{}, Metadata{}, err
	}
	if err := applyEnv(&cfg, &meta, options.envLookup); err != nil {
		return Config{}, Metadata{}, err
	}
	return cfg, meta, nil
}

func applyFile(cfg *Config, meta *Metadata, path string, opts loadOptions) error {
	if path == "" {
		return nil
	}
	data, err := opts.readFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	expanded := os.Expand(string(data), func(key string) string {
		value, _ := opts.envLookup(key)
		return value
	})

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	markFileSources(meta, "", raw)
	return nil
}

// markFileSources records every leaf key present in the file as
// "section.key".
func markFileSources(meta *Metadata, prefix string, node map[string]any) {
	for key, value := range node {
		field := key
		if prefix != "" {
			field = prefix + "." + key
		}
		if child, ok := value.(map[string]any); ok {
			markFileSources(meta, field, child)
			continue
		}
		meta.sources[field] = SourceFile
	}
}

type envBinding struct {
	key   string
	field string
	apply func(string) error
}

func applyEnv(cfg *Config, meta *Metadata, lookup EnvLookup) error {
	bindings := []envBinding{
		{"SOULLAB_ADDR", "server.addr", setString(&cfg.Server.Addr)},
		{"SOULLAB_ALLOWED_ORIGINS", "server.allowed_origins", setList(&cfg.Server.AllowedOrigins)},
		{"SOULLAB_RATE_LIMIT_RPM", "server.rate_limit_rpm", setInt(&cfg.Server.RateLimitRPM)},
		{"SOULLAB_RATE_LIMIT_BURST", "server.rate_limit_burst", setInt(&cfg.Server.RateLimitBurst)},
		{"SOULLAB_CACHE_SIZE", "server.cache_size", setInt(&cfg.Server.CacheSize)},
		{"SOULLAB_CACHE_TTL", "server.cache_ttl", setDuration(&cfg.Server.CacheTTL)},
		{"SOULLAB_CORPUS_PATH", "engine.corpus_path", setString(&cfg.Engine.CorpusPath)},
		{"SOULLAB_FORTUNE_RULES_PATH", "fortune.rules_path", setString(&cfg.Fortune.RulesPath)},
		{"SOULLAB_LOG_DIR", "log.dir", setString(&cfg.Log.Dir)},
		{"SOULLAB_LOG_LEVEL", "log.level", setString(&cfg.Log.Level)},
		{"SOULLAB_TRACING_ENABLED", "tracing.enabled", setBool(&cfg.Tracing.Enabled)},
		{"SOULLAB_TRACING_EXPORTER", "tracing.exporter", setString(&cfg.Tracing.Exporter)},
		{"SOULLAB_OTLP_ENDPOINT", "tracing.otlp_endpoint", setString(&cfg.Tracing.OTLPEndpoint)},
		{"SOULLAB_ZIPKIN_ENDPOINT", "tracing.zipkin_endpoint", setString(&cfg.Tracing.ZipkinEndpoint)},
		{"SOULLAB_METRICS_ENABLED", "metrics.enabled", setBool(&cfg.Metrics.Enabled)},
		{"SOULLAB_ID_STRATEGY", "id_strategy", setString(&cfg.IDStrategy)},
	}
	for _, b := range bindings {
		value, ok := lookup(b.key)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		if err := b.apply(strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("parse %s: %w", b.key, err)
		}
		meta.sources[b.field] = SourceEnv
	}
	return nil
}

func setString(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}

func setList(dst *[]string) func(string) error {
	return func(v string) error {
		*dst = textutil.SplitList(v)
		return nil
	}
}

func setInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setBool(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func setDuration(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}
