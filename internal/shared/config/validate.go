package config

import (
	"fmt"
	"strings"

	"soullab/internal/shared/utils"
	id "soullab/internal/utils/id"
)

// ValidationIssue represents a single validation finding.
type ValidationIssue struct {
	ID      string
	Message string
	Hint    string
}

// ValidationReport summarizes config validation findings.
type ValidationReport struct {
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

// HasErrors reports whether the validation report contains blocking errors.
func (r ValidationReport) HasErrors() bool {
	return len(r.Errors) > 0
}

// Err folds blocking issues into a single error, or nil.
func (r ValidationReport) Err() error {
	if !r.HasErrors() {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, issue := range r.Errors {
		msgs = append(msgs, issue.ID+": "+issue.Message)
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Validate checks ranges and enumerations.
func Validate(cfg Config) ValidationReport {
	var report ValidationReport
	fail := func(id, msg, hint string) {
		report.Errors = append(report.Errors, ValidationIssue{ID: id, Message: msg, Hint: hint})
	}
	warn := func(id, msg, hint string) {
		report.Warnings = append(report.Warnings, ValidationIssue{ID: id, Message: msg, Hint: hint})
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		fail("server.addr", "listen address is empty", "set server.addr, e.g. \":8080\"")
	}
	if cfg.Server.RateLimitRPM < 0 || cfg.Server.RateLimitBurst < 0 {
		fail("server.rate_limit", "rate limit values must not be negative", "use 0 to disable rate limiting")
	}
	if cfg.Server.RateLimitRPM > 0 && cfg.Server.RateLimitBurst == 0 {
		warn("server.rate_limit_burst", "burst is 0, every request will be rejected", "set a burst of at least 1")
	}
	if cfg.Server.CacheSize < 0 {
		fail("server.cache_size", "cache size must not be negative", "use 0 to disable the answer cache")
	}
	if cfg.Server.CacheSize > 0 && cfg.Server.CacheTTL <= 0 {
		fail("server.cache_ttl", "cache ttl must be positive when the cache is enabled", "e.g. 10m")
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		fail("server.max_body_bytes", "body limit must be positive", "")
	}
	for _, origin := range cfg.Server.AllowedOrigins {
		if origin == "*" && len(cfg.Server.AllowedOrigins) > 1 {
			warn("server.allowed_origins", "\"*\" makes the other origins redundant", "")
			break
		}
	}
	if cfg.Engine.TopCandidates <= 0 {
		fail("engine.top_candidates", "top candidates must be positive", "")
	}
	if cfg.Engine.BaseReadingCap <= 0 {
		fail("engine.base_reading_cap", "base reading cap must be positive", "")
	}
	if level := strings.ToLower(strings.TrimSpace(cfg.Log.Level)); level != "" {
		if parsed := utils.ParseLevel(level); parsed == utils.INFO && level != "info" {
			warn("log.level", fmt.Sprintf("unknown level %q, using info", cfg.Log.Level), "debug, info, warn or error")
		}
	}
	if _, err := id.ParseStrategy(cfg.IDStrategy); err != nil {
		fail("id_strategy", err.Error(), "ksuid or uuidv7")
	}
	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Exporter {
		case "", "otlp", "zipkin":
		default:
			fail("tracing.exporter", fmt.Sprintf("unsupported exporter %q", cfg.Tracing.Exporter), "otlp or zipkin")
		}
		if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
			fail("tracing.sample_rate", "sample rate must be within [0,1]", "")
		}
	}
	return report
}
