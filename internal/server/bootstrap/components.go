// Package bootstrap assembles engines, observability and the HTTP server
// from a loaded config.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"soullab/internal/empathy"
	"soullab/internal/fortune"
	"soullab/internal/observability"
	"soullab/internal/shared/async"
	"soullab/internal/shared/config"
	"soullab/internal/shared/logging"
	"soullab/internal/shared/utils"
	id "soullab/internal/utils/id"
)

// Components is everything a soullab process needs at runtime.
type Components struct {
	Config        config.Config
	Engine        *empathy.Engine
	Fortune       *fortune.Engine
	EngineMetrics *observability.EngineMetrics
	HTTPMetrics   *observability.MetricsCollector
	Tracer        *observability.TracerProvider
	Registry      *prometheus.Registry
	Logger        logging.Logger
}

// ApplyProcessSettings configures the global logger and id generator. It
// must run before any logger is created.
func ApplyProcessSettings(cfg config.Config) error {
	if dir := strings.TrimSpace(cfg.Log.Dir); dir != "" {
		utils.SetLogDir(dir)
	}
	utils.SetDefaultLevel(utils.ParseLevel(cfg.Log.Level))
	strategy, err := id.ParseStrategy(cfg.IDStrategy)
	if err != nil {
		return err
	}
	id.SetStrategy(strategy)
	return nil
}

// Build loads the corpus and ruleset named by cfg (or the embedded ones)
// and wires metrics and tracing around them.
func Build(cfg config.Config) (*Components, error) {
	if err := config.Validate(cfg).Err(); err != nil {
		return nil, err
	}
	if err := ApplyProcessSettings(cfg); err != nil {
		return nil, err
	}
	logger := logging.NewComponentLogger("Bootstrap")

	registry := prometheus.NewRegistry()
	engineMetrics := observability.NewEngineMetricsWithRegisterer(registry)
	httpMetrics, err := observability.NewMetricsCollector(cfg.Metrics, registry)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	tracer, err := observability.NewTracerProvider(cfg.Tracing)
	if err != nil {
		logger.Warn("Tracing disabled: %v", err)
		tracer, _ = observability.NewTracerProvider(observability.TracingConfig{})
	}

	empathyLogger := logging.NewComponentLogger("Empathy")
	engineOpts := []empathy.Option{
		empathy.WithLogger(empathyLogger),
		// Belief findings go to the audit file and stay visible in the service log.
		empathy.WithAuditLogger(logging.Multi(logging.NewAuditLogger("BeliefGuard"), empathyLogger)),
		empathy.WithRecorder(engineMetrics),
		empathy.WithTopCandidates(cfg.Engine.TopCandidates),
		empathy.WithBaseReadingCap(cfg.Engine.BaseReadingCap),
	}
	if path := strings.TrimSpace(cfg.Engine.CorpusPath); path != "" {
		corpus, err := empathy.LoadCorpusFile(path)
		if err != nil {
			return nil, fmt.Errorf("load corpus: %w", err)
		}
		engineOpts = append(engineOpts, empathy.WithCorpus(corpus))
	}
	engine, err := empathy.NewEngine(engineOpts...)
	if err != nil {
		return nil, err
	}
	if report := engine.Corpus().Report(); len(report.Warnings) > 0 {
		logger.Warn("corpus has %d coverage warning(s)", len(report.Warnings))
	}

	var rules *fortune.Ruleset
	if path := strings.TrimSpace(cfg.Fortune.RulesPath); path != "" {
		rules, err = fortune.LoadRulesetFile(path)
		if err != nil {
			return nil, fmt.Errorf("load fortune rules: %w", err)
		}
	}
	fortuneEngine, err := fortune.NewEngine(rules, logging.NewComponentLogger("Fortune"))
	if err != nil {
		return nil, err
	}

	logger.Info("components ready: corpus=%d parts tracing=%t metrics=%t", engine.Corpus().Len(), cfg.Tracing.Enabled, cfg.Metrics.Enabled)
	return &Components{
		Config:        cfg,
		Engine:        engine,
		Fortune:       fortuneEngine,
		EngineMetrics: engineMetrics,
		HTTPMetrics:   httpMetrics,
		Tracer:        tracer,
		Registry:      registry,
		Logger:        logger,
	}, nil
}

// Shutdown flushes tracing and metrics providers side by side within
// timeout, then closes the log files.
func (c *Components) Shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var wg sync.WaitGroup
	flush := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		async.Go(c.Logger, name, func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				c.Logger.Warn("%s error: %v", name, err)
			}
		})
	}
	flush("tracer.shutdown", c.Tracer.Shutdown)
	flush("metrics.shutdown", c.HTTPMetrics.Shutdown)
	wg.Wait()

	if err := logging.CloseFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "close log files: %v\n", err)
	}
}
