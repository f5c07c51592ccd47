package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"soullab/internal/server/bootstrap"
	"soullab/internal/shared/config"
)

// cli holds state shared by every subcommand.
type cli struct {
	v          *viper.Viper
	cfg        config.Config
	meta       config.Metadata
	components *bootstrap.Components
}

// flagOverrides maps persistent flag names to config fields.
var flagOverrides = []struct {
	flag  string
	field string
	apply func(cfg *config.Config, v *viper.Viper, key string)
}{
	{"log-level", "log.level", func(cfg *config.Config, v *viper.Viper, key string) { cfg.Log.Level = v.GetString(key) }},
	{"log-dir", "log.dir", func(cfg *config.Config, v *viper.Viper, key string) { cfg.Log.Dir = v.GetString(key) }},
	{"corpus", "engine.corpus_path", func(cfg *config.Config, v *viper.Viper, key string) { cfg.Engine.CorpusPath = v.GetString(key) }},
	{"rules", "fortune.rules_path", func(cfg *config.Config, v *viper.Viper, key string) { cfg.Fortune.RulesPath = v.GetString(key) }},
	{"addr", "server.addr", func(cfg *config.Config, v *viper.Viper, key string) { cfg.Server.Addr = v.GetString(key) }},
}

func newRootCommand() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "soullab",
		Short: "Deterministic Korean empathy answers and daily fortunes",
		Long: fmt.Sprintf(`%s

Builds short, warm, reproducible answers for tarot and astrology questions,
converts lunar birth dates, and evaluates the daily fortune ruleset.

%s
  soullab answer -q "요즘 연애가 너무 불안해요" --birth 1995-08-03 --cards "The Lovers"
  soullab answer --batch questions.jsonl
  soullab solar --birth 1956-01-21 --lunar
  soullab fortune --birth 1995-08-03 --date 2026-03-02
  soullab corpus check
  soullab serve --addr :8080`, bold("Soul Lab"), bold("EXAMPLES:")),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configureColor(cmd.OutOrStdout(), c.v.GetBool("no-color"))
			return c.loadConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.soullab/config.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-dir", "", "directory for log files")
	flags.String("corpus", "", "corpus YAML overriding the embedded one")
	flags.String("rules", "", "fortune ruleset YAML overriding the embedded one")
	flags.Bool("no-color", false, "disable colored output")
	_ = c.v.BindPFlags(flags)

	root.AddCommand(
		newAnswerCommand(c),
		newSolarCommand(),
		newFortuneCommand(c),
		newCorpusCommand(c),
		newConfigCommand(c),
		newServeCommand(c),
	)
	return root
}

// loadConfig layers command line flags over defaults, file and environment.
func (c *cli) loadConfig() error {
	var opts []config.Option
	if path := strings.TrimSpace(c.v.GetString("config")); path != "" {
		opts = append(opts, config.WithConfigPath(path))
	}
	cfg, meta, err := config.Load(opts...)
	if err != nil {
		return err
	}
	for _, o := range flagOverrides {
		if !c.v.IsSet(o.flag) {
			continue
		}
		o.apply(&cfg, c.v, o.flag)
		meta.MarkOverride(o.field, config.SourceFlag)
	}

	report := config.Validate(cfg)
	if err := report.Err(); err != nil {
		return err
	}
	c.cfg, c.meta = cfg, meta
	return nil
}

// build lazily assembles engines so commands like "config show" stay cheap.
func (c *cli) build() (*bootstrap.Components, error) {
	if c.components != nil {
		return c.components, nil
	}
	components, err := bootstrap.Build(c.cfg)
	if err != nil {
		return nil, err
	}
	c.components = components
	return components, nil
}
