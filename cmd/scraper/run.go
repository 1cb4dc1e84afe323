package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go-jobboard-scraper/internal/config"
	"go-jobboard-scraper/internal/logger"
	"go-jobboard-scraper/internal/pipeline"
	"go-jobboard-scraper/internal/reporter"
	"go-jobboard-scraper/internal/schedule"
	"go-jobboard-scraper/internal/sink"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runFlags struct {
	configPath string
	once       bool
	renderer   string
	maxPages   int
	interval   time.Duration
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "scraper",
		Short:         "Scrapes job board listings into CSV, JSON, an HTTP API and Postgres.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newProbeCmd(), newConfigCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [hotjobs|govtjob|all]",
		Short: "Scrape the given sources once or on a schedule",
		Long: `Scrapes the named sources (all enabled sources by default) and writes
every record to the configured sinks.

Without --once the run repeats every --interval until interrupted.`,
		Args:      cobra.MaximumNArgs(2),
		ValidArgs: []string{"hotjobs", "govtjob", pipeline.SourceAll},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}

			log, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, log, args)
		},
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", config.DefaultPath, "path to the YAML config file")
	cmd.Flags().BoolVar(&f.once, "once", false, "run a single scrape and exit")
	cmd.Flags().StringVar(&f.renderer, "renderer", "", "renderer backend: playwright, rod or static")
	cmd.Flags().IntVar(&f.maxPages, "max-pages", 0, "override max pages for every selected source")
	cmd.Flags().DurationVar(&f.interval, "interval", 0, "time between scheduled runs")
	return cmd
}

// apply lets explicit flags win over file and environment values.
func (f runFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("once") {
		cfg.RunOnce = f.once
	}
	if f.renderer != "" {
		cfg.Renderer = f.renderer
	}
	if f.maxPages > 0 {
		cfg.HotJobs.MaxPages = f.maxPages
		cfg.GovtJob.MaxPages = f.maxPages
	}
	if f.interval > 0 {
		cfg.Interval = f.interval
	}
	return cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, names []string) error {
	var opts []pipeline.Option
	if cfg.DatabaseURL != "" {
		pool, err := sink.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		log.Info("🐘 Postgres sink enabled")
		opts = append(opts, pipeline.WithPostgres(pool))
	}
	if cfg.TelegramToken != "" {
		tg, err := reporter.NewTelegramReporter(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn("⚠️ Telegram disabled", zap.Error(err))
		} else {
			log.Info("🤖 Telegram Bot initialized.")
			opts = append(opts, pipeline.WithNotifier(tg))
		}
	}

	p := pipeline.New(cfg, log, opts...)
	sources, err := p.Sources(names...)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return errors.New("no sources enabled")
	}

	if cfg.RunOnce {
		reports := p.Run(ctx, sources)
		for _, r := range reports {
			if r.Failed() {
				return fmt.Errorf("source %s did not complete cleanly", r.Source)
			}
		}
		return nil
	}

	log.Info("🔁 Scheduled mode", zap.Duration("interval", cfg.Interval))
	return schedule.Run(ctx, schedule.Every(cfg.Interval), log, func(ctx context.Context) {
		p.Run(ctx, sources)
	})
}
