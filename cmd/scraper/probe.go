package main

import (
	"context"
	"fmt"
	"time"

	"go-jobboard-scraper/internal/browser"
	"go-jobboard-scraper/internal/config"
	"go-jobboard-scraper/internal/extract"
	"go-jobboard-scraper/internal/logger"

	"github.com/spf13/cobra"
)

func newProbeCmd() *cobra.Command {
	var (
		configPath  string
		renderer    string
		selector    string
		wait        time.Duration
		snapshotDir string
	)
	cmd := &cobra.Command{
		Use:   "probe <url>",
		Short: "Load one page and show what a selector matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if renderer != "" {
				cfg.Renderer = renderer
			}
			log, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "🌐 Starting %s renderer...\n", cfg.Renderer)
			r, err := browser.Open(ctx, cfg.Renderer, browser.Options{
				Headless:    cfg.Headless,
				CookiesFile: cfg.CookiesFile,
				Logger:      log,
			})
			if err != nil {
				return err
			}
			defer r.Close()

			if err := r.Load(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(out, "✅ Loaded %s\n", r.URL())

			if _, err := r.WaitForElement(ctx, selector, wait); err != nil {
				fmt.Fprintf(out, "⚠ %v\n", err)
			}
			els, err := r.FindAll(selector)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "🔍 %d elements match %q\n", len(els), selector)
			for i, el := range els {
				if i == 5 {
					fmt.Fprintf(out, "   ... %d more\n", len(els)-i)
					break
				}
				fmt.Fprintf(out, "   [%d] %s\n", i+1, extract.Normalize(extract.ElementText(el)))
			}

			if snapshotDir != "" {
				if _, err := browser.NewSnapshotDebugger(snapshotDir, log).Capture(r, "probe"); err != nil {
					return err
				}
			}
			fmt.Fprintln(out, "✨ Probe complete!")
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML config file")
	cmd.Flags().StringVar(&renderer, "renderer", "", "renderer backend: playwright, rod or static")
	cmd.Flags().StringVarP(&selector, "selector", "s", "article.post", "CSS selector to count")
	cmd.Flags().DurationVar(&wait, "wait", 10*time.Second, "how long to wait for the selector")
	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "save an HTML (and screenshot) snapshot here")
	return cmd
}
