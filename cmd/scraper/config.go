package main

import (
	"fmt"

	"go-jobboard-scraper/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.TelegramToken = mask(cfg.TelegramToken)
			cfg.DatabaseURL = mask(cfg.DatabaseURL)

			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML config file")
	return cmd
}

func mask(secret string) string {
	if len(secret) <= 6 {
		if secret == "" {
			return ""
		}
		return "***"
	}
	return secret[:6] + "***"
}
