package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/priyankbansal/ollamachat/internal/app"
	"github.com/priyankbansal/ollamachat/internal/config"
	"github.com/priyankbansal/ollamachat/internal/log"
)

func main() {
	var (
		configPath string
		overrides  config.Config
	)

	rootCmd := &cobra.Command{
		Use:   "ollamachat-server",
		Short: "Multi-room chat relay with inline AI replies from a local Ollama instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			bootLog := log.New(overrides.LogLevel)

			cfg, path, err := config.Load(bootLog, configPath)
			if err != nil {
				return err
			}
			cfg.UpdateFrom(overrides)

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Msg("configuration loaded")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application := app.New(cfg, logger)

			logger.Info().Str("addr", cfg.Addr).Str("model", cfg.Model).Msg("starting chat relay")
			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
		SilenceUsage: true,
	}

	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to config file")
	flags.StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&overrides.OllamaURL, "ollama-url", "", "base URL of the Ollama backend")
	flags.StringVar(&overrides.Model, "model", "", "model to request from the backend")
	flags.DurationVar(&overrides.InferenceTimeout, "inference-timeout", 0, "per-request inference deadline")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
