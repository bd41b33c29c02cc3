package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/yegors/hamsearch/internal/config"
	"github.com/yegors/hamsearch/pkg/logger"
)

var (
	configPath string
	logLevel   string
	appCtx     *App
)

// Execute runs the CLI. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	root := &cobra.Command{
		Use:           "hamsearch",
		Short:         "Amateur radio callsign lookup bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}

			// one-shot commands print to stdout, so logs move out of the way
			if cmd.Name() != "serve" {
				cfg.Discord.Enabled = false
				cfg.Server.Enabled = false
				if cfg.Logging.Output == "" || cfg.Logging.Output == "stdout" {
					cfg.Logging.Output = "stderr"
				}
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			log, err := logger.New(cfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
				log.Info("Config file not found, using defaults", logger.String("path", configPath))
			}

			appCtx, err = NewApp(cfg, log, prometheus.DefaultRegisterer)
			return err
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to the TOML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(serveCmd(), lookupCmd(), statsCmd(), distanceCmd(), conditionsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := root.ExecuteContext(ctx)
	if appCtx != nil {
		if cerr := appCtx.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "hamsearch: failed to flush audit log: %v\n", cerr)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "hamsearch: %v\n", err)
	}
	return err
}
