package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/yegors/hamsearch/internal/api"
	"github.com/yegors/hamsearch/internal/discord"
	"github.com/yegors/hamsearch/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Discord bot and/or the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), appCtx)
		},
	}
}

func serve(ctx context.Context, app *App) error {
	cfg := app.Config
	log := app.Logger

	if !cfg.Discord.Enabled && !cfg.Server.Enabled {
		return errors.New("nothing to serve: enable [discord] and/or [server]")
	}

	var bot *discord.Bot
	if cfg.Discord.Enabled {
		var err error
		if bot, err = discord.NewBot(cfg.Discord, app.Service, log); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	running := 0

	var server *http.Server
	if cfg.Server.Enabled {
		// avoid storing a typed nil in the interface
		var auditLog api.AuditLog
		if app.AuditLog != nil {
			auditLog = app.AuditLog
		}
		router := api.NewRouter(app.Service, auditLog, prometheus.DefaultGatherer, cfg.Server, log)

		server = &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
			Handler:           router.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		running++
		go func() {
			log.Info("HTTP server listening", logger.String("address", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server: %w", err)
				return
			}
			errCh <- nil
		}()
	}

	if bot != nil {
		running++
		go func() {
			errCh <- bot.Run(ctx)
		}()
	}

	var firstErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case firstErr = <-errCh:
		running--
		if firstErr != nil {
			log.Error("Component failed, shutting down", logger.Error(firstErr))
		}
	}
	cancel()

	if server != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("HTTP server forced to shut down", logger.Error(err))
		}
	}

	for ; running > 0; running-- {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}

	log.Info("Stopped")
	return firstErr
}
