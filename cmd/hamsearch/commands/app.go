package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yegors/hamsearch/internal/audit"
	"github.com/yegors/hamsearch/internal/callook"
	"github.com/yegors/hamsearch/internal/config"
	"github.com/yegors/hamsearch/internal/lbstat"
	"github.com/yegors/hamsearch/internal/lookup"
	"github.com/yegors/hamsearch/internal/metrics"
	"github.com/yegors/hamsearch/pkg/logger"
)

// App is the wired dependency graph shared by subcommands
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Metrics  *metrics.Collector
	Service  *lookup.Service
	AuditLog *audit.SQLiteSink // nil unless audit.sqlite_path is set

	recorder *audit.Recorder
}

// NewApp builds the service and its audit sinks from cfg
func NewApp(cfg *config.Config, log *logger.Logger, reg prometheus.Registerer) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.NewCollector("hamsearch", reg),
	}

	sink, err := a.openSinks()
	if err != nil {
		return nil, err
	}

	var auditor lookup.Auditor
	if sink != nil {
		a.recorder = audit.NewRecorder(sink, cfg.Audit.BufferSize, a.Metrics, log)
		auditor = a.recorder
	} else {
		log.Warn("Audit logging disabled; no audit.file_path or audit.sqlite_path configured")
	}

	a.Service = lookup.NewService(
		callook.NewClient(cfg.Registry(), a.Metrics, log),
		lbstat.NewClient(cfg.Logbook(), nil, a.Metrics, log),
		auditor,
		cfg.Commands(),
		a.Metrics,
		log,
	)

	return a, nil
}

func (a *App) openSinks() (audit.Sink, error) {
	var sinks audit.MultiSink

	if path := a.Config.Audit.FilePath; path != "" {
		fileSink, err := audit.NewFileSink(path)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fileSink)
	}

	if path := a.Config.Audit.SQLitePath; path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				sinks.Close()
				return nil, fmt.Errorf("failed to create audit database directory: %w", err)
			}
		}
		sqliteSink, err := audit.NewSQLiteSink(path, a.Logger)
		if err != nil {
			sinks.Close()
			return nil, err
		}
		a.AuditLog = sqliteSink
		sinks = append(sinks, sqliteSink)
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	}
	return sinks, nil
}

// Close flushes pending audit entries and closes the sinks
func (a *App) Close() error {
	var err error
	if a.recorder != nil {
		err = a.recorder.Close()
	}
	// Sync fails on terminals; nothing useful to do about it
	_ = a.Logger.Sync()
	return err
}
