// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/telekom/tracepath/internal/logger"
	"github.com/telekom/tracepath/pkg/api"
	"github.com/telekom/tracepath/pkg/checks"
	tpcheck "github.com/telekom/tracepath/pkg/checks/tracepath"
	"github.com/telekom/tracepath/pkg/config"
	"github.com/telekom/tracepath/pkg/db"
	"github.com/telekom/tracepath/pkg/metrics"
)

const shutdownTimeout = time.Second * 90

// Watcher periodically traces the configured targets and serves the results
type Watcher struct {
	// config is the startup configuration
	config *config.Config
	// version is reported in the instance info metric
	version string
	// db is the database used to store the check results
	db db.DB
	// api serves metrics and results
	api api.API
	// loader is used to load the target configuration
	loader config.Loader
	// metrics is used to collect metrics
	metrics metrics.Provider
	// check is the tracepath check
	check checks.Check
	// running is set once the check was started
	running bool
	// cCheck is used to signal that the check configuration has changed
	cCheck chan *tpcheck.Config
	// cResult receives the results of the check
	cResult chan checks.ResultDTO
	// cErr is used to handle non-recoverable errors of the watcher components
	cErr chan error
	// cDone is used to signal that the watcher was shut down
	cDone chan struct{}
	// shutOnce is used to ensure that the shutdown function is only called once
	shutOnce sync.Once
}

// New creates a new watcher from the startup configuration
func New(cfg *config.Config, version string) *Watcher {
	w := &Watcher{
		config:   cfg,
		version:  version,
		db:       db.NewInMemory(),
		api:      api.New(cfg.Watch.Api),
		metrics:  metrics.New(cfg.Telemetry, version),
		check:    tpcheck.NewCheck(),
		cCheck:   make(chan *tpcheck.Config, 1),
		cResult:  make(chan checks.ResultDTO, 1),
		cErr:     make(chan error, 1),
		cDone:    make(chan struct{}, 1),
		shutOnce: sync.Once{},
	}
	w.loader = config.NewLoader(cfg, w.cCheck)
	return w
}

// Run starts the watcher
func (w *Watcher) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	log := logger.FromContext(ctx)
	defer cancel()

	err := w.metrics.InitTracing(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err = w.registerMetrics(); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	if err = w.api.RegisterRoutes(ctx, w.routes()...); err != nil {
		return fmt.Errorf("failed to register routes: %w", err)
	}

	go func() {
		w.cErr <- w.loader.Run(ctx)
	}()

	go func() {
		w.cErr <- w.api.Run(ctx)
	}()

	for {
		select {
		case cfg := <-w.cCheck:
			w.reconcile(ctx, cfg)
		case res := <-w.cResult:
			w.db.Save(res)
		case <-ctx.Done():
			w.shutdown(ctx)
		case err := <-w.cErr:
			if err != nil {
				log.Error("Non-recoverable error in watcher component", "error", err)
				w.shutdown(ctx)
			}
		case <-w.cDone:
			log.InfoContext(ctx, "Watcher was shut down")
			return ErrFinalShutdown
		}
	}
}

func (w *Watcher) registerMetrics() error {
	registry := w.metrics.GetRegistry()
	if err := metrics.RegisterInstanceInfo(registry, w.config.Watch.Name, w.version); err != nil {
		return err
	}
	for _, c := range w.check.GetMetricCollectors() {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// reconcile applies a new check configuration and starts the check on first use.
func (w *Watcher) reconcile(ctx context.Context, cfg *tpcheck.Config) {
	log := logger.FromContext(ctx)
	if err := w.check.UpdateConfig(cfg); err != nil {
		log.ErrorContext(ctx, "Failed to update check configuration", "check", w.check.Name(), "error", err)
		return
	}
	log.InfoContext(ctx, "Check configuration updated", "check", w.check.Name(), "targets", len(cfg.Targets))

	if w.running {
		return
	}
	w.running = true
	go func() {
		if err := w.check.Run(ctx, w.cResult); err != nil && ctx.Err() == nil {
			w.cErr <- &ErrRunningCheck{Check: w.check, Err: err}
		}
	}()
}

// shutdown shuts down the watcher and all managed components gracefully.
func (w *Watcher) shutdown(ctx context.Context) {
	errC := ctx.Err()
	log := logger.FromContext(ctx)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	w.shutOnce.Do(func() {
		log.InfoContext(ctx, "Shutting down watcher")
		var sErrs ErrShutdown
		sErrs.errAPI = w.api.Shutdown(ctx)
		sErrs.errMetrics = w.metrics.Shutdown(ctx)
		w.loader.Shutdown(ctx)
		if w.running {
			w.check.Shutdown()
		}

		if sErrs.HasError() {
			log.ErrorContext(ctx, "Failed to shutdown gracefully", "contextError", errC, "errors", sErrs)
		}

		// Signal that shutdown is complete
		w.cDone <- struct{}{}
	})
}
