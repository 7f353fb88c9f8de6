// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/telekom/tracepath/internal/logger"
	"github.com/telekom/tracepath/pkg/watch"
)

// NewCmdWatch creates the watch command that periodically traces a list of targets
func NewCmdWatch(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Periodically trace a list of targets and expose the results",
		Long: "Periodically trace the targets of a target file and expose the path MTU and hop counts\n" +
			"as prometheus metrics and the latest results via a REST API.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, version)
		},
	}

	fs := cmd.Flags()
	NewFlag("watch.name", "name").String(fs, "", "DNS name of this instance")
	NewFlag("watch.interval", "interval").Duration(fs, time.Minute, "interval between two trace runs")
	NewFlag("watch.loader.file.path", "targets").String(fs, "", "path of the yaml target file")
	NewFlag("watch.loader.interval", "reload-interval").Duration(fs, 5*time.Minute, "reload interval of the target file, 0 loads it once")
	NewFlag("watch.api.address", "api-address").String(fs, ":8080", "address the api server listens on")
	NewFlag("telemetry.enabled", "telemetry-enabled").Bool(fs, false, "enable trace export")
	NewFlag("telemetry.exporter", "telemetry-exporter").String(fs, "", "trace exporter: http, grpc, stdout or noop")
	NewFlag("telemetry.url", "telemetry-url").String(fs, "", "url of the trace collector")
	NewFlag("telemetry.token", "telemetry-token").String(fs, "", "token used to authenticate with the trace collector")
	NewFlag("telemetry.tls.enabled", "telemetry-tls").Bool(fs, false, "use tls to connect to the trace collector")
	NewFlag("telemetry.tls.certPath", "telemetry-cert").String(fs, "", "certificate of the trace collector")

	return cmd
}

func runWatch(cmd *cobra.Command, version string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := logger.NewLogger()
	ctx, cancel := context.WithCancel(logger.IntoContext(cmd.Context(), log))
	defer cancel()

	if err = cfg.ValidateWatch(ctx); err != nil {
		return fmt.Errorf("error while validating the config: %w", err)
	}

	w := watch.New(cfg, version)
	cErr := make(chan error, 1)
	log.Info("Running tracepath watcher", "targets", cfg.Watch.Loader.File.Path, "interval", cfg.Watch.Interval)
	go func() {
		cErr <- w.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		log.Info("Signal received, shutting down")
		cancel()
		<-cErr
		return nil
	case err := <-cErr:
		// The watcher only stops on its own after a non-recoverable error.
		return err
	}
}
