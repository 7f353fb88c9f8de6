// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/telekom/tracepath/internal/logger"
	"github.com/telekom/tracepath/internal/tracepath"
	"github.com/telekom/tracepath/pkg/metrics"
)

// NewCmdTrace creates the one-shot trace command
func NewCmdTrace() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "trace <destination>",
		Short: "Trace the path to a destination",
		Long: "Trace the path to a destination, discovering the path MTU and the hop count along it.\n" +
			"The destination may be given as host/port to set the port of the first probe.",
		Example: "  tracepath trace -n example.com\n  tracepath trace -l 1500 --output json 192.0.2.1",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd, args[0], outputFormat(format))
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", string(outputText), "output format: text, json or yaml")

	return cmd
}

func runTrace(cmd *cobra.Command, destination string, format outputFormat) error {
	if !format.IsValid() {
		return fmt.Errorf("%w: %q", errUnknownOutput, format)
	}

	target, err := tracepath.ParseTarget(destination)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed(flagPort) {
		target.Port = 0
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = logger.IntoContext(ctx, logger.NewLogger())
	log := logger.FromContext(ctx)

	if err = cfg.Validate(ctx); err != nil {
		return fmt.Errorf("error while validating the config: %w", err)
	}

	if cfg.HasTelemetry() {
		m := metrics.New(cfg.Telemetry, cmd.Root().Version)
		if err = m.InitTracing(ctx); err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() {
			if sErr := m.Shutdown(ctx); sErr != nil {
				log.WarnContext(ctx, "Failed to shut down tracing", "error", sErr)
			}
		}()
	}

	w := cmd.OutOrStdout()
	client := tracepath.NewClient(tracepath.WithReporter(format.reporter(w, cfg.Trace.Display)))
	res, err := client.Run(ctx, target, &cfg.Trace)
	if err != nil {
		return err
	}
	return format.write(w, res)
}
