// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/telekom/tracepath/internal/logger"
	tpcheck "github.com/telekom/tracepath/pkg/checks/tracepath"
	"gopkg.in/yaml.v3"
)

var _ Loader = (*FileLoader)(nil)

// FileLoader reads the watch targets from a yaml file and combines
// them with the trace options into the check configuration.
type FileLoader struct {
	config   LoaderConfig
	interval time.Duration
	options  Config
	cCheck   chan<- *tpcheck.Config
	done     chan struct{}
	fsys     fs.FS
}

func NewFileLoader(cfg *Config, cCheck chan<- *tpcheck.Config) *FileLoader {
	return &FileLoader{
		config:   cfg.Watch.Loader,
		interval: cfg.Watch.Interval,
		options:  *cfg,
		cCheck:   cCheck,
		done:     make(chan struct{}, 1),
		fsys:     os.DirFS(filepath.Dir(cfg.Watch.Loader.File.Path)),
	}
}

// Run gets the check configuration from the local file.
// The file will be reloaded periodically defined by the loader interval configuration.
// If the interval is 0, the file is only read once and the loader is disabled.
func (f *FileLoader) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()
	log := logger.FromContext(ctx)

	// Get the check configuration once on startup
	cfg, err := f.getCheckConfig(ctx)
	if err != nil {
		log.Warn("Could not get local target configuration", "error", err)
		err = fmt.Errorf("could not get local target configuration: %w", err)
	} else {
		f.cCheck <- cfg
	}

	if f.config.Interval == 0 {
		log.Info("File Loader disabled")
		return err
	}

	tick := time.NewTicker(f.config.Interval)
	defer tick.Stop()

	for {
		select {
		case <-f.done:
			log.Info("File Loader terminated")
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			checkCfg, err := f.getCheckConfig(ctx)
			if err != nil {
				log.Warn("Could not get local target configuration", "error", err)
				tick.Reset(f.config.Interval)
				continue
			}

			log.Info("Successfully got local target configuration", "targets", len(checkCfg.Targets))
			f.cCheck <- checkCfg
			tick.Reset(f.config.Interval)
		}
	}
}

// getCheckConfig reads the target file and builds a validated check configuration.
func (f *FileLoader) getCheckConfig(ctx context.Context) (cfg *tpcheck.Config, err error) {
	log := logger.FromContext(ctx).With("path", f.config.File.Path)

	file, err := f.fsys.Open(filepath.Base(f.config.File.Path))
	if err != nil {
		log.Error("Failed to open target file", "error", err)
		return nil, fmt.Errorf("failed to open target file: %w", err)
	}
	defer func() {
		cerr := file.Close()
		if cerr != nil {
			log.Error("Failed to close target file", "error", cerr)
			cfg = nil
		}
		err = errors.Join(cerr, err)
	}()

	b, err := io.ReadAll(file)
	if err != nil {
		log.Error("Failed to read target file", "error", err)
		return nil, fmt.Errorf("failed to read target file: %w", err)
	}

	var tf TargetFile
	if err := yaml.Unmarshal(b, &tf); err != nil {
		log.Error("Failed to parse target file", "error", err)
		return nil, fmt.Errorf("failed to parse target file: %w", err)
	}

	cfg = &tpcheck.Config{
		Targets:  tf.Targets,
		Interval: f.interval,
		Options:  f.options.Trace,
	}
	if err := cfg.Validate(); err != nil {
		log.Error("Invalid target file", "error", err)
		return nil, err
	}
	return cfg, nil
}

func (f *FileLoader) Shutdown(ctx context.Context) {
	log := logger.FromContext(ctx)
	select {
	case f.done <- struct{}{}:
		log.Debug("Sending signal to shut down file loader")
	default:
	}
}
