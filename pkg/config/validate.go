// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/telekom/tracepath/internal/logger"
)

const minWatchInterval = time.Second

var dnsName = regexp.MustCompile(`^([a-z0-9]([a-z0-9\-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

// Validate validates the configuration used by every command
func (c *Config) Validate(ctx context.Context) (err error) {
	log := logger.FromContext(ctx)

	if vErr := c.Trace.Validate(); vErr != nil {
		log.Error("The trace configuration is invalid", "error", vErr)
		err = errors.Join(err, vErr)
	}

	if c.HasTelemetry() {
		if vErr := c.Telemetry.Validate(ctx); vErr != nil {
			log.Error("The telemetry configuration is invalid")
			err = errors.Join(err, vErr)
		}
	}

	if err != nil {
		return fmt.Errorf("validation of configuration failed: %w", err)
	}
	return nil
}

// ValidateWatch validates the configuration and the watch mode settings
func (c *Config) ValidateWatch(ctx context.Context) error {
	err := c.Validate(ctx)
	if vErr := c.Watch.Validate(ctx); vErr != nil {
		err = errors.Join(err, fmt.Errorf("validation of watch configuration failed: %w", vErr))
	}
	return err
}

// Validate validates the watch configuration
func (c *WatchConfig) Validate(ctx context.Context) (err error) {
	log := logger.FromContext(ctx)
	if !isDNSName(c.Name) {
		log.Error("The name of the instance must be DNS compliant", "name", c.Name)
		err = errors.Join(err, ErrInvalidInstanceName)
	}

	if c.Interval < minWatchInterval {
		log.Error("The watch interval should be at least one second", "interval", c.Interval)
		err = errors.Join(err, ErrInvalidWatchInterval)
	}

	if vErr := c.Loader.Validate(ctx); vErr != nil {
		log.Error("The loader configuration is invalid")
		err = errors.Join(err, vErr)
	}

	if vErr := c.Api.Validate(); vErr != nil {
		log.Error("The api configuration is invalid")
		err = errors.Join(err, vErr)
	}
	return err
}

// Validate validates the loader configuration
func (c *LoaderConfig) Validate(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if c.Interval < 0 {
		log.Error("The loader interval should be equal or above 0", "interval", c.Interval)
		return ErrInvalidLoaderInterval
	}

	if c.File.Path == "" {
		log.Error("The loader file path cannot be empty")
		return ErrInvalidLoaderFilePath
	}

	return nil
}

// isDNSName checks if the given string is a valid DNS name
func isDNSName(s string) bool {
	return dnsName.MatchString(s)
}
