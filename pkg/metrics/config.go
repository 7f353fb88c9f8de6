// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/telekom/tracepath/internal/logger"
)

var (
	// ErrMissingCollectorURL is returned when an exporting protocol has no collector to send to.
	ErrMissingCollectorURL = errors.New("collector url is required")
	// ErrInvalidCollectorURL is returned when the collector url cannot be used as an endpoint.
	ErrInvalidCollectorURL = errors.New("invalid collector url")
)

// Config controls the export of the trace, hop and probe spans.
type Config struct {
	// Enabled turns the span export on. Prometheus metrics of watch mode are
	// served regardless.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Exporter selects where spans go
	Exporter Exporter `yaml:"exporter" mapstructure:"exporter"`
	// CollectorURL is the otlp endpoint, e.g. http://collector:4318
	CollectorURL string `yaml:"url" mapstructure:"url"`
	// Token is sent as bearer token to the collector
	Token string `yaml:"token" mapstructure:"token"`
	// TLS secures the connection to the collector
	TLS TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// TLSConfig configures the connection to the collector.
type TLSConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// CertPath points to a PEM file, only needed when the collector uses a
	// certificate the system pool does not trust.
	CertPath string `yaml:"certPath" mapstructure:"certPath"`
}

func (c *Config) Validate(ctx context.Context) error {
	log := logger.FromContext(ctx)
	if err := c.Exporter.Validate(); err != nil {
		log.ErrorContext(ctx, "Invalid span exporter", "error", err)
		return err
	}
	if !c.Exporter.IsExporting() {
		return nil
	}

	if c.CollectorURL == "" {
		log.ErrorContext(ctx, "No collector configured", "exporter", c.Exporter)
		return fmt.Errorf("%w for exporter %q", ErrMissingCollectorURL, c.Exporter)
	}
	u, err := url.Parse(c.CollectorURL)
	if err != nil || u.Host == "" {
		log.ErrorContext(ctx, "Collector url is not usable", "url", c.CollectorURL)
		return fmt.Errorf("%w: %q", ErrInvalidCollectorURL, c.CollectorURL)
	}
	return nil
}
