// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/telekom/tracepath/internal/tracepath"
	"github.com/telekom/tracepath/pkg/api"
	"github.com/telekom/tracepath/pkg/metrics"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "invalid max hops", mutate: func(c *Config) { c.Trace.MaxHops = 256 }, wantErr: tracepath.ErrInvalidMaxHops},
		{name: "invalid base port", mutate: func(c *Config) { c.Trace.BasePort = 0 }, wantErr: tracepath.ErrInvalidBasePort},
		{
			name:   "telemetry disabled is not validated",
			mutate: func(c *Config) { c.Telemetry = metrics.Config{Enabled: false, Exporter: "bogus"} },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Trace: tracepath.DefaultOptions()}
			tt.mutate(c)
			err := c.Validate(t.Context())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_ValidateWatch(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Trace: tracepath.DefaultOptions(),
			Watch: WatchConfig{
				Name:     "tracepath.example.com",
				Interval: time.Minute,
				Loader:   LoaderConfig{Interval: time.Minute, File: FileLoaderConfig{Path: "targets.yaml"}},
				Api:      api.Config{ListeningAddress: ":8080"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr []error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "invalid name", mutate: func(c *Config) { c.Watch.Name = "not a name" }, wantErr: []error{ErrInvalidInstanceName}},
		{name: "interval too short", mutate: func(c *Config) { c.Watch.Interval = 0 }, wantErr: []error{ErrInvalidWatchInterval}},
		{name: "negative loader interval", mutate: func(c *Config) { c.Watch.Loader.Interval = -1 }, wantErr: []error{ErrInvalidLoaderInterval}},
		{name: "missing file path", mutate: func(c *Config) { c.Watch.Loader.File.Path = "" }, wantErr: []error{ErrInvalidLoaderFilePath}},
		{name: "invalid api address", mutate: func(c *Config) { c.Watch.Api.ListeningAddress = "" }, wantErr: []error{api.ErrInvalidListeningAddress}},
		{
			name: "errors are joined",
			mutate: func(c *Config) {
				c.Watch.Name = ""
				c.Trace.MaxHops = -1
			},
			wantErr: []error{ErrInvalidInstanceName, tracepath.ErrInvalidMaxHops},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.ValidateWatch(t.Context())
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			for _, want := range tt.wantErr {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestIsDNSName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "fqdn", in: "tracepath.telekom.de", want: true},
		{name: "single label", in: "tracepath", want: false},
		{name: "uppercase", in: "Tracepath.telekom.de", want: false},
		{name: "empty", in: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDNSName(tt.in))
		})
	}
}
