// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"

	"github.com/telekom/tracepath/internal/tracepath"
	"github.com/telekom/tracepath/pkg/api"
	"github.com/telekom/tracepath/pkg/metrics"
)

// Config is the startup configuration of tracepath
type Config struct {
	// Trace holds the options of every trace
	Trace tracepath.Options `yaml:"trace" mapstructure:"trace"`
	// Watch is the configuration of the periodic watch mode
	Watch WatchConfig `yaml:"watch" mapstructure:"watch"`
	// Telemetry is the configuration for the telemetry
	Telemetry metrics.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// WatchConfig is the configuration of watch mode
type WatchConfig struct {
	// Name is the DNS name of the instance, exposed as tracepath_instance_info
	Name string `yaml:"name" mapstructure:"name"`
	// Interval is the time between two trace runs over all targets
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	// Loader is the configuration of the target file loader
	Loader LoaderConfig `yaml:"loader" mapstructure:"loader"`
	// Api is the configuration for the api server
	Api api.Config `yaml:"api" mapstructure:"api"`
}

// LoaderConfig is the configuration for loader
type LoaderConfig struct {
	// Interval is the reload interval of the target file. Zero loads it once.
	Interval time.Duration    `yaml:"interval" mapstructure:"interval"`
	File     FileLoaderConfig `yaml:"file" mapstructure:"file"`
}

// FileLoaderConfig is the configuration for the file loader
type FileLoaderConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// TargetFile is the content of the watch target file
type TargetFile struct {
	Targets []tracepath.Target `yaml:"targets"`
}

// HasTelemetry returns true if the config has telemetry enabled
func (c *Config) HasTelemetry() bool {
	return c.Telemetry.Enabled
}
