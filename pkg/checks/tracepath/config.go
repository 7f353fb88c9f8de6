// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import (
	"fmt"
	"time"

	"github.com/telekom/tracepath/internal/tracepath"
	"github.com/telekom/tracepath/pkg/checks"
)

const minInterval = time.Second

// Config is the configuration for the tracepath check
type Config struct {
	// Targets is a list of destinations to trace.
	Targets []tracepath.Target `json:"targets" yaml:"targets" mapstructure:"targets"`
	// Interval is the interval at which to run the tracepath check.
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`
	// Options are the options for every trace of the check.
	tracepath.Options `json:",inline" yaml:",inline" mapstructure:",squash"`
}

func (c *Config) For() string {
	return CheckName
}

func (c *Config) Validate() error {
	if c.Interval < minInterval {
		return checks.ErrInvalidConfig{CheckName: CheckName, Field: "interval", Reason: fmt.Sprintf("must be at least %v", minInterval)}
	}

	if err := c.Options.Validate(); err != nil {
		return checks.ErrInvalidConfig{CheckName: CheckName, Field: "options", Err: err}
	}

	for i, t := range c.Targets {
		if err := t.Validate(); err != nil {
			return checks.ErrInvalidConfig{CheckName: CheckName, Field: fmt.Sprintf("targets[%d]", i), Err: err}
		}
	}
	return nil
}
