// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package checks

import (
	"fmt"
)

// ErrConfigMismatch is returned when a check receives the configuration of another check.
type ErrConfigMismatch struct {
	Expected string
	Current  string
}

func (e ErrConfigMismatch) Error() string {
	return fmt.Sprintf("check %q cannot apply a %q configuration", e.Expected, e.Current)
}

// ErrInvalidConfig is returned when a field of a check configuration is rejected.
// Err carries the underlying validation error, if any.
type ErrInvalidConfig struct {
	CheckName string
	Field     string
	Reason    string
	Err       error
}

func (e ErrInvalidConfig) Error() string {
	reason := e.Reason
	if reason == "" && e.Err != nil {
		reason = e.Err.Error()
	}
	return fmt.Sprintf("%s: invalid %s: %s", e.CheckName, e.Field, reason)
}

func (e ErrInvalidConfig) Unwrap() error {
	return e.Err
}

// ErrMetricNotFound is returned when no metrics are recorded for a target.
type ErrMetricNotFound struct {
	Target string
}

func (e ErrMetricNotFound) Error() string {
	return fmt.Sprintf("no metrics recorded for target %q", e.Target)
}
