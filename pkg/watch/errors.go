// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"errors"
	"fmt"

	"github.com/telekom/tracepath/pkg/checks"
)

// ErrFinalShutdown is returned by Run once the watcher was shut down
var ErrFinalShutdown = errors.New("watcher was shut down")

// ErrShutdown holds any errors that may
// have occurred during shutdown of the watcher
type ErrShutdown struct {
	errAPI     error
	errMetrics error
}

// HasError returns true if any of the errors are set
func (e ErrShutdown) HasError() bool {
	return e.errAPI != nil || e.errMetrics != nil
}

func (e ErrShutdown) Error() string {
	if !e.HasError() {
		return "no shutdown errors"
	}
	return errors.Join(e.errAPI, e.errMetrics).Error()
}

// ErrRunningCheck is returned when a check stopped with an error
type ErrRunningCheck struct {
	Check checks.Check
	Err   error
}

func (e *ErrRunningCheck) Error() string {
	return fmt.Sprintf("check %s failed: %v", e.Check.Name(), e.Err)
}

func (e *ErrRunningCheck) Unwrap() error {
	return e.Err
}
