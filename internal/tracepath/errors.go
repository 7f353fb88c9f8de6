// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import (
	"context"
	"errors"
)

var (
	// ErrEmptyTarget is returned when no destination was given.
	ErrEmptyTarget = errors.New("target address cannot be empty")
	// ErrInvalidBasePort is returned for ports outside 1..65535.
	ErrInvalidBasePort = errors.New("invalid base port")
	// ErrInvalidMaxHops is returned when the hop budget is out of range.
	ErrInvalidMaxHops = errors.New("invalid max hops")
	// ErrPacketTooShort is returned when the packet length does not exceed the header overhead.
	ErrPacketTooShort = errors.New("packet length too short")
	// ErrNoAddress is returned when the destination resolves to no usable address.
	ErrNoAddress = errors.New("no usable address for destination")
)

// isExpectedError reports whether err stops a trace for reasons
// outside the tracer's control.
func isExpectedError(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
