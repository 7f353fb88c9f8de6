// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidListeningAddress is returned when the listening address cannot be parsed
	ErrInvalidListeningAddress = errors.New("invalid listening address")
	// ErrInvalidRoute is returned when a route has no path or an unsupported method
	ErrInvalidRoute = errors.New("invalid route")
)

// ErrCreateOpenapiSchema is returned when the result schema of a check cannot be generated
type ErrCreateOpenapiSchema struct {
	Name string
	Err  error
}

func (e ErrCreateOpenapiSchema) Error() string {
	return fmt.Sprintf("failed to get schema for check %s: %v", e.Name, e.Err)
}

func (e ErrCreateOpenapiSchema) Unwrap() error {
	return e.Err
}
