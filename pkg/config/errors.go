// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import "errors"

var (
	// ErrInvalidInstanceName is returned when the watch instance name is invalid
	ErrInvalidInstanceName = errors.New("invalid instance name")
	// ErrInvalidWatchInterval is returned when the watch interval is invalid
	ErrInvalidWatchInterval = errors.New("invalid watch interval")
	// ErrInvalidLoaderInterval is returned when the loader interval is invalid
	ErrInvalidLoaderInterval = errors.New("invalid loader interval")
	// ErrInvalidLoaderFilePath is returned when the loader file path is invalid
	ErrInvalidLoaderFilePath = errors.New("invalid loader file path")
)
