// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"

	tpcheck "github.com/telekom/tracepath/pkg/checks/tracepath"
)

// Loader provides the check configuration of watch mode
type Loader interface {
	// Run starts the loader routine.
	// The loader should be able
	// to handle all errors by itself and retry if necessary.
	// If the context is canceled,
	// the Run method returns an error.
	Run(context.Context) error
	// Shutdown stops the loader routine.
	Shutdown(context.Context)
}

// NewLoader returns the loader of the watch target list
func NewLoader(cfg *Config, cCheck chan<- *tpcheck.Config) Loader {
	return NewFileLoader(cfg, cCheck)
}
