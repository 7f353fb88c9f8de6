// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/telekom/tracepath/internal/tracepath"
	"gopkg.in/yaml.v3"
)

var errUnknownOutput = errors.New("unknown output format")

// outputFormat selects how the result of a trace is written
type outputFormat string

const (
	outputText outputFormat = "text"
	outputJSON outputFormat = "json"
	outputYAML outputFormat = "yaml"
)

func (f outputFormat) IsValid() bool {
	return slices.Contains([]outputFormat{outputText, outputJSON, outputYAML}, f)
}

// reporter returns the live reporter of the format. Only the text
// format prints hops while they are probed.
func (f outputFormat) reporter(w io.Writer, mode tracepath.DisplayMode) tracepath.Reporter {
	if f == outputText {
		return tracepath.NewPrinter(w, mode)
	}
	return nil
}

// write renders the final result. The text format was already
// written by the reporter.
func (f outputFormat) write(w io.Writer, res tracepath.Result) error {
	switch f {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return enc.Close()
	}
	return nil
}
