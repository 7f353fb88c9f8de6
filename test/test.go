// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package test contains helpers shared by the unit tests.
package test

import (
	"os"
	"path/filepath"
	"testing"
)

// MarkAsShort marks a test as a unit test without external dependencies.
// It runs in every mode.
func MarkAsShort(t testing.TB) {
	t.Helper()
}

// MarkAsLong marks a test as one that opens real sockets or talks to the
// network. It is skipped when the -short flag is set.
func MarkAsLong(t testing.TB) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping long test in short mode")
	}
}

// WriteFile writes content to name inside a temporary directory of the test
// and returns the full path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
