// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		handlers []slog.Handler
		logLevel string
	}{
		{name: "default handler and level", handlers: nil, logLevel: ""},
		{name: "default handler with debug level", handlers: nil, logLevel: "DEBUG"},
		{name: "custom handler", handlers: []slog.Handler{slog.NewJSONHandler(os.Stderr, nil)}, logLevel: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.logLevel)

			log := NewLogger(tt.handlers...)
			require.NotNil(t, log)

			if tt.logLevel != "" {
				assert.True(t, log.Enabled(t.Context(), getLevel(tt.logLevel)))
			}
			if len(tt.handlers) > 0 {
				assert.Same(t, tt.handlers[0], log.Handler())
			}
		})
	}
}

func TestNewContextWithLogger(t *testing.T) {
	parents := map[string]context.Context{
		"plain context":       t.Context(),
		"context with logger": IntoContext(t.Context(), NewLogger()),
	}

	for name, parent := range parents {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := NewContextWithLogger(parent)
			defer cancel()

			_, ok := ctx.Value(logger{}).(*slog.Logger)
			assert.True(t, ok, "context should carry a *slog.Logger")
			assert.NotEqual(t, parent, ctx)
		})
	}
}

func TestFromContext(t *testing.T) {
	t.Setenv("LOG_FORMAT", "")
	custom := NewLogger(slog.NewTextHandler(os.Stderr, nil))

	//nolint:staticcheck // nil context is part of the contract
	assert.NotNil(t, FromContext(nil))
	assert.Same(t, custom, FromContext(IntoContext(t.Context(), custom)))
	assert.IsType(t, &slog.JSONHandler{}, FromContext(t.Context()).Handler())
}

func TestMiddleware(t *testing.T) {
	called := false
	handler := Middleware(t.Context())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, called = r.Context().Value(logger{}).(*slog.Logger)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.True(t, called, "middleware should inject the logger into the request context")
}

func TestNewHandler(t *testing.T) {
	tests := []struct {
		format    string
		level     string
		wantText  bool
		wantLevel slog.Level
	}{
		{format: "", level: "", wantText: false, wantLevel: slog.LevelInfo},
		{format: "TEXT", level: "DEBUG", wantText: true, wantLevel: slog.LevelDebug},
		{format: "json", level: "WARN", wantText: false, wantLevel: slog.LevelWarn},
		{format: "text", level: "bogus", wantText: true, wantLevel: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.format+"/"+tt.level, func(t *testing.T) {
			t.Setenv("LOG_FORMAT", tt.format)
			t.Setenv("LOG_LEVEL", tt.level)

			h := newHandler()
			_, isText := h.(*slog.TextHandler)
			assert.Equal(t, tt.wantText, isText)
			assert.True(t, h.Enabled(t.Context(), tt.wantLevel))
		})
	}
}

func TestGetLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"WARNING": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"UNKNOWN": slog.LevelInfo,
	}

	for in, want := range tests {
		assert.Equal(t, want, getLevel(in), "getLevel(%q)", in)
	}
}
