// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/tracepath/test"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{name: "port only", address: ":8080"},
		{name: "host and port", address: "127.0.0.1:9090"},
		{name: "empty", address: "", wantErr: true},
		{name: "missing port", address: "localhost", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{ListeningAddress: tt.address}
			err := c.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidListeningAddress)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAPI_RegisterRoutes(t *testing.T) {
	tests := []struct {
		name       string
		route      Route
		method     string
		path       string
		wantErr    bool
		wantStatus int
	}{
		{
			name:       "default root route",
			method:     http.MethodGet,
			path:       "/",
			wantStatus: http.StatusOK,
		},
		{
			name:       "get route",
			route:      Route{Path: "/v1/results", Method: http.MethodGet, Handler: teapot},
			method:     http.MethodGet,
			path:       "/v1/results",
			wantStatus: http.StatusTeapot,
		},
		{
			name:       "wrong method",
			route:      Route{Path: "/v1/results", Method: http.MethodGet, Handler: teapot},
			method:     http.MethodPost,
			path:       "/v1/results",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "any method",
			route:      Route{Path: "/metrics", Method: MethodAny, Handler: teapot},
			method:     http.MethodPost,
			path:       "/metrics",
			wantStatus: http.StatusTeapot,
		},
		{
			name:    "unsupported method",
			route:   Route{Path: "/x", Method: "BREW", Handler: teapot},
			wantErr: true,
		},
		{
			name:    "missing path",
			route:   Route{Method: http.MethodGet, Handler: teapot},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(Config{ListeningAddress: ":0"}).(*api)
			var routes []Route
			if tt.route.Handler != nil {
				routes = append(routes, tt.route)
			}
			err := a.RegisterRoutes(t.Context(), routes...)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRoute)
				return
			}
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			a.router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, http.NoBody))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAPI_RunAndShutdown(t *testing.T) {
	test.MarkAsLong(t)
	a := New(Config{ListeningAddress: "127.0.0.1:0"})
	require.NoError(t, a.RegisterRoutes(t.Context()))

	cErr := make(chan error, 1)
	go func() {
		cErr <- a.Run(t.Context())
	}()

	// Give the server a moment to start listening.
	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()
	require.NoError(t, a.Shutdown(ctx))

	select {
	case err := <-cErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("api did not stop after shutdown")
	}
}

func TestAPI_RunContextCanceled(t *testing.T) {
	test.MarkAsLong(t)
	a := New(Config{ListeningAddress: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := a.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_ = a.Shutdown(t.Context())
}

func TestErrCreateOpenapiSchema(t *testing.T) {
	inner := errors.New("boom")
	err := ErrCreateOpenapiSchema{Name: "tracepath", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "failed to get schema for check tracepath: boom", err.Error())
}

func teapot(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusTeapot)
}
