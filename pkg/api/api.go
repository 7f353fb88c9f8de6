// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/telekom/tracepath/internal/logger"
)

const readHeaderTimeout = 5 * time.Second

// API is the http server of watch mode
//
//go:generate go tool moq -out api_moq.go . API
type API interface {
	// Run serves the registered routes until the context is canceled
	// or the server is shut down
	Run(ctx context.Context) error
	// Shutdown gracefully stops the server
	Shutdown(ctx context.Context) error
	// RegisterRoutes adds routes to the router
	RegisterRoutes(ctx context.Context, routes ...Route) error
}

// Config is the configuration of the api server
type Config struct {
	// ListeningAddress is the host:port the server binds to
	ListeningAddress string `yaml:"address" mapstructure:"address"`
}

// Validate checks the listening address
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.ListeningAddress); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidListeningAddress, c.ListeningAddress, err)
	}
	return nil
}

// Route is a handler bound to a path and method
type Route struct {
	Path    string
	Method  string
	Handler http.HandlerFunc
}

// MethodAny registers a route for every http method
const MethodAny = "*"

var methods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions, MethodAny,
}

type api struct {
	server *http.Server
	router chi.Router
}

// New creates a new api server
func New(cfg Config) API {
	r := chi.NewRouter()
	return &api{
		server: &http.Server{Addr: cfg.ListeningAddress, Handler: r, ReadHeaderTimeout: readHeaderTimeout},
		router: r,
	}
}

// Run serves the api until the context is done. It returns nil
// when the server was shut down.
func (a *api) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()
	log := logger.FromContext(ctx)

	cErr := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "Serving api", "address", a.server.Addr)
		cErr <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("failed serving api: %w", ctx.Err())
	case err := <-cErr:
		if errors.Is(err, http.ErrServerClosed) {
			log.InfoContext(ctx, "Api server closed")
			return nil
		}
		log.ErrorContext(ctx, "Failed to serve api", "error", err)
		return fmt.Errorf("failed serving api: %w", err)
	}
}

// Shutdown gracefully stops the server
func (a *api) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("failed shutting down api server: %w", err)
	}
	return nil
}

// RegisterRoutes registers the default middleware and routes, then the given ones
func (a *api) RegisterRoutes(ctx context.Context, routes ...Route) error {
	if len(a.router.Middlewares()) == 0 {
		a.router.Use(logger.Middleware(ctx), middleware.Recoverer)
		a.router.Get("/", okHandler)
	}

	for _, route := range routes {
		if route.Path == "" || route.Handler == nil || !slices.Contains(methods, route.Method) {
			return fmt.Errorf("%w: %s %q", ErrInvalidRoute, route.Method, route.Path)
		}
		if route.Method == MethodAny {
			a.router.Handle(route.Path, route.Handler)
			continue
		}
		a.router.Method(route.Method, route.Path, route.Handler)
	}
	return nil
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
