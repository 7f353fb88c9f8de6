// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/telekom/tracepath/internal/logger"
	"github.com/telekom/tracepath/internal/tracepath"
	"github.com/telekom/tracepath/pkg/checks"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ checks.Check = (*Tracepath)(nil)

const CheckName = "tracepath"

// NewCheck creates a new tracepath check
func NewCheck() checks.Check {
	c := &Tracepath{
		CheckBase: checks.CheckBase{
			Mu:       sync.Mutex{},
			DoneChan: make(chan struct{}, 1),
		},
		config:  Config{},
		client:  tracepath.NewClient(),
		metrics: newMetrics(),
		now:     time.Now,
	}
	c.tracer = otel.Tracer(c.Name())
	return c
}

// Tracepath periodically discovers the path MTU and hop count towards its targets
type Tracepath struct {
	checks.CheckBase
	config  Config
	metrics metrics
	client  tracepath.Client
	tracer  trace.Tracer
	now     func() time.Time
}

type result map[string]traceResult

type traceResult struct {
	// Destination is the resolved address that was traced.
	Destination string `json:"destination"`
	// Hops are the reported lines of the trace.
	Hops []tracepath.Hop `json:"hops"`
	// Summary is the final record of the trace.
	Summary tracepath.Summary `json:"summary"`
	// Duration is the wall time of the trace in seconds.
	Duration float64 `json:"duration"`
	// Error is set when the trace could not be started.
	Error string `json:"error,omitempty"`
}

// Run runs the check in a loop sending results to the provided channel
func (tp *Tracepath) Run(ctx context.Context, cResult chan checks.ResultDTO) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()
	log := logger.FromContext(ctx)

	log.InfoContext(ctx, "Starting tracepath check", "interval", tp.GetConfig().(*Config).Interval.String())
	for {
		select {
		case <-ctx.Done():
			log.ErrorContext(ctx, "Context canceled", "error", ctx.Err())
			return ctx.Err()
		case <-tp.DoneChan:
			return nil
		case <-time.After(tp.GetConfig().(*Config).Interval):
			res := tp.check(ctx)
			cResult <- checks.ResultDTO{
				Name: tp.Name(),
				Result: &checks.Result{
					Data:      res,
					Timestamp: tp.now().UTC(),
				},
			}
			log.DebugContext(ctx, "Successfully finished tracepath check run")
		}
	}
}

// GetConfig returns the current configuration of the check
func (tp *Tracepath) GetConfig() checks.Runtime {
	tp.Mu.Lock()
	defer tp.Mu.Unlock()
	cfg := tp.config
	return &cfg
}

// check traces every configured target one after another. The traces
// share a single socket port range, so they are never run concurrently.
func (tp *Tracepath) check(ctx context.Context) result {
	log := logger.FromContext(ctx)
	ctx, span := tp.tracer.Start(ctx, "tracepath.check")
	defer span.End()

	tp.Mu.Lock()
	cfg := tp.config
	tp.Mu.Unlock()

	res := result{}
	if len(cfg.Targets) == 0 {
		log.WarnContext(ctx, "No targets configured for tracepath check")
		return res
	}

	for _, target := range cfg.Targets {
		if ctx.Err() != nil {
			break
		}
		key := target.String()
		r := tp.trace(ctx, target, &cfg.Options)
		if r.Error != "" {
			span.SetStatus(codes.Error, "Failed to run tracepath")
		}
		tp.metrics.Set(key, r)
		res[key] = r
	}
	return res
}

func (tp *Tracepath) trace(ctx context.Context, target tracepath.Target, opts *tracepath.Options) traceResult {
	log := logger.FromContext(ctx).With("target", target.String())
	ctx, span := tp.tracer.Start(ctx, "tracepath.trace", trace.WithAttributes(
		attribute.String("target", target.String()),
	))
	defer span.End()

	start := tp.now()
	out, err := tp.client.Run(ctx, target, opts)
	duration := tp.now().Sub(start).Seconds()
	if err != nil {
		log.ErrorContext(ctx, "Failed to run tracepath", "error", err)
		span.SetStatus(codes.Error, "Failed to run tracepath")
		span.RecordError(err)
		return traceResult{
			Hops:     []tracepath.Hop{},
			Duration: duration,
			Error:    err.Error(),
		}
	}

	hops := out.Hops
	if hops == nil {
		// An attempted trace is reported with an empty hop list.
		hops = []tracepath.Hop{}
	}
	log.DebugContext(ctx, "Trace finished", "state", out.Summary.State, "pmtu", out.Summary.PMTU)
	return traceResult{
		Destination: out.Destination,
		Hops:        hops,
		Summary:     out.Summary,
		Duration:    duration,
	}
}

// Shutdown is called once when the check is unregistered or the watcher shuts down
func (tp *Tracepath) Shutdown() {
	tp.DoneChan <- struct{}{}
	close(tp.DoneChan)
}

// UpdateConfig is called once when the check is registered
// This is also called while the check is running, if the target file is reloaded
// This should return an error if the config is invalid
func (tp *Tracepath) UpdateConfig(cfg checks.Runtime) error {
	if c, ok := cfg.(*Config); ok {
		tp.Mu.Lock()
		defer tp.Mu.Unlock()

		for _, target := range tp.config.Targets {
			if !slices.Contains(c.Targets, target) {
				err := tp.metrics.Remove(target.String())
				if err != nil && !isNotFound(err) {
					return err
				}
			}
		}

		tp.config = *c
		return nil
	}

	return checks.ErrConfigMismatch{
		Expected: CheckName,
		Current:  cfg.For(),
	}
}

// Schema returns an openapi3.SchemaRef of the result type returned by the check
func (tp *Tracepath) Schema() (*openapi3.SchemaRef, error) {
	return checks.OpenapiFromPerfData(result{})
}

// GetMetricCollectors allows the check to provide prometheus metric collectors
func (tp *Tracepath) GetMetricCollectors() []prometheus.Collector {
	return tp.metrics.List()
}

// Name returns the name of the check
func (tp *Tracepath) Name() string {
	return CheckName
}

// RemoveLabelledMetrics removes the metrics which have the passed
// target as a label
func (tp *Tracepath) RemoveLabelledMetrics(target string) error {
	return tp.metrics.Remove(target)
}

// isNotFound reports whether the target never produced any metrics.
func isNotFound(err error) bool {
	var nf checks.ErrMetricNotFound
	return errors.As(err, &nf)
}
