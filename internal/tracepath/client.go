// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/telekom/tracepath/internal/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ Client = (*udpClient)(nil)

// Client is able to trace the path to a target.
//
//go:generate go tool moq -out client_moq.go . Client
type Client interface {
	// Run traces the path to the target with the specified options.
	// Hop lines are handed to the client's [Reporter] as they are decoded.
	Run(ctx context.Context, target Target, opts *Options) (Result, error)
}

// ClientOption configures a [Client].
type ClientOption func(*udpClient)

// WithReporter sets the [Reporter] receiving hop lines and the summary.
func WithReporter(r Reporter) ClientOption {
	return func(c *udpClient) {
		if r != nil {
			c.reporter = r
		}
	}
}

type udpClient struct {
	openSocket func(ctx context.Context, dst netip.Addr) (conn, error)
	lookup     lookupFunc
	names      func(opts *Options) nameResolver
	reporter   Reporter
	now        func() time.Time
}

// NewClient returns a [Client] probing with UDP datagrams.
func NewClient(opts ...ClientOption) Client {
	c := &udpClient{
		openSocket: openSocket,
		lookup:     net.DefaultResolver.LookupNetIP,
		names:      newNameResolver,
		reporter:   nopReporter{},
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run resolves the target, opens the probe socket and walks the hop limits
// until the trace reaches a terminal state.
func (c *udpClient) Run(ctx context.Context, target Target, opts *Options) (Result, error) {
	if err := target.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid target %s: %w", target, err)
	}
	if err := opts.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid options: %w", err)
	}

	tracer := trace.SpanFromContext(ctx).TracerProvider().Tracer("tracepath.udpClient")
	ctx, sp := tracer.Start(ctx, "Run", trace.WithAttributes(
		attribute.Stringer("tracepath.target", target),
		attribute.Int("tracepath.options.max_hops", opts.MaxHops),
		attribute.Stringer("tracepath.options.timeout", opts.Timeout),
	))
	defer sp.End()
	log := logger.FromContext(ctx).With("target", target.String())
	ctx = logger.IntoContext(ctx, log)

	dst, err := resolveDestination(ctx, c.lookup, target.Address, opts)
	if err != nil {
		return Result{}, wrapError(ctx, err, "failed to resolve %s", target.Address)
	}

	overhead, mtu := familyParams(dst)
	if opts.MTU != 0 {
		if opts.MTU <= overhead {
			return Result{}, fmt.Errorf("%w: pktlen must be > %d", ErrPacketTooShort, overhead)
		}
		mtu = opts.MTU
	}
	basePort := opts.BasePort
	if target.Port != 0 {
		basePort = target.Port
	}

	sock, err := c.openSocket(ctx, dst)
	if err != nil {
		return Result{}, wrapError(ctx, err, "failed to open probe socket")
	}
	defer func() {
		if cErr := sock.Close(); cErr != nil {
			log.WarnContext(ctx, "Failed to close probe socket", "error", cErr)
		}
	}()

	log.DebugContext(ctx, "Starting trace", "destination", dst, "basePort", basePort, "mtu", mtu)
	sp.SetAttributes(attribute.Stringer("tracepath.destination", dst))

	tc := newTraceContext(dst, basePort, mtu, overhead, opts.MaxHops)
	hops := make(chan Hop, 1)
	h := &hopper{
		conn:       sock,
		names:      c.names(opts),
		otelTracer: tracer,
		opts:       *opts,
		hops:       hops,
		now:        c.now,
	}

	var (
		summary Summary
		runErr  error
	)
	go func() {
		defer close(hops)
		summary, runErr = h.run(ctx, tc)
	}()

	res := Result{Target: target, Destination: dst.String(), Hops: []Hop{}}
	for hop := range hops {
		res.Hops = append(res.Hops, hop)
		c.reporter.ReportHop(hop)
	}
	res.Summary = summary
	logHops(ctx, res.Hops)

	if runErr != nil {
		if isExpectedError(runErr) {
			return res, runErr
		}
		return res, wrapError(ctx, runErr, "trace to %s failed", target)
	}

	c.reporter.ReportSummary(summary)
	sp.SetAttributes(
		attribute.String("tracepath.state", string(summary.State)),
		attribute.Int("tracepath.pmtu", summary.PMTU),
	)
	if summary.State == StateAborted {
		sp.SetStatus(codes.Error, summary.Reason)
	}
	log.InfoContext(ctx, "Trace finished", "state", summary.State, "pmtu", summary.PMTU, "hopsTo", summary.HopsTo, "hopsFrom", summary.HopsFrom)
	return res, nil
}
