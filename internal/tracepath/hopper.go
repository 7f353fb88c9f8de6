// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import (
	"context"
	"time"

	"github.com/telekom/tracepath/internal/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxProbeAttempts is the number of unanswered probes sent per hop limit.
const maxProbeAttempts = 3

// hopper walks the hop limits of a single trace over one socket.
type hopper struct {
	conn       conn
	names      nameResolver
	otelTracer trace.Tracer
	opts       Options
	hops       chan<- Hop
	now        func() time.Time
}

// run probes hop limits 1 .. maxHops until the trace reaches a terminal state
// or the budget is exhausted.
func (h *hopper) run(ctx context.Context, tc *traceContext) (Summary, error) {
	log := logger.FromContext(ctx)

	for ttl := 1; ttl <= tc.maxHops; ttl++ {
		if err := ctx.Err(); err != nil {
			return tc.summary(), err
		}
		done, err := h.traceHop(ctx, tc, ttl)
		if err != nil {
			return tc.summary(), err
		}
		if done {
			log.DebugContext(ctx, "Trace finished", "ttl", ttl, "state", tc.state, "pmtu", tc.mtu)
			return tc.summary(), nil
		}
	}

	tc.finish(StateTooManyHops, "")
	log.DebugContext(ctx, "Hop budget exhausted", "maxHops", tc.maxHops, "pmtu", tc.mtu)
	return tc.summary(), nil
}

// traceHop probes a single hop limit. It reports whether the trace is done.
func (h *hopper) traceHop(ctx context.Context, tc *traceContext, ttl int) (bool, error) {
	ctx, span := h.otelTracer.Start(ctx, "Hop", trace.WithAttributes(
		attribute.Int("tracepath.hop.ttl", ttl),
		attribute.Int("tracepath.pmtu", tc.mtu),
	))
	defer span.End()
	log := logger.FromContext(ctx)

	if err := h.conn.setHopLimit(ttl); err != nil {
		return false, wrapError(ctx, err, "failed to set hop limit %d", ttl)
	}

	v := verdictPending
	attempt := 0
	for attempt < maxProbeAttempts {
		mtu := tc.mtu
		var err error
		v, err = h.probeTTL(ctx, tc, ttl)
		if err != nil {
			return false, wrapError(ctx, err, "failed to probe hop %d", ttl)
		}
		if v == verdictDone {
			span.SetStatus(codes.Ok, "trace finished")
			return true, nil
		}
		if tc.mtu != mtu {
			log.DebugContext(ctx, "MTU changed, restarting hop", "ttl", ttl, "old", mtu, "new", tc.mtu)
			span.AddEvent("MTU changed", trace.WithAttributes(attribute.Int("tracepath.pmtu", tc.mtu)))
			attempt = 0
			continue
		}
		if v != verdictPending {
			break
		}
		attempt++
	}

	if v == verdictPending {
		h.emit(ctx, Hop{TTL: ttl, Confirmed: true, Event: EventNoReply})
	}
	span.SetAttributes(attribute.String("tracepath.hop.verdict", v.String()))
	return false, nil
}

// emit reports a hop line to the consumer of the trace.
func (h *hopper) emit(ctx context.Context, hop Hop) {
	log := logger.FromContext(ctx)
	span := trace.SpanFromContext(ctx)

	span.AddEvent("Hop reported", trace.WithAttributes(
		attribute.Int("tracepath.hop.ttl", hop.TTL),
		attribute.String("tracepath.hop.event", string(hop.Event)),
		attribute.String("tracepath.hop.addr", hop.Addr.String()),
		attribute.Bool("tracepath.hop.confirmed", hop.Confirmed),
		attribute.Stringer("tracepath.hop.latency", hop.Latency),
	))
	log.DebugContext(ctx, "Hop reported", "hop", hop)

	select {
	case h.hops <- hop:
	case <-ctx.Done():
		log.DebugContext(ctx, "Dropping hop, trace canceled", "ttl", hop.TTL)
	}
}
