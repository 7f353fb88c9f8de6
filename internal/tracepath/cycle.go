// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import (
	"context"

	"github.com/telekom/tracepath/internal/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxSendAttempts is how often a probe send is attempted before the hop is
// reported as a send failure.
const maxSendAttempts = 10

// probeTTL sends one probe with the current hop limit and interprets
// whatever the socket reports within the probe timeout.
func (h *hopper) probeTTL(ctx context.Context, tc *traceContext, ttl int) (v verdict, err error) {
	ctx, span := h.otelTracer.Start(ctx, "Probe", trace.WithAttributes(
		attribute.Int("tracepath.hop.ttl", ttl),
		attribute.Int("tracepath.probe.size", len(tc.buf)),
	))
	defer func() {
		span.SetAttributes(attribute.String("tracepath.probe.verdict", v.String()))
		span.End()
	}()
	log := logger.FromContext(ctx)
	clear(tc.buf)

	sent := false
	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		now := h.now()
		port := tc.history.port(tc.basePort)
		tc.history.record(ttl, now)
		newWireProbe(ttl, now).encode(tc.buf)

		err := h.conn.send(tc.buf, port)
		if err == nil {
			sent = true
			break
		}
		log.DebugContext(ctx, "Failed to send probe", "ttl", ttl, "port", port, "attempt", attempt, "error", err)

		// The send error is usually queued as well, e.g. a local MTU overrun.
		tc.history.clear()
		v, err := h.drainErrors(ctx, tc, ttl)
		if err != nil {
			return v, err
		}
		if v == verdictDone {
			return v, nil
		}
	}
	if !sent {
		log.WarnContext(ctx, "Giving up sending probe", "ttl", ttl, "attempts", maxSendAttempts)
		h.emit(ctx, Hop{TTL: ttl, Confirmed: true, Event: EventSendFailed})
		return verdictSendFailed, nil
	}

	tc.history.advance()
	if err := h.conn.wait(h.opts.Timeout); err != nil {
		log.WarnContext(ctx, "Failed waiting for socket activity", "ttl", ttl, "error", err)
	}

	if n, err := h.conn.recv(tc.buf); err == nil && n > 0 {
		log.DebugContext(ctx, "Received data on probe socket", "ttl", ttl, "bytes", n)
		h.emit(ctx, Hop{TTL: ttl, Event: EventReply})
		tc.finish(StateReached, "")
		return verdictDone, nil
	}

	return h.drainErrors(ctx, tc, ttl)
}
