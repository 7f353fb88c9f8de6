// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/telekom/tracepath/internal/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sys/unix"
)

// verdict is the outcome of a probe or of draining the error queue.
type verdict int

const (
	// verdictPending means no notification was decoded.
	verdictPending verdict = iota
	// verdictProgress means at least one non-terminal notification was decoded.
	verdictProgress
	// verdictSendFailed means no probe left the host.
	verdictSendFailed
	// verdictDone means the trace reached a terminal state.
	verdictDone
)

func (v verdict) String() string {
	switch v {
	case verdictPending:
		return "pending"
	case verdictProgress:
		return "progress"
	case verdictSendFailed:
		return "send-failed"
	case verdictDone:
		return "done"
	default:
		return "unknown"
	}
}

// entryResult is the outcome of decoding a single error queue entry.
type entryResult int

const (
	entryHandled entryResult = iota
	entryNoInfo
	entryTerminal
)

// Annotations of terminal failures.
const (
	annotationProtocol        = "!P"
	annotationHostUnreachable = "!H"
	annotationNetUnreachable  = "!N"
	annotationAccess          = "!A"
)

// drainErrors reads the socket error queue until it is empty or a terminal
// notification was decoded.
func (h *hopper) drainErrors(ctx context.Context, tc *traceContext, ttl int) (verdict, error) {
	log := logger.FromContext(ctx)
	result := verdictPending

	var payload [wireProbeLen]byte
	oob := make([]byte, oobBufSize)
	for {
		recvAt := h.now()
		msg, err := h.conn.recvErr(payload[:], oob)
		switch {
		case errors.Is(err, unix.EAGAIN):
			log.DebugContext(ctx, "Socket error queue is empty", "ttl", ttl, "verdict", result)
			return result, nil
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return result, fmt.Errorf("failed to read socket error queue: %w", err)
		}

		n := min(max(msg.n, 0), wireProbeLen)
		switch h.decodeEntry(ctx, tc, ttl, msg, payload[:n], recvAt) {
		case entryTerminal:
			return verdictDone, nil
		case entryNoInfo:
			return result, nil
		case entryHandled:
			result = verdictProgress
		}
	}
}

// decodeEntry interprets one error queue entry, updates the trace context and
// reports the resulting hop line.
func (h *hopper) decodeEntry(ctx context.Context, tc *traceContext, ttl int, msg socketMsg, payload []byte, recvAt time.Time) entryResult {
	log := logger.FromContext(ctx)

	sndHops := -1
	var sentAt time.Time
	timed := false
	if slot, ok := tc.history.slotOf(tc.basePort, msg.port); ok {
		if e, ok := tc.history.take(slot); ok {
			sndHops, sentAt, timed = e.hops, e.sent, true
		}
	}

	broken := false
	if p, ok := decodeWireProbe(payload); ok {
		if p.broken() {
			broken = true
		} else {
			sndHops, sentAt, timed = int(p.hops), p.sentAt(), true
		}
	}

	recs := parseControl(ctx, msg.oob)
	if recs.err == nil {
		log.DebugContext(ctx, "Error queue entry without extended error", "ttl", ttl, "port", msg.port)
		h.emit(ctx, Hop{TTL: ttl, Event: EventNoInfo})
		return entryNoInfo
	}
	ee := recs.err
	log.DebugContext(ctx, "Decoded extended error",
		"ttl", ttl,
		"sndHops", sndHops,
		"errno", ee.Errno,
		"origin", ee.Origin,
		"type", ee.Type,
		"code", ee.Code,
		"info", ee.Info,
		"hopLimit", recs.hopLimit,
	)

	hop := Hop{TTL: ttl}
	switch {
	case ee.local():
		hop.Local = true
	case ee.icmp():
		if sndHops > 0 {
			hop.TTL = sndHops
			hop.Confirmed = true
		}
		hop.Addr = newHopAddress(ee.offender)
		hop.Name = h.names.lookup(ctx, ee.offender)
	}
	if timed {
		hop.Latency = recvAt.Sub(sentAt)
		hop.Timed = true
	}
	hop.BrokenRouter = broken

	retHops := -1
	if recs.hopLimit >= 0 {
		retHops = normalizeHopLimit(recs.hopLimit)
	}

	errno := unix.Errno(ee.Errno)
	switch errno {
	case unix.ETIMEDOUT:
		hop.Event = EventHop
	case unix.EMSGSIZE:
		hop.Event = EventPMTU
		hop.PMTU = int(ee.Info)
		if !tc.setMTU(hop.PMTU) {
			log.DebugContext(ctx, "Ignoring reported MTU", "reported", hop.PMTU, "current", tc.mtu)
		}
	case unix.ECONNREFUSED:
		hop.Event = EventReached
		tc.hopsTo = sndHops
		if sndHops < 0 {
			tc.hopsTo = ttl
		}
		tc.hopsFrom = retHops
		tc.finish(StateReached, "")
		h.emit(ctx, hop)
		return entryTerminal
	case unix.EPROTO:
		return h.fail(ctx, tc, hop, annotationProtocol, "")
	case unix.EHOSTUNREACH:
		if !ee.timeExceeded() {
			return h.fail(ctx, tc, hop, annotationHostUnreachable, "")
		}
		hop.Event = EventHop
		if retHops >= 0 && ((sndHops >= 0 && retHops != sndHops) || (sndHops < 0 && retHops != ttl)) {
			hop.Asymm = retHops
		}
	case unix.ENETUNREACH:
		return h.fail(ctx, tc, hop, annotationNetUnreachable, "")
	case unix.EACCES:
		return h.fail(ctx, tc, hop, annotationAccess, "")
	default:
		return h.fail(ctx, tc, hop, "", errno.Error())
	}

	h.emit(ctx, hop)
	return entryHandled
}

// fail reports a terminal failure and aborts the trace.
func (h *hopper) fail(ctx context.Context, tc *traceContext, hop Hop, annotation, desc string) entryResult {
	span := trace.SpanFromContext(ctx)

	hop.Event = EventFailure
	hop.Annotation = annotation
	hop.Error = desc

	reason := annotation
	if reason == "" {
		reason = "NET ERROR: " + desc
	}
	tc.finish(StateAborted, reason)

	span.AddEvent("Trace aborted", trace.WithAttributes(
		attribute.Int("tracepath.hop.ttl", hop.TTL),
		attribute.String("tracepath.hop.addr", hop.Addr.String()),
		attribute.String("tracepath.abort.reason", reason),
	))
	h.emit(ctx, hop)
	return entryTerminal
}
