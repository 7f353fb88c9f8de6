// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import "net/netip"

// traceContext is the mutable state of a single trace. It is owned by the
// tracer loop and handed to every component by reference.
type traceContext struct {
	// dst is the resolved destination.
	dst netip.Addr
	// basePort is the destination port of history slot 0.
	basePort int
	// mtu is the current path MTU estimate.
	mtu int
	// overhead is the IP and UDP header size of the address family.
	overhead int
	// maxHops is the hop limit budget.
	maxHops int
	// hopsTo and hopsFrom are the confirmed distances, -1 while unknown.
	hopsTo   int
	hopsFrom int
	// history maps outstanding probes to their slots.
	history ledger
	// buf is the outbound datagram, sized mtu - overhead.
	buf []byte

	state  State
	reason string
}

func newTraceContext(dst netip.Addr, basePort, mtu, overhead, maxHops int) *traceContext {
	return &traceContext{
		dst:      dst,
		basePort: basePort,
		mtu:      mtu,
		overhead: overhead,
		maxHops:  maxHops,
		hopsTo:   -1,
		hopsFrom: -1,
		buf:      make([]byte, mtu-overhead),
	}
}

// setMTU lowers the MTU estimate and resizes the outbound datagram.
// Values that would not shrink the datagram, or leave no room past the
// headers, are ignored.
func (tc *traceContext) setMTU(mtu int) bool {
	if mtu <= tc.overhead || mtu >= tc.mtu {
		return false
	}
	tc.mtu = mtu
	tc.buf = make([]byte, mtu-tc.overhead)
	return true
}

// finish records the terminal state of the trace.
func (tc *traceContext) finish(state State, reason string) {
	tc.state = state
	tc.reason = reason
}

func (tc *traceContext) summary() Summary {
	return Summary{
		State:    tc.state,
		PMTU:     tc.mtu,
		HopsTo:   tc.hopsTo,
		HopsFrom: tc.hopsFrom,
		Reason:   tc.reason,
	}
}
