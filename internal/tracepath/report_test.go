// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func pad(host string) string {
	return host + strings.Repeat(" ", hostColumnSize-len(host))
}

func TestFormatHop(t *testing.T) {
	router := HopAddress{IP: "10.0.0.1"}
	long := strings.Repeat("a", 60) + ".example"

	tests := []struct {
		name string
		hop  Hop
		mode DisplayMode
		want string
	}{
		{
			name: "no reply",
			hop:  Hop{TTL: 2, Event: EventNoReply},
			want: " 2:  no reply",
		},
		{
			name: "send failed",
			hop:  Hop{TTL: 12, Event: EventSendFailed},
			want: "12:  send failed",
		},
		{
			name: "reply received",
			hop:  Hop{TTL: 4, Event: EventReply},
			want: " 4?: reply received 8)",
		},
		{
			name: "no info",
			hop:  Hop{TTL: 4, Event: EventNoInfo},
			want: "no info",
		},
		{
			name: "confirmed hop numeric",
			hop:  Hop{TTL: 1, Confirmed: true, Addr: router, Name: "gw.example", Latency: 1234 * time.Microsecond, Timed: true, Event: EventHop},
			mode: DisplayNumeric,
			want: " 1:  " + pad("10.0.0.1") + "  1.234ms ",
		},
		{
			name: "confirmed hop name",
			hop:  Hop{TTL: 1, Confirmed: true, Addr: router, Name: "gw.example", Latency: 1234 * time.Microsecond, Timed: true, Event: EventHop},
			mode: DisplayName,
			want: " 1:  " + pad("gw.example") + "  1.234ms ",
		},
		{
			name: "name falls back to address",
			hop:  Hop{TTL: 1, Confirmed: true, Addr: router, Event: EventHop},
			mode: DisplayName,
			want: " 1:  " + pad("10.0.0.1"),
		},
		{
			name: "both",
			hop:  Hop{TTL: 1, Confirmed: true, Addr: router, Name: "gw.example", Event: EventHop},
			mode: DisplayBoth,
			want: " 1:  " + pad("gw.example (10.0.0.1)"),
		},
		{
			name: "long host keeps one space",
			hop:  Hop{TTL: 1, Confirmed: true, Addr: router, Name: long, Event: EventHop},
			mode: DisplayName,
			want: " 1:  " + long + " ",
		},
		{
			name: "unconfirmed with asymmetry",
			hop:  Hop{TTL: 3, Addr: router, Latency: 15 * time.Millisecond, Timed: true, Event: EventHop, Asymm: 5},
			mode: DisplayNumeric,
			want: " 3?: " + pad("10.0.0.1") + " 15.000ms asymm  5 ",
		},
		{
			name: "local pmtu",
			hop:  Hop{TTL: 1, Local: true, Event: EventPMTU, PMTU: 1500},
			want: " 1?: [LOCALHOST]" + strings.Repeat(" ", 22) + "pmtu 1500",
		},
		{
			name: "reached",
			hop:  Hop{TTL: 9, Confirmed: true, Addr: router, Latency: 2 * time.Millisecond, Timed: true, Event: EventReached},
			mode: DisplayNumeric,
			want: " 9:  " + pad("10.0.0.1") + "  2.000ms reached",
		},
		{
			name: "broken router",
			hop:  Hop{TTL: 2, Confirmed: true, Addr: router, Timed: true, BrokenRouter: true, Event: EventHop},
			mode: DisplayNumeric,
			want: " 2:  " + pad("10.0.0.1") + "  0.000ms (This broken router returned corrupted payload) ",
		},
		{
			name: "broken router without timing",
			hop:  Hop{TTL: 1, Addr: router, BrokenRouter: true, Event: EventHop},
			mode: DisplayNumeric,
			want: " 1?: " + pad("10.0.0.1") + "(This broken router returned corrupted payload) ",
		},
		{
			name: "annotated failure",
			hop:  Hop{TTL: 5, Confirmed: true, Addr: router, Event: EventFailure, Annotation: "!N"},
			mode: DisplayNumeric,
			want: " 5:  " + pad("10.0.0.1") + "!N",
		},
		{
			name: "net error",
			hop:  Hop{TTL: 5, Event: EventFailure, Error: "input/output error"},
			want: " 5?: \nNET ERROR: input/output error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatHop(tt.hop, tt.mode))
		})
	}
}

func TestFormatSummary(t *testing.T) {
	tests := []struct {
		name string
		s    Summary
		want string
	}{
		{
			name: "reached",
			s:    Summary{State: StateReached, PMTU: 1500, HopsTo: 3, HopsFrom: 61},
			want: "     Resume: pmtu 1500 hops 3 back 61 \n",
		},
		{
			name: "too many hops",
			s:    Summary{State: StateTooManyHops, PMTU: 1400, HopsTo: -1, HopsFrom: -1},
			want: "     Too many hops: pmtu 1400\n     Resume: pmtu 1400 \n",
		},
		{
			name: "aborted",
			s:    Summary{State: StateAborted, PMTU: 65535, HopsTo: -1, HopsFrom: -1, Reason: "!H"},
			want: "     Resume: pmtu 65535 \n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatSummary(tt.s))
		})
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, DisplayNumeric)

	p.ReportHop(Hop{TTL: 1, Event: EventNoReply})
	p.ReportSummary(Summary{State: StateReached, PMTU: 1500, HopsTo: 1, HopsFrom: 1})

	assert.Equal(t, " 1:  no reply\n     Resume: pmtu 1500 hops 1 back 1 \n", buf.String())
}
