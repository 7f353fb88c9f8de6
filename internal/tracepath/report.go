// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// hostColumnSize is the width of the host column in the text output.
const hostColumnSize = 52

// Reporter receives the lines of a trace as they are produced.
type Reporter interface {
	// ReportHop is called for every hop line in the order they are decoded.
	ReportHop(hop Hop)
	// ReportSummary is called once after the trace finished.
	ReportSummary(summary Summary)
}

var (
	_ Reporter = (*Printer)(nil)
	_ Reporter = nopReporter{}
)

type nopReporter struct{}

func (nopReporter) ReportHop(Hop)         {}
func (nopReporter) ReportSummary(Summary) {}

// Printer writes the classic text output of tracepath.
type Printer struct {
	mu   sync.Mutex
	w    io.Writer
	mode DisplayMode
}

// NewPrinter returns a [Printer] rendering hosts according to mode.
func NewPrinter(w io.Writer, mode DisplayMode) *Printer {
	return &Printer{w: w, mode: mode}
}

func (p *Printer) ReportHop(hop Hop) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.w, formatHop(hop, p.mode)+"\n")
}

func (p *Printer) ReportSummary(s Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.w, formatSummary(s))
}

// formatHop renders a hop line without the trailing newline.
func formatHop(h Hop, mode DisplayMode) string {
	switch h.Event {
	case EventNoInfo:
		return "no info"
	case EventNoReply:
		return fmt.Sprintf("%2d:  no reply", h.TTL)
	case EventSendFailed:
		return fmt.Sprintf("%2d:  send failed", h.TTL)
	case EventReply:
		return fmt.Sprintf("%2d?: reply received 8)", h.TTL)
	}

	var b strings.Builder
	switch {
	case h.Local:
		fmt.Fprintf(&b, "%2d?: %-32s ", h.TTL, "[LOCALHOST]")
	case h.Confirmed:
		fmt.Fprintf(&b, "%2d:  %s", h.TTL, hostColumn(h, mode))
	case h.Addr.IP != "":
		fmt.Fprintf(&b, "%2d?: %s", h.TTL, hostColumn(h, mode))
	default:
		fmt.Fprintf(&b, "%2d?: ", h.TTL)
	}

	if h.Timed {
		us := h.Latency.Microseconds()
		fmt.Fprintf(&b, "%3d.%03dms ", us/1000, us%1000)
	}
	if h.BrokenRouter {
		b.WriteString("(This broken router returned corrupted payload) ")
	}

	switch h.Event {
	case EventPMTU:
		fmt.Fprintf(&b, "pmtu %d", h.PMTU)
	case EventReached:
		b.WriteString("reached")
	case EventHop:
		if h.Asymm != 0 {
			fmt.Fprintf(&b, "asymm %2d ", h.Asymm)
		}
	case EventFailure:
		if h.Annotation != "" {
			b.WriteString(h.Annotation)
		} else {
			b.WriteString("\nNET ERROR: " + h.Error)
		}
	}
	return b.String()
}

// hostColumn renders the responding router padded to the host column.
func hostColumn(h Hop, mode DisplayMode) string {
	host := h.Addr.IP
	if host == "" {
		host = "???"
	}
	switch mode {
	case DisplayName:
		if h.Name != "" {
			host = h.Name
		}
	case DisplayBoth:
		name := h.Name
		if name == "" {
			name = host
		}
		host = fmt.Sprintf("%s (%s)", name, host)
	}

	plen := len(host)
	if plen >= hostColumnSize {
		plen = hostColumnSize - 1
	}
	return host + strings.Repeat(" ", hostColumnSize-plen)
}

// formatSummary renders the closing lines of a trace.
func formatSummary(s Summary) string {
	var b strings.Builder
	if s.State == StateTooManyHops {
		fmt.Fprintf(&b, "     Too many hops: pmtu %d\n", s.PMTU)
	}
	fmt.Fprintf(&b, "     Resume: pmtu %d ", s.PMTU)
	if s.HopsTo >= 0 {
		fmt.Fprintf(&b, "hops %d ", s.HopsTo)
	}
	if s.HopsFrom >= 0 {
		fmt.Fprintf(&b, "back %d ", s.HopsFrom)
	}
	b.WriteString("\n")
	return b.String()
}
