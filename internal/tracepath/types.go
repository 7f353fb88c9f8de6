// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import (
	"encoding/json"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/telekom/tracepath/internal/helper"
)

const (
	// DefaultBasePort is the first destination port used for probes.
	DefaultBasePort = 44444
	// DefaultMaxHops is the default hop limit budget.
	DefaultMaxHops = 30
	// MaxHopsLimit is the largest accepted hop limit budget.
	MaxHopsLimit = 255
	// DefaultTimeout is how long a single probe waits for socket activity.
	DefaultTimeout = time.Second
)

// Family restricts the address family used to reach the destination.
type Family string

// Family constants for the trace.
const (
	FamilyAny  Family = ""
	FamilyIPv4 Family = "ip4"
	FamilyIPv6 Family = "ip6"
)

// IsValid reports whether f is a known family.
func (f Family) IsValid() bool {
	return slices.Contains([]Family{FamilyAny, FamilyIPv4, FamilyIPv6}, f)
}

// network returns the network name used for name resolution.
func (f Family) network() string {
	if f == FamilyAny {
		return "ip"
	}
	return string(f)
}

// DisplayMode selects how responding routers are printed.
type DisplayMode string

// DisplayMode constants.
const (
	// DisplayName prints the resolved name, falling back to the address.
	DisplayName DisplayMode = "name"
	// DisplayNumeric prints addresses only and never resolves names.
	DisplayNumeric DisplayMode = "numeric"
	// DisplayBoth prints the name followed by the address in parentheses.
	DisplayBoth DisplayMode = "both"
)

// IsValid reports whether m is a known display mode.
func (m DisplayMode) IsValid() bool {
	return slices.Contains([]DisplayMode{DisplayName, DisplayNumeric, DisplayBoth}, m)
}

// Options contains the configuration for a trace.
type Options struct {
	// BasePort is the destination port of the first history slot.
	BasePort int `json:"basePort" yaml:"basePort" mapstructure:"basePort"`
	// MaxHops is the largest hop limit probed.
	MaxHops int `json:"maxHops" yaml:"maxHops" mapstructure:"maxHops"`
	// MTU is the initial MTU estimate. Zero selects the address family default.
	MTU int `json:"mtu" yaml:"mtu" mapstructure:"mtu"`
	// Family restricts the address family of the destination.
	Family Family `json:"family" yaml:"family" mapstructure:"family"`
	// Display selects how hop addresses are rendered and resolved.
	Display DisplayMode `json:"display" yaml:"display" mapstructure:"display"`
	// Timeout is the per probe wait for a notification.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	// Retry configures retries of the destination lookup.
	Retry helper.RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`
	// DNSServer is an optional server used for reverse lookups instead of the system resolver.
	DNSServer string `json:"dnsServer,omitempty" yaml:"dnsServer,omitempty" mapstructure:"dnsServer"`
}

// DefaultOptions returns the options the classic tool runs with.
func DefaultOptions() Options {
	return Options{
		BasePort: DefaultBasePort,
		MaxHops:  DefaultMaxHops,
		Display:  DisplayName,
		Timeout:  DefaultTimeout,
	}
}

// Validate checks the options for values the tracer cannot work with.
func (o *Options) Validate() error {
	if o.BasePort < 1 || o.BasePort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidBasePort, o.BasePort)
	}
	if o.MaxHops < 0 || o.MaxHops > MaxHopsLimit {
		return fmt.Errorf("%w: %d, must be 0 .. %d (inclusive)", ErrInvalidMaxHops, o.MaxHops, MaxHopsLimit)
	}
	if o.MTU < 0 {
		return fmt.Errorf("%w: %d", ErrPacketTooShort, o.MTU)
	}
	if !o.Family.IsValid() {
		return fmt.Errorf("invalid address family: %q", o.Family)
	}
	if !o.Display.IsValid() {
		return fmt.Errorf("invalid display mode: %q", o.Display)
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("invalid probe timeout: %v, must be greater than 0", o.Timeout)
	}
	return o.Retry.Validate()
}

// Target is the destination of a trace.
type Target struct {
	// Address is a host name or IP address.
	Address string `json:"address" yaml:"address" mapstructure:"address"`
	// Port overrides the base port of the options when set.
	Port int `json:"port,omitempty" yaml:"port,omitempty" mapstructure:"port"`
}

// ParseTarget parses a destination argument. The legacy "host/port" form
// sets the target port. An empty port keeps the base port of the options.
func ParseTarget(s string) (Target, error) {
	host, port, ok := strings.Cut(s, "/")
	if !ok || port == "" {
		return Target{Address: host}, nil
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidBasePort, port)
	}
	return Target{Address: host, Port: p}, nil
}

func (t Target) String() string {
	if t.Port != 0 {
		return t.Address + "/" + strconv.Itoa(t.Port)
	}
	return t.Address
}

// Validate checks the target for obvious mistakes.
func (t Target) Validate() error {
	if t.Address == "" {
		return ErrEmptyTarget
	}
	if t.Port < 0 || t.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidBasePort, t.Port)
	}
	return nil
}

// Event classifies a reported hop line.
type Event string

// Event constants.
const (
	// EventHop is a router reporting an expired hop limit.
	EventHop Event = "hop"
	// EventPMTU is a "message too big" notification carrying a new MTU.
	EventPMTU Event = "pmtu"
	// EventReached is the destination refusing the probe port.
	EventReached Event = "reached"
	// EventFailure is a terminal unreachable, refused or protocol error.
	EventFailure Event = "failure"
	// EventNoReply means three probes went unanswered.
	EventNoReply Event = "no-reply"
	// EventSendFailed means every local send attempt failed.
	EventSendFailed Event = "send-failed"
	// EventReply is ordinary data received back on the probe socket.
	EventReply Event = "reply"
	// EventNoInfo is a queued notification without extended error data.
	EventNoInfo Event = "no-info"
)

// Hop is a single reported line of a trace.
type Hop struct {
	// TTL is the hop count the line refers to.
	TTL int `json:"ttl" yaml:"ttl"`
	// Confirmed is set when TTL was recovered from the probe itself.
	Confirmed bool `json:"confirmed" yaml:"confirmed"`
	// Local is set when the notification originated in the local stack.
	Local bool `json:"local,omitempty" yaml:"local,omitempty"`
	// Addr is the responding router.
	Addr HopAddress `json:"addr" yaml:"addr"`
	// Name is the reverse lookup result of Addr, if any.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Latency is the round trip time, valid when Timed is set.
	Latency time.Duration `json:"-" yaml:"latency"`
	// Timed is set when a send timestamp was available for the probe.
	Timed bool `json:"timed" yaml:"timed"`
	// Event classifies the line.
	Event Event `json:"event" yaml:"event"`
	// PMTU is the MTU reported with [EventPMTU].
	PMTU int `json:"pmtu,omitempty" yaml:"pmtu,omitempty"`
	// Asymm is the reverse distance when it disagrees with the forward one.
	Asymm int `json:"asymm,omitempty" yaml:"asymm,omitempty"`
	// Annotation is the short failure marker (!H, !N, !A, !P).
	Annotation string `json:"annotation,omitempty" yaml:"annotation,omitempty"`
	// Error is the system error description of an unclassified failure.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
	// BrokenRouter is set when a router returned a corrupted payload.
	BrokenRouter bool `json:"brokenRouter,omitempty" yaml:"brokenRouter,omitempty"`
}

func (h Hop) MarshalJSON() ([]byte, error) {
	type alias Hop
	return json.Marshal(&struct {
		Latency string `json:"latency,omitempty"`
		alias
	}{
		Latency: h.latencyString(),
		alias:   alias(h),
	})
}

func (h Hop) latencyString() string {
	if !h.Timed {
		return ""
	}
	return h.Latency.String()
}

func (h Hop) String() string {
	return formatHop(h, DisplayNumeric)
}

// HopAddress is the address of a responding router.
type HopAddress struct {
	IP string `json:"ip" yaml:"ip"`
}

func newHopAddress(ip net.IP) HopAddress {
	if ip == nil {
		return HopAddress{}
	}
	return HopAddress{IP: ip.String()}
}

func (a HopAddress) String() string {
	return a.IP
}

// State is the terminal state of a trace.
type State string

// State constants.
const (
	// StateReached means the destination answered.
	StateReached State = "reached"
	// StateAborted means a terminal failure stopped the trace.
	StateAborted State = "aborted"
	// StateTooManyHops means the hop budget was exhausted.
	StateTooManyHops State = "too-many-hops"
)

// Summary is the final record of a trace.
type Summary struct {
	// State is how the trace ended.
	State State `json:"state" yaml:"state"`
	// PMTU is the last MTU estimate.
	PMTU int `json:"pmtu" yaml:"pmtu"`
	// HopsTo is the confirmed forward hop count, -1 if unknown.
	HopsTo int `json:"hopsTo" yaml:"hopsTo"`
	// HopsFrom is the reverse hop count, -1 if unknown.
	HopsFrom int `json:"hopsFrom" yaml:"hopsFrom"`
	// Reason describes the failure of an aborted trace.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Result is the outcome of tracing one target.
type Result struct {
	Target      Target  `json:"target" yaml:"target"`
	Destination string  `json:"destination" yaml:"destination"`
	Hops        []Hop   `json:"hops" yaml:"hops"`
	Summary     Summary `json:"summary" yaml:"summary"`
}
