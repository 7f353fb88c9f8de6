// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/telekom/tracepath/internal/helper"
	"github.com/telekom/tracepath/internal/logger"
)

// nameResolver performs reverse lookups of responding routers.
// An empty string means the name is unknown.
type nameResolver interface {
	lookup(ctx context.Context, ip net.IP) string
}

var (
	_ nameResolver = noopResolver{}
	_ nameResolver = (*systemResolver)(nil)
	_ nameResolver = (*dnsResolver)(nil)
)

// newNameResolver returns the resolver matching the display options.
func newNameResolver(opts *Options) nameResolver {
	switch {
	case opts.Display == DisplayNumeric:
		return noopResolver{}
	case opts.DNSServer != "":
		return newDNSResolver(opts.DNSServer, opts.Timeout)
	default:
		return &systemResolver{lookupAddr: net.DefaultResolver.LookupAddr}
	}
}

// noopResolver never resolves anything.
type noopResolver struct{}

func (noopResolver) lookup(context.Context, net.IP) string { return "" }

// systemResolver uses the resolver configured on the host.
type systemResolver struct {
	lookupAddr func(ctx context.Context, addr string) ([]string, error)
}

func (r *systemResolver) lookup(ctx context.Context, ip net.IP) string {
	if ip == nil {
		return ""
	}
	names, err := r.lookupAddr(ctx, ip.String())
	if err != nil || len(names) == 0 {
		logger.FromContext(ctx).DebugContext(ctx, "Reverse lookup failed", "ip", ip, "error", err)
		return ""
	}
	return strings.TrimSuffix(names[0], ".")
}

// dnsResolver queries PTR records from a fixed DNS server.
type dnsResolver struct {
	server string
	client *dns.Client

	mu    sync.Mutex
	cache map[string]string
}

func newDNSResolver(server string, timeout time.Duration) *dnsResolver {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &dnsResolver{
		server: server,
		client: &dns.Client{Net: "udp", Timeout: timeout},
		cache:  map[string]string{},
	}
}

func (r *dnsResolver) lookup(ctx context.Context, ip net.IP) string {
	if ip == nil {
		return ""
	}
	log := logger.FromContext(ctx)
	key := ip.String()

	r.mu.Lock()
	name, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return name
	}

	arpa, err := dns.ReverseAddr(key)
	if err != nil {
		log.DebugContext(ctx, "Cannot build reverse name", "ip", key, "error", err)
		return ""
	}
	msg := new(dns.Msg)
	msg.SetQuestion(arpa, dns.TypePTR)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		log.DebugContext(ctx, "PTR query failed", "ip", key, "server", r.server, "error", err)
		return ""
	}
	if resp.Rcode == dns.RcodeSuccess {
		for _, rr := range resp.Answer {
			if ptr, ok := rr.(*dns.PTR); ok {
				name = strings.TrimSuffix(ptr.Ptr, ".")
				break
			}
		}
	}

	r.mu.Lock()
	r.cache[key] = name
	r.mu.Unlock()
	return name
}

// lookupFunc resolves a host name to its addresses.
type lookupFunc func(ctx context.Context, network, host string) ([]netip.Addr, error)

// resolveDestination turns the target address into the address probed.
// Literal addresses are used as given, names are looked up with retries.
func resolveDestination(ctx context.Context, lookup lookupFunc, host string, opts *Options) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		if !familyMatches(addr, opts.Family) {
			return netip.Addr{}, fmt.Errorf("%w: %s is not %s", ErrNoAddress, host, opts.Family)
		}
		return addr, nil
	}

	var addrs []netip.Addr
	err := helper.Retry(func(ctx context.Context) error {
		var err error
		addrs, err = lookup(ctx, opts.Family.network(), host)
		return err
	}, opts.Retry)(ctx)
	if err != nil {
		return netip.Addr{}, err
	}

	for _, addr := range addrs {
		addr = addr.Unmap()
		if familyMatches(addr, opts.Family) {
			return addr, nil
		}
	}
	return netip.Addr{}, fmt.Errorf("%w: %s", ErrNoAddress, host)
}

func familyMatches(addr netip.Addr, f Family) bool {
	switch f {
	case FamilyIPv4:
		return addr.Unmap().Is4()
	case FamilyIPv6:
		return addr.Is6() && !addr.Is4In6()
	default:
		return true
	}
}
