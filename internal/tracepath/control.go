// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/telekom/tracepath/internal/logger"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"
)

// minExtendedErrSize is the size of struct sock_extended_err as defined in
// the Linux kernel documentation: https://man7.org/linux/man-pages/man7/ip.7.html
const minExtendedErrSize = 16

// Sizes of the offender socket addresses following the extended error.
const (
	sockaddrInet4Size = 16
	sockaddrInet6Size = 28
)

// controlKind is a control message type the decoder knows about.
type controlKind int

const (
	controlUnknown controlKind = iota
	controlExtendedErr
	controlHopLimit
)

// classifyControl maps a (level, type) pair to a known control message kind.
func classifyControl(h unix.Cmsghdr) controlKind {
	switch h.Level {
	case unix.SOL_IP:
		switch h.Type {
		case unix.IP_RECVERR:
			return controlExtendedErr
		case unix.IP_TTL:
			return controlHopLimit
		}
	case unix.SOL_IPV6:
		switch h.Type {
		case unix.IPV6_RECVERR:
			return controlExtendedErr
		case unix.IPV6_HOPLIMIT, unix.IPV6_2292HOPLIMIT:
			return controlHopLimit
		}
	}
	return controlUnknown
}

// extendedErr is a decoded sock_extended_err plus the offender address the
// kernel appends for ICMP originated errors.
type extendedErr struct {
	unix.SockExtendedErr
	offender net.IP
}

// local reports whether the error was raised by the local stack.
func (e *extendedErr) local() bool {
	return e.Origin == unix.SO_EE_ORIGIN_LOCAL
}

// icmp reports whether the error was carried by an ICMP or ICMPv6 message.
func (e *extendedErr) icmp() bool {
	return e.Origin == unix.SO_EE_ORIGIN_ICMP || e.Origin == unix.SO_EE_ORIGIN_ICMP6
}

// timeExceeded reports whether the error is a hop limit expiry in transit.
func (e *extendedErr) timeExceeded() bool {
	switch e.Origin {
	case unix.SO_EE_ORIGIN_ICMP:
		return e.Type == uint8(ipv4.ICMPTypeTimeExceeded) && e.Code == 0
	case unix.SO_EE_ORIGIN_ICMP6:
		return e.Type == uint8(ipv6.ICMPTypeTimeExceeded) && e.Code == 0
	}
	return false
}

// controlRecords is what the decoder extracted from one error queue entry.
type controlRecords struct {
	// err is nil when no extended error was present.
	err *extendedErr
	// hopLimit is the responder's remaining hop limit, -1 if absent.
	hopLimit int
}

// parseControl walks the control messages of an error queue entry. Unknown
// or malformed records are logged and skipped.
func parseControl(ctx context.Context, oob []byte) controlRecords {
	log := logger.FromContext(ctx)
	recs := controlRecords{hopLimit: -1}

	cms, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		log.DebugContext(ctx, "Failed to parse control messages", "error", err)
		return recs
	}

	for _, cm := range cms {
		switch classifyControl(cm.Header) {
		case controlExtendedErr:
			ee, err := newExtendedErr(cm.Data)
			if err != nil {
				log.DebugContext(ctx, "Skipping malformed extended error", "error", err)
				continue
			}
			recs.err = ee
		case controlHopLimit:
			hl, err := decodeHopLimit(cm.Header, cm.Data)
			if err != nil {
				log.DebugContext(ctx, "Skipping malformed hop limit", "error", err)
				continue
			}
			recs.hopLimit = hl
		default:
			log.DebugContext(ctx, "Ignoring unrecognized control message",
				"level", cm.Header.Level,
				"type", cm.Header.Type,
			)
		}
	}
	return recs
}

// newExtendedErr decodes a sock_extended_err and the offender address following it.
func newExtendedErr(data []byte) (*extendedErr, error) {
	if len(data) < minExtendedErrSize {
		return nil, fmt.Errorf("extended error too short: %d bytes", len(data))
	}

	ee := &extendedErr{
		SockExtendedErr: unix.SockExtendedErr{
			Errno:  binary.NativeEndian.Uint32(data[0:4]),
			Origin: data[4],
			Type:   data[5],
			Code:   data[6],
			Info:   binary.NativeEndian.Uint32(data[8:12]),
			Data:   binary.NativeEndian.Uint32(data[12:16]),
		},
	}
	ee.offender = offenderIP(data[minExtendedErrSize:])
	return ee, nil
}

// offenderIP decodes the sockaddr_in or sockaddr_in6 that follows the
// extended error, or returns nil if none is present.
func offenderIP(sa []byte) net.IP {
	if len(sa) < 2 {
		return nil
	}
	switch binary.NativeEndian.Uint16(sa[0:2]) {
	case unix.AF_INET:
		if len(sa) < sockaddrInet4Size {
			return nil
		}
		return net.IP(append([]byte(nil), sa[4:8]...))
	case unix.AF_INET6:
		if len(sa) < sockaddrInet6Size {
			return nil
		}
		return net.IP(append([]byte(nil), sa[8:24]...))
	}
	return nil
}

// decodeHopLimit reads the hop limit of an IP_TTL or IPV6_HOPLIMIT record.
func decodeHopLimit(h unix.Cmsghdr, data []byte) (int, error) {
	if h.Level == unix.SOL_IP {
		if len(data) < 1 {
			return 0, fmt.Errorf("ttl record too short: %d bytes", len(data))
		}
		return int(data[0]), nil
	}
	if len(data) < 4 {
		return 0, fmt.Errorf("hop limit record too short: %d bytes", len(data))
	}
	return int(int32(binary.NativeEndian.Uint32(data[0:4]))), nil // #nosec G115
}

// normalizeHopLimit turns a received hop limit into the responder's distance,
// guessing its initial hop limit from the usual defaults of 64, 128 and 255.
func normalizeHopLimit(v int) int {
	switch {
	case v <= 64:
		return 65 - v
	case v <= 128:
		return 129 - v
	default:
		return 256 - v
	}
}
