// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import (
	"encoding/binary"
	"time"
)

// wireProbeLen is the size of the probe header at the start of every datagram:
// a 32-bit hop count, 4 bytes of padding and a seconds/microseconds timestamp
// of 64 bits each.
const wireProbeLen = 24

// wireProbe is the payload header of an outbound datagram. It is written in
// host byte order since only this host ever reads it back.
type wireProbe struct {
	hops uint32
	sec  int64
	usec int64
}

func newWireProbe(hops int, sent time.Time) wireProbe {
	return wireProbe{
		hops: uint32(hops), // #nosec G115 // hop counts are bounded by MaxHopsLimit
		sec:  sent.Unix(),
		usec: int64(sent.Nanosecond() / int(time.Microsecond)),
	}
}

// sentAt returns the embedded send timestamp.
func (p wireProbe) sentAt() time.Time {
	return time.Unix(p.sec, p.usec*int64(time.Microsecond))
}

// broken reports whether a router mangled the payload it echoed back.
func (p wireProbe) broken() bool {
	return p.hops == 0 || p.sec == 0
}

// encode writes the header to the start of b. Payloads shorter than the
// header get a truncated header.
func (p wireProbe) encode(b []byte) {
	var hdr [wireProbeLen]byte
	binary.NativeEndian.PutUint32(hdr[0:4], p.hops)
	binary.NativeEndian.PutUint64(hdr[8:16], uint64(p.sec))   // #nosec G115
	binary.NativeEndian.PutUint64(hdr[16:24], uint64(p.usec)) // #nosec G115
	copy(b, hdr[:])
}

// decodeWireProbe parses an echoed payload. Only payloads of exactly the
// header size are accepted.
func decodeWireProbe(b []byte) (wireProbe, bool) {
	if len(b) != wireProbeLen {
		return wireProbe{}, false
	}
	return wireProbe{
		hops: binary.NativeEndian.Uint32(b[0:4]),
		sec:  int64(binary.NativeEndian.Uint64(b[8:16])),  // #nosec G115
		usec: int64(binary.NativeEndian.Uint64(b[16:24])), // #nosec G115
	}, true
}
