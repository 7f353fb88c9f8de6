// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import (
	"encoding/binary"
	"net"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// queuedErr is an entry the fake kernel places on the error queue.
type queuedErr struct {
	port    int
	payload []byte
	oob     []byte
}

// sentProbe records a datagram handed to the fake socket.
type sentProbe struct {
	ttl  int
	port int
	size int
}

// fakeConn is a scripted [conn]. respond is consulted for every send and
// returns the entries to enqueue plus a synchronous send error.
type fakeConn struct {
	mu      sync.Mutex
	ttl     int
	queue   []queuedErr
	sent    []sentProbe
	reply   []byte
	closed  bool
	respond func(p sentProbe, payload []byte) ([]queuedErr, error)
}

var _ conn = (*fakeConn)(nil)

func (f *fakeConn) setHopLimit(ttl int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttl = ttl
	return nil
}

func (f *fakeConn) send(b []byte, port int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := sentProbe{ttl: f.ttl, port: port, size: len(b)}
	f.sent = append(f.sent, p)
	if f.respond == nil {
		return nil
	}
	entries, err := f.respond(p, append([]byte(nil), b...))
	f.queue = append(f.queue, entries...)
	return err
}

func (f *fakeConn) wait(time.Duration) error { return nil }

func (f *fakeConn) recv(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reply == nil {
		return 0, unix.EAGAIN
	}
	n := copy(b, f.reply)
	f.reply = nil
	return n, nil
}

func (f *fakeConn) recvErr(b, oob []byte) (socketMsg, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return socketMsg{}, unix.EAGAIN
	}
	e := f.queue[0]
	f.queue = f.queue[1:]
	n := copy(b, e.payload)
	oobn := copy(oob, e.oob)
	return socketMsg{n: n, port: e.port, oob: oob[:oobn]}, nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) probes() []sentProbe {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentProbe(nil), f.sent...)
}

// cmsg builds a single control message.
func cmsg(level, typ int32, data []byte) []byte {
	b := make([]byte, unix.CmsgSpace(len(data)))
	h := (*unix.Cmsghdr)(unsafe.Pointer(&b[0]))
	h.Level = level
	h.Type = typ
	h.SetLen(unix.CmsgLen(len(data)))
	copy(b[unix.CmsgLen(0):], data)
	return b
}

// extErrV4 builds an IP_RECVERR control message with an IPv4 offender.
func extErrV4(errno unix.Errno, origin, typ, code uint8, info uint32, offender net.IP) []byte {
	data := make([]byte, minExtendedErrSize+sockaddrInet4Size)
	binary.NativeEndian.PutUint32(data[0:4], uint32(errno))
	data[4] = origin
	data[5] = typ
	data[6] = code
	binary.NativeEndian.PutUint32(data[8:12], info)
	if ip4 := offender.To4(); ip4 != nil {
		binary.NativeEndian.PutUint16(data[16:18], unix.AF_INET)
		copy(data[20:24], ip4)
	}
	return cmsg(unix.SOL_IP, unix.IP_RECVERR, data)
}

// extErrV6 builds an IPV6_RECVERR control message with an IPv6 offender.
func extErrV6(errno unix.Errno, origin, typ, code uint8, info uint32, offender net.IP) []byte {
	data := make([]byte, minExtendedErrSize+sockaddrInet6Size)
	binary.NativeEndian.PutUint32(data[0:4], uint32(errno))
	data[4] = origin
	data[5] = typ
	data[6] = code
	binary.NativeEndian.PutUint32(data[8:12], info)
	binary.NativeEndian.PutUint16(data[16:18], unix.AF_INET6)
	copy(data[24:40], offender.To16())
	return cmsg(unix.SOL_IPV6, unix.IPV6_RECVERR, data)
}

// ttlRecord builds an IP_TTL control message.
func ttlRecord(v int) []byte {
	data := make([]byte, 4)
	binary.NativeEndian.PutUint32(data, uint32(v))
	return cmsg(unix.SOL_IP, unix.IP_TTL, data)
}

// hopLimitRecord builds an IPV6_HOPLIMIT control message.
func hopLimitRecord(v int) []byte {
	data := make([]byte, 4)
	binary.NativeEndian.PutUint32(data, uint32(v))
	return cmsg(unix.SOL_IPV6, unix.IPV6_HOPLIMIT, data)
}

func joinOOB(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

// timeExceeded is the notification of a router dropping a probe at ttl.
func timeExceeded(port int, router net.IP, hopLimit int) queuedErr {
	oob := extErrV4(unix.EHOSTUNREACH, unix.SO_EE_ORIGIN_ICMP, 11, 0, 0, router)
	if hopLimit >= 0 {
		oob = joinOOB(oob, ttlRecord(hopLimit))
	}
	return queuedErr{port: port, oob: oob}
}

// portUnreachable is the notification of the destination refusing the probe.
func portUnreachable(port int, dst net.IP, hopLimit int) queuedErr {
	oob := extErrV4(unix.ECONNREFUSED, unix.SO_EE_ORIGIN_ICMP, 3, 3, 0, dst)
	if hopLimit >= 0 {
		oob = joinOOB(oob, ttlRecord(hopLimit))
	}
	return queuedErr{port: port, oob: oob}
}

// fakeClock advances by step on every call.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), step: step}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}
