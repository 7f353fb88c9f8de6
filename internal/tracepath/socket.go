// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"syscall"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"
)

// Header overhead and default MTU per address family.
const (
	overheadIPv4   = 28
	overheadIPv6   = 48
	defaultMTUIPv4 = 65535
	defaultMTUIPv6 = 128000
)

// oobBufSize is the size of the buffer for control messages of one error queue entry.
const oobBufSize = 512

// conn is the socket the probing engine drives.
type conn interface {
	// setHopLimit applies the hop limit for subsequent probes.
	setHopLimit(ttl int) error
	// send transmits b to the destination on the given port.
	send(b []byte, port int) error
	// wait blocks until the socket has data or a queued error, or the timeout passes.
	wait(timeout time.Duration) error
	// recv reads ordinary data without blocking.
	recv(b []byte) (int, error)
	// recvErr dequeues one error queue entry without blocking.
	// It returns [unix.EAGAIN] when the queue is empty.
	recvErr(b, oob []byte) (socketMsg, error)
	// Close releases the socket.
	Close() error
}

// socketMsg is one entry read from the socket error queue.
type socketMsg struct {
	// n is the length of the echoed original payload.
	n int
	// port is the destination port of the datagram that caused the error.
	port int
	// oob holds the control messages of the entry.
	oob []byte
}

// familyParams returns the header overhead and default MTU for a destination.
// IPv4-mapped IPv6 destinations travel as IPv4.
func familyParams(dst netip.Addr) (overhead, defaultMTU int) {
	if dst.Is4() || dst.Is4In6() {
		return overheadIPv4, defaultMTUIPv4
	}
	return overheadIPv6, defaultMTUIPv6
}

// udpSocket is an unconnected UDP socket with path MTU discovery forced on,
// extended errors and responder hop limits enabled.
type udpSocket struct {
	conn    *net.UDPConn
	rawConn syscall.RawConn
	dst     netip.Addr
	v4      *ipv4.PacketConn
	v6      *ipv6.PacketConn
}

var _ conn = (*udpSocket)(nil)

// openSocket creates the probe socket for dst.
func openSocket(ctx context.Context, dst netip.Addr) (conn, error) {
	network, laddr := "udp4", "0.0.0.0:0"
	if dst.Is6() {
		network, laddr = "udp6", "[::]:0"
	}

	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var opErr error
			if err := c.Control(func(fd uintptr) {
				opErr = setErrQueueOptions(int(fd), dst)
			}); err != nil {
				return err
			}
			return opErr
		},
	}

	pc, err := lc.ListenPacket(ctx, network, laddr)
	if err != nil {
		return nil, fmt.Errorf("failed to open UDP socket: %w", err)
	}
	uc := pc.(*net.UDPConn)

	rc, err := uc.SyscallConn()
	if err != nil {
		_ = uc.Close()
		return nil, fmt.Errorf("failed to get RawConn: %w", err)
	}

	s := &udpSocket{conn: uc, rawConn: rc, dst: dst}
	if dst.Is4() || dst.Is4In6() {
		s.v4 = ipv4.NewPacketConn(uc)
		if err := s.v4.SetControlMessage(ipv4.FlagTTL, true); err != nil {
			_ = uc.Close()
			return nil, fmt.Errorf("failed to enable IP_RECVTTL: %w", err)
		}
	}
	if dst.Is6() {
		s.v6 = ipv6.NewPacketConn(uc)
		if err := s.v6.SetControlMessage(ipv6.FlagHopLimit, true); err != nil {
			_ = uc.Close()
			return nil, fmt.Errorf("failed to enable IPV6_RECVHOPLIMIT: %w", err)
		}
	}
	return s, nil
}

// setErrQueueOptions forces the do-not-fragment path MTU discovery mode and
// enables extended error reporting for the families dst travels over.
func setErrQueueOptions(fd int, dst netip.Addr) error {
	var errs []error
	if dst.Is6() {
		errs = append(errs,
			unix.SetsockoptInt(fd, unix.SOL_IPV6, unix.IPV6_MTU_DISCOVER, unix.IPV6_PMTUDISC_DO),
			unix.SetsockoptInt(fd, unix.SOL_IPV6, unix.IPV6_RECVERR, 1),
		)
	}
	if dst.Is4() || dst.Is4In6() {
		errs = append(errs,
			unix.SetsockoptInt(fd, unix.SOL_IP, unix.IP_MTU_DISCOVER, unix.IP_PMTUDISC_DO),
			unix.SetsockoptInt(fd, unix.SOL_IP, unix.IP_RECVERR, 1),
		)
	}
	return errors.Join(errs...)
}

func (s *udpSocket) setHopLimit(ttl int) error {
	if s.v6 != nil {
		if err := s.v6.SetHopLimit(ttl); err != nil {
			return fmt.Errorf("failed to set IPV6_UNICAST_HOPS: %w", err)
		}
	}
	if s.v4 != nil {
		if err := s.v4.SetTTL(ttl); err != nil {
			return fmt.Errorf("failed to set IP_TTL: %w", err)
		}
	}
	return nil
}

func (s *udpSocket) send(b []byte, port int) error {
	_, err := s.conn.WriteToUDPAddrPort(b, netip.AddrPortFrom(s.dst, uint16(port))) // #nosec G115 // ports are masked to 16 bits
	return err
}

func (s *udpSocket) wait(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var pollErr error
	err := s.rawConn.Control(func(fd uintptr) {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}} // #nosec G115
		for {
			remaining := time.Until(deadline)
			if remaining < 0 {
				remaining = 0
			}
			_, pollErr = unix.Poll(fds, int(remaining.Milliseconds()))
			if !errors.Is(pollErr, unix.EINTR) {
				return
			}
		}
	})
	if err != nil {
		return fmt.Errorf("failed to access raw connection: %w", err)
	}
	return pollErr
}

func (s *udpSocket) recv(b []byte) (int, error) {
	var (
		n    int
		rErr error
	)
	err := s.rawConn.Read(func(fd uintptr) bool {
		n, _, rErr = unix.Recvfrom(int(fd), b, unix.MSG_DONTWAIT)
		return true
	})
	if err != nil {
		return 0, err
	}
	return n, rErr
}

// unixRecvmsg is a wrapper around the [unix.Recvmsg] function.
// It allows us to mock the function in tests.
var unixRecvmsg = unix.Recvmsg

func (s *udpSocket) recvErr(b, oob []byte) (socketMsg, error) {
	var (
		msg  socketMsg
		rErr error
	)
	err := s.rawConn.Read(func(fd uintptr) bool {
		msg, rErr = recvErrQueue(fd, b, oob)
		return true
	})
	if err != nil {
		return socketMsg{}, err
	}
	return msg, rErr
}

// recvErrQueue performs a single non-blocking Recvmsg(..., MSG_ERRQUEUE).
func recvErrQueue(fd uintptr, b, oob []byte) (socketMsg, error) {
	n, oobn, _, from, err := unixRecvmsg(int(fd), b, oob, unix.MSG_ERRQUEUE|unix.MSG_DONTWAIT)
	if err != nil {
		return socketMsg{}, err
	}
	return socketMsg{n: n, port: portFromSockaddr(from), oob: oob[:oobn]}, nil
}

// portFromSockaddr returns the port of an IPv4 or IPv6 socket address, -1 otherwise.
func portFromSockaddr(sa unix.Sockaddr) int {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return a.Port
	case *unix.SockaddrInet6:
		return a.Port
	}
	return -1
}

func (s *udpSocket) Close() error {
	return s.conn.Close()
}
