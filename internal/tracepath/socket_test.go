// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestFamilyParams(t *testing.T) {
	tests := []struct {
		name         string
		dst          string
		wantOverhead int
		wantMTU      int
	}{
		{name: "ipv4", dst: "192.0.2.1", wantOverhead: 28, wantMTU: 65535},
		{name: "ipv6", dst: "2001:db8::1", wantOverhead: 48, wantMTU: 128000},
		{name: "ipv4 mapped", dst: "::ffff:192.0.2.1", wantOverhead: 28, wantMTU: 65535},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overhead, mtu := familyParams(netip.MustParseAddr(tt.dst))
			assert.Equal(t, tt.wantOverhead, overhead)
			assert.Equal(t, tt.wantMTU, mtu)
		})
	}
}

func TestRecvErrQueue(t *testing.T) {
	orig := unixRecvmsg
	t.Cleanup(func() { unixRecvmsg = orig })

	t.Run("entry", func(t *testing.T) {
		unixRecvmsg = func(fd int, p, oob []byte, flags int) (int, int, int, unix.Sockaddr, error) {
			assert.Equal(t, unix.MSG_ERRQUEUE|unix.MSG_DONTWAIT, flags)
			copy(oob, []byte{1, 2, 3})
			return 24, 3, 0, &unix.SockaddrInet4{Port: 44450}, nil
		}
		msg, err := recvErrQueue(3, make([]byte, wireProbeLen), make([]byte, oobBufSize))
		require.NoError(t, err)
		assert.Equal(t, 24, msg.n)
		assert.Equal(t, 44450, msg.port)
		assert.Equal(t, []byte{1, 2, 3}, msg.oob)
	})

	t.Run("empty queue", func(t *testing.T) {
		unixRecvmsg = func(int, []byte, []byte, int) (int, int, int, unix.Sockaddr, error) {
			return 0, 0, 0, nil, unix.EAGAIN
		}
		_, err := recvErrQueue(3, nil, nil)
		assert.ErrorIs(t, err, unix.EAGAIN)
	})
}

func TestPortFromSockaddr(t *testing.T) {
	assert.Equal(t, 80, portFromSockaddr(&unix.SockaddrInet4{Port: 80}))
	assert.Equal(t, 443, portFromSockaddr(&unix.SockaddrInet6{Port: 443}))
	assert.Equal(t, -1, portFromSockaddr(&unix.SockaddrUnix{Name: "/tmp/x"}))
	assert.Equal(t, -1, portFromSockaddr(nil))
}
