//go:build linux || darwin

package evnet

import (
	"errors"
	"io"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/joeycumines/go-evpoll"
)

const (
	tokenListener evpoll.Token = iota
	tokenServer
	tokenClient
)

// testPoll accumulates events per token, so that waiting for one token
// does not lose the edges of another.
type testPoll struct {
	*evpoll.Poll
	seen map[evpoll.Token]evpoll.Ready
}

func newTestPoll(t *testing.T) *testPoll {
	t.Helper()
	p, err := evpoll.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return &testPoll{Poll: p, seen: make(map[evpoll.Token]evpoll.Ready)}
}

// waitFor polls until an event for token has arrived, consuming it.
func waitFor(t *testing.T, p *testPoll, token evpoll.Token) evpoll.Ready {
	t.Helper()
	events := evpoll.NewEvents(8)
	deadline := time.Now().Add(5 * time.Second)
	for {
		if r, ok := p.seen[token]; ok {
			delete(p.seen, token)
			return r
		}
		if !time.Now().Before(deadline) {
			t.Fatalf("no event for %s", token)
		}
		_, err := p.Poll.Poll(events, time.Second)
		require.NoError(t, err)
		for ev := range events.All() {
			p.seen[ev.Token()] |= ev.Readiness()
		}
	}
}

func wouldBlockErr() error { return os.NewSyscallError("read", unix.EAGAIN) }

func TestIsWouldBlock(t *testing.T) {
	assert.False(t, IsWouldBlock(nil))
	assert.False(t, IsWouldBlock(io.EOF))
	assert.True(t, IsWouldBlock(errors.Join(io.EOF, errors.New("x"), wouldBlockErr())))
}

func TestTCP_AcceptReadWrite(t *testing.T) {
	p := newTestPoll(t)

	ln, err := ListenTCP("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	require.NoError(t, p.Register(ln, tokenListener, evpoll.Readable, evpoll.Edge))

	_, _, err = ln.Accept()
	assert.True(t, IsWouldBlock(err), "%v", err)

	addr, err := ln.LocalAddr()
	require.NoError(t, err)
	assert.NotZero(t, addr.Port)
	assert.True(t, addr.IP.Equal(net.IPv4(127, 0, 0, 1)))

	client, err := ConnectTCP(addr)
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, p.Register(client, tokenClient, evpoll.Readable|evpoll.Writable, evpoll.Edge))

	assert.True(t, waitFor(t, p, tokenListener).IsReadable())
	server, peer, err := ln.Accept()
	require.NoError(t, err)
	defer server.Close()
	require.NoError(t, p.Register(server, tokenServer, evpoll.Readable, evpoll.Edge))

	assert.True(t, waitFor(t, p, tokenClient).IsWritable())
	require.NoError(t, client.TakeError())
	clientLocal, err := client.LocalAddr()
	require.NoError(t, err)
	assert.Equal(t, clientLocal.Port, peer.Port)
	clientPeer, err := client.PeerAddr()
	require.NoError(t, err)
	assert.Equal(t, addr.Port, clientPeer.Port)

	require.NoError(t, client.SetNoDelay(true))
	noDelay, err := client.NoDelay()
	require.NoError(t, err)
	assert.True(t, noDelay)

	n, err := client.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	assert.True(t, waitFor(t, p, tokenServer).IsReadable())
	buf := make([]byte, 16)
	n, err = server.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	// drained
	_, err = server.Read(buf)
	assert.True(t, IsWouldBlock(err), "%v", err)

	require.NoError(t, client.Shutdown(ShutdownWrite))
	assert.True(t, waitFor(t, p, tokenServer).IsReadable())
	_, err = server.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestTCP_Closed(t *testing.T) {
	p := newTestPoll(t)
	ln, err := ListenTCP("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	assert.ErrorIs(t, ln.Close(), net.ErrClosed)
	_, _, err = ln.Accept()
	assert.ErrorIs(t, err, net.ErrClosed)
	assert.ErrorIs(t, p.Register(ln, 1, evpoll.Readable, evpoll.Edge), net.ErrClosed)
}

func TestUDP_SendRecv(t *testing.T) {
	p := newTestPoll(t)

	a, err := BindUDP("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer a.Close()
	b, err := BindUDP("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, p.Register(b, tokenServer, evpoll.Readable, evpoll.Edge))

	aAddr, err := a.LocalAddr()
	require.NoError(t, err)
	bAddr, err := b.LocalAddr()
	require.NoError(t, err)

	_, _, err = b.RecvFrom(make([]byte, 1))
	assert.True(t, IsWouldBlock(err), "%v", err)

	n, err := a.SendTo([]byte("ping"), bAddr)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.True(t, waitFor(t, p, tokenServer).IsReadable())
	buf := make([]byte, 16)
	n, from, err := b.RecvFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))
	assert.Equal(t, aAddr.Port, from.Port)

	require.NoError(t, b.Connect(aAddr))
	require.NoError(t, a.Connect(bAddr))
	_, err = a.Send([]byte("pong"))
	require.NoError(t, err)
	assert.True(t, waitFor(t, p, tokenServer).IsReadable())
	n, err = b.Recv(buf)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(buf[:n]))
}

func TestUDP_Options(t *testing.T) {
	s, err := BindUDP("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SetBroadcast(true))
	v, err := s.Broadcast()
	require.NoError(t, err)
	assert.True(t, v)

	require.NoError(t, s.SetTTL(42))
	ttl, err := s.TTL()
	require.NoError(t, err)
	assert.Equal(t, 42, ttl)

	assert.NoError(t, s.TakeError())
}

func requireNonblockCloexec(t *testing.T, fd int) {
	t.Helper()
	fdFlags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	require.NoError(t, err)
	assert.NotZero(t, fdFlags&unix.FD_CLOEXEC, "fd %d not close-on-exec", fd)
	flFlags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	require.NoError(t, err)
	assert.NotZero(t, flFlags&unix.O_NONBLOCK, "fd %d blocking", fd)
}

func TestTCP_SocketFlags(t *testing.T) {
	p := newTestPoll(t)

	ln, err := ListenTCP("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	require.NoError(t, p.Register(ln, tokenListener, evpoll.Readable, evpoll.Edge))
	requireNonblockCloexec(t, ln.fd)

	addr, err := ln.LocalAddr()
	require.NoError(t, err)
	client, err := ConnectTCP(addr)
	require.NoError(t, err)
	defer client.Close()
	requireNonblockCloexec(t, client.fd)

	assert.True(t, waitFor(t, p, tokenListener).IsReadable())
	server, _, err := ln.Accept()
	require.NoError(t, err)
	defer server.Close()
	requireNonblockCloexec(t, server.fd)

	sock, err := BindUDP("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer sock.Close()
	requireNonblockCloexec(t, sock.fd)
}
