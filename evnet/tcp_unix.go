//go:build linux || darwin

package evnet

import (
	"io"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/joeycumines/go-evpoll"
)

// listenBacklog is passed to listen(2), the OS caps it.
const listenBacklog = 1024

// TCPListener is a non-blocking listening TCP socket. It becomes readable
// when connections are pending.
type TCPListener struct {
	socket
}

var _ evpoll.Evented = (*TCPListener)(nil)

// ListenTCP binds and listens on addr, which is resolved per
// [net.ResolveTCPAddr]. SO_REUSEADDR is set.
func ListenTCP(network, addr string) (*TCPListener, error) {
	laddr, err := net.ResolveTCPAddr(network, addr)
	if err != nil {
		return nil, err
	}
	domain := family(network, laddr.IP)
	sa, err := toSockaddr(domain, laddr.IP, laddr.Port, laddr.Zone)
	if err != nil {
		return nil, err
	}
	fd, err := newSocket(domain, unix.SOCK_STREAM)
	if err != nil {
		return nil, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("setsockopt", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("bind", err)
	}
	if err := unix.Listen(fd, listenBacklog); err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("listen", err)
	}
	return &TCPListener{socket{fd: fd}}, nil
}

// Accept accepts a pending connection, failing with a would-block error
// (see [IsWouldBlock]) if there is none.
func (x *TCPListener) Accept() (*TCPStream, *net.TCPAddr, error) {
	var (
		nfd int
		sa  unix.Sockaddr
	)
	err := x.do(func(fd int) (err error) {
		nfd, err = retry(func() (int, error) {
			n, s, err := sysAccept(fd)
			sa = s
			return n, err
		})
		if err != nil {
			return os.NewSyscallError("accept", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &TCPStream{socket{fd: nfd}}, tcpAddr(sa), nil
}

// LocalAddr returns the bound address.
func (x *TCPListener) LocalAddr() (*net.TCPAddr, error) {
	sa, err := x.localSockaddr()
	if err != nil {
		return nil, err
	}
	return tcpAddr(sa), nil
}

// TakeError returns and clears the pending socket error.
func (x *TCPListener) TakeError() error { return x.takeError() }

// TCPStream is a non-blocking TCP connection.
type TCPStream struct {
	socket
}

var (
	_ evpoll.Evented = (*TCPStream)(nil)
	_ io.ReadWriter  = (*TCPStream)(nil)
)

// ConnectTCP starts a non-blocking connect to addr. The stream becomes
// writable once the connection is established or has failed; check
// [TCPStream.TakeError] to tell which.
func ConnectTCP(addr *net.TCPAddr) (*TCPStream, error) {
	domain := family("tcp", addr.IP)
	sa, err := toSockaddr(domain, addr.IP, addr.Port, addr.Zone)
	if err != nil {
		return nil, err
	}
	fd, err := newSocket(domain, unix.SOCK_STREAM)
	if err != nil {
		return nil, err
	}
	// an interrupted connect carries on asynchronously, like EINPROGRESS
	err = unix.Connect(fd, sa)
	if err != nil && err != unix.EINPROGRESS && err != unix.EINTR {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("connect", err)
	}
	return &TCPStream{socket{fd: fd}}, nil
}

// Read reads available bytes, returning io.EOF once the peer has shut down
// its write half.
func (x *TCPStream) Read(b []byte) (n int, err error) {
	err = x.do(func(fd int) (err error) {
		n, err = retry(func() (int, error) { return unix.Read(fd, b) })
		if err != nil {
			n = 0
			return os.NewSyscallError("read", err)
		}
		if n == 0 && len(b) != 0 {
			return io.EOF
		}
		return nil
	})
	return
}

// Write writes as much of b as the socket buffer accepts.
func (x *TCPStream) Write(b []byte) (n int, err error) {
	err = x.do(func(fd int) (err error) {
		n, err = retry(func() (int, error) { return unix.Write(fd, b) })
		if err != nil {
			n = 0
			return os.NewSyscallError("write", err)
		}
		return nil
	})
	return
}

// LocalAddr returns the local address.
func (x *TCPStream) LocalAddr() (*net.TCPAddr, error) {
	sa, err := x.localSockaddr()
	if err != nil {
		return nil, err
	}
	return tcpAddr(sa), nil
}

// PeerAddr returns the remote address, failing while not connected.
func (x *TCPStream) PeerAddr() (*net.TCPAddr, error) {
	sa, err := x.peerSockaddr()
	if err != nil {
		return nil, err
	}
	return tcpAddr(sa), nil
}

// SetNoDelay sets TCP_NODELAY.
func (x *TCPStream) SetNoDelay(v bool) error {
	return x.setBool(unix.IPPROTO_TCP, unix.TCP_NODELAY, v)
}

// NoDelay reports TCP_NODELAY.
func (x *TCPStream) NoDelay() (bool, error) {
	return x.getBool(unix.IPPROTO_TCP, unix.TCP_NODELAY)
}

// Shutdown shuts down the read half, the write half, or both.
func (x *TCPStream) Shutdown(how ShutdownHow) error {
	return x.do(func(fd int) error {
		return os.NewSyscallError("shutdown", unix.Shutdown(fd, int(how)))
	})
}

// TakeError returns and clears the pending socket error, e.g. the result of
// a non-blocking connect.
func (x *TCPStream) TakeError() error { return x.takeError() }

// ShutdownHow selects the half of a connection to shut down.
type ShutdownHow int

const (
	ShutdownRead  ShutdownHow = unix.SHUT_RD
	ShutdownWrite ShutdownHow = unix.SHUT_WR
	ShutdownBoth  ShutdownHow = unix.SHUT_RDWR
)
