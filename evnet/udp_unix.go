//go:build linux || darwin

package evnet

import (
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/joeycumines/go-evpoll"
)

// UDPSocket is a non-blocking UDP socket.
type UDPSocket struct {
	socket
	domain int
}

var _ evpoll.Evented = (*UDPSocket)(nil)

// BindUDP creates a socket bound to addr, resolved per [net.ResolveUDPAddr].
func BindUDP(network, addr string) (*UDPSocket, error) {
	laddr, err := net.ResolveUDPAddr(network, addr)
	if err != nil {
		return nil, err
	}
	domain := family(network, laddr.IP)
	sa, err := toSockaddr(domain, laddr.IP, laddr.Port, laddr.Zone)
	if err != nil {
		return nil, err
	}
	fd, err := newSocket(domain, unix.SOCK_DGRAM)
	if err != nil {
		return nil, err
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("bind", err)
	}
	return &UDPSocket{socket: socket{fd: fd}, domain: domain}, nil
}

func (x *UDPSocket) sockaddr(addr *net.UDPAddr) (unix.Sockaddr, error) {
	return toSockaddr(x.domain, addr.IP, addr.Port, addr.Zone)
}

// SendTo sends a datagram to addr.
func (x *UDPSocket) SendTo(b []byte, addr *net.UDPAddr) (int, error) {
	sa, err := x.sockaddr(addr)
	if err != nil {
		return 0, err
	}
	err = x.do(func(fd int) error {
		_, err := retry(func() (struct{}, error) { return struct{}{}, unix.Sendto(fd, b, 0, sa) })
		return os.NewSyscallError("sendto", err)
	})
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// RecvFrom receives a datagram, truncated to len(b), and its source.
func (x *UDPSocket) RecvFrom(b []byte) (n int, addr *net.UDPAddr, err error) {
	err = x.do(func(fd int) error {
		var sa unix.Sockaddr
		n, err = retry(func() (int, error) {
			n, from, err := unix.Recvfrom(fd, b, 0)
			sa = from
			return n, err
		})
		if err != nil {
			n = 0
			return os.NewSyscallError("recvfrom", err)
		}
		addr = udpAddr(sa)
		return nil
	})
	return
}

// Connect sets the default destination, and filters received datagrams to
// those from addr.
func (x *UDPSocket) Connect(addr *net.UDPAddr) error {
	sa, err := x.sockaddr(addr)
	if err != nil {
		return err
	}
	return x.do(func(fd int) error {
		_, err := retry(func() (struct{}, error) { return struct{}{}, unix.Connect(fd, sa) })
		return os.NewSyscallError("connect", err)
	})
}

// Send sends a datagram to the connected address.
func (x *UDPSocket) Send(b []byte) (n int, err error) {
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

// Recv receives a datagram from the connected address.
func (x *UDPSocket) Recv(b []byte) (n int, err error) {
	err = x.do(func(fd int) (err error) {
		n, err = retry(func() (int, error) { return unix.Read(fd, b) })
		if err != nil {
			n = 0
			return os.NewSyscallError("read", err)
		}
		return nil
	})
	return
}

// LocalAddr returns the bound address.
func (x *UDPSocket) LocalAddr() (*net.UDPAddr, error) {
	sa, err := x.localSockaddr()
	if err != nil {
		return nil, err
	}
	return udpAddr(sa), nil
}

// SetBroadcast sets SO_BROADCAST.
func (x *UDPSocket) SetBroadcast(v bool) error {
	return x.setBool(unix.SOL_SOCKET, unix.SO_BROADCAST, v)
}

// Broadcast reports SO_BROADCAST.
func (x *UDPSocket) Broadcast() (bool, error) {
	return x.getBool(unix.SOL_SOCKET, unix.SO_BROADCAST)
}

// SetTTL sets the unicast hop limit.
func (x *UDPSocket) SetTTL(ttl int) error {
	level, opt := x.ttlOpt()
	return x.setInt(level, opt, ttl)
}

// TTL returns the unicast hop limit.
func (x *UDPSocket) TTL() (int, error) {
	level, opt := x.ttlOpt()
	return x.getInt(level, opt)
}

func (x *UDPSocket) ttlOpt() (level, opt int) {
	if x.domain == unix.AF_INET6 {
		return unix.IPPROTO_IPV6, unix.IPV6_UNICAST_HOPS
	}
	return unix.IPPROTO_IP, unix.IP_TTL
}

// TakeError returns and clears the pending socket error.
func (x *UDPSocket) TakeError() error { return x.takeError() }
