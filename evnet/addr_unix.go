//go:build linux || darwin

package evnet

import (
	"errors"
	"net"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

var errAddressFamily = errors.New("evnet: unsupported address family")

// family picks the socket domain for ip, preferring IPv4 for unspecified
// addresses unless network demands IPv6.
func family(network string, ip net.IP) int {
	switch network {
	case "tcp4", "udp4":
		return unix.AF_INET
	case "tcp6", "udp6":
		return unix.AF_INET6
	}
	if ip == nil || ip.To4() != nil {
		return unix.AF_INET
	}
	return unix.AF_INET6
}

func toSockaddr(domain int, ip net.IP, port int, zone string) (unix.Sockaddr, error) {
	switch domain {
	case unix.AF_INET:
		sa := &unix.SockaddrInet4{Port: port}
		if ip != nil {
			ip4 := ip.To4()
			if ip4 == nil {
				return nil, errAddressFamily
			}
			copy(sa.Addr[:], ip4)
		}
		return sa, nil
	case unix.AF_INET6:
		sa := &unix.SockaddrInet6{Port: port, ZoneId: zoneIndex(zone)}
		if ip != nil {
			copy(sa.Addr[:], ip.To16())
		}
		return sa, nil
	default:
		return nil, errAddressFamily
	}
}

func zoneIndex(zone string) uint32 {
	if zone == "" {
		return 0
	}
	if ifi, err := net.InterfaceByName(zone); err == nil {
		return uint32(ifi.Index)
	}
	n, _ := strconv.Atoi(zone)
	return uint32(n)
}

func zoneName(index uint32) string {
	if index == 0 {
		return ""
	}
	if ifi, err := net.InterfaceByIndex(int(index)); err == nil {
		return ifi.Name
	}
	return strconv.Itoa(int(index))
}

func fromSockaddr(sa unix.Sockaddr) (ip net.IP, port int, zone string) {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return net.IPv4(sa.Addr[0], sa.Addr[1], sa.Addr[2], sa.Addr[3]), sa.Port, ""
	case *unix.SockaddrInet6:
		ip = make(net.IP, net.IPv6len)
		copy(ip, sa.Addr[:])
		return ip, sa.Port, zoneName(sa.ZoneId)
	}
	return nil, 0, ""
}

func tcpAddr(sa unix.Sockaddr) *net.TCPAddr {
	if sa == nil {
		return nil
	}
	ip, port, zone := fromSockaddr(sa)
	return &net.TCPAddr{IP: ip, Port: port, Zone: zone}
}

func udpAddr(sa unix.Sockaddr) *net.UDPAddr {
	if sa == nil {
		return nil
	}
	ip, port, zone := fromSockaddr(sa)
	return &net.UDPAddr{IP: ip, Port: port, Zone: zone}
}

// newSocket creates a non-blocking, close-on-exec socket.
func newSocket(domain, typ int) (int, error) {
	fd, err := sysSocket(domain, typ)
	if err != nil {
		return -1, os.NewSyscallError("socket", err)
	}
	return fd, nil
}
