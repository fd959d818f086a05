//go:build linux

package evnet

import (
	"golang.org/x/sys/unix"
)

const sockFlags = unix.SOCK_NONBLOCK | unix.SOCK_CLOEXEC

// sysSocket creates a non-blocking, close-on-exec socket.
func sysSocket(domain, typ int) (int, error) {
	return unix.Socket(domain, typ|sockFlags, 0)
}

// sysAccept accepts a connection as a non-blocking, close-on-exec socket.
func sysAccept(fd int) (int, unix.Sockaddr, error) {
	return unix.Accept4(fd, sockFlags)
}
