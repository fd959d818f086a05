//go:build linux || darwin

package mux

import (
	"slices"

	"golang.org/x/sys/unix"
)

// readFD reads from a wake descriptor, retrying EINTR.
func readFD(fd int, buf []byte) (int, error) {
	for {
		n, err := unix.Read(fd, buf)
		if err != unix.EINTR {
			return n, err
		}
	}
}

// writeFD writes to a wake descriptor, retrying EINTR.
func writeFD(fd int, buf []byte) (int, error) {
	for {
		n, err := unix.Write(fd, buf)
		if err != unix.EINTR {
			return n, err
		}
	}
}

// closeFDs closes every fd, reporting the first failure. Duplicates (a wake
// descriptor that is both ends) are closed once.
func closeFDs(fds ...int) error {
	var err error
	for i, fd := range fds {
		if fd < 0 || slices.Contains(fds[:i], fd) {
			continue
		}
		if cerr := unix.Close(fd); err == nil {
			err = cerr
		}
	}
	return err
}
