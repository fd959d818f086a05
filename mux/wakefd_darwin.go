//go:build darwin

package mux

import (
	"golang.org/x/sys/unix"
)

// createWakeFd creates a non-blocking self-pipe, returning its read and
// write ends.
func createWakeFd() (rfd, wfd int, err error) {
	var fds [2]int
	if err = unix.Pipe(fds[:]); err != nil {
		return -1, -1, err
	}
	for _, fd := range fds {
		unix.CloseOnExec(fd)
		if err = unix.SetNonblock(fd, true); err != nil {
			_ = closeFDs(fds[:]...)
			return -1, -1, err
		}
	}
	return fds[0], fds[1], nil
}
