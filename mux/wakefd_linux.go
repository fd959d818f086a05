//go:build linux

package mux

import (
	"golang.org/x/sys/unix"
)

// createWakeFd creates an eventfd for wake-up notifications (Linux).
// Returns the single eventfd as both read and write ends.
func createWakeFd() (int, int, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	return fd, fd, err
}
