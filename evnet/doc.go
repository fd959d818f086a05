// Package evnet provides thin, non-blocking TCP and UDP sockets that can be
// registered with an [evpoll.Poll].
//
// The sockets are pass-through wrappers over raw descriptors: every method
// maps to a single system call, and would-block conditions are returned as
// errors (see [IsWouldBlock]) rather than parking the goroutine. Wait for
// readiness with the Poll, then read or write until the call would block.
package evnet
