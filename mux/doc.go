// Package mux is the readiness multiplexer underneath evpoll.
//
// It wraps the platform-native mechanism:
//   - Linux: epoll
//   - Darwin: kqueue
//
// Every registration is edge-triggered. A [Poller] owns the OS handle and
// performs the blocking wait; its [Registry] performs (re|de)registration and
// may be shared with any number of sources, including an enclosing reactor.
//
// # Safety
//
// Always call [Registry.Deregister] before closing a file descriptor, to
// prevent stale event delivery due to fd recycling.
package mux
