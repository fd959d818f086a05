// Command evpollstress hammers a single software event source from many
// producer goroutines while one consumer waits on a Poll, reporting how many
// notifications were coalesced into how many events.
//
// Usage:
//
//	evpollstress --producers 64 --iterations 10000 --metrics-addr :9100
//
// Every flag may also be set from the environment, e.g.
// EVPOLLSTRESS_PRODUCERS=128.
package main

import (
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	undo, err := maxprocs.Set()
	defer undo()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to set GOMAXPROCS:", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
