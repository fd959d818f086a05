// Package evpoll is a readiness based, edge-triggered I/O event notification
// core.
//
// A [Poll] waits for registered [Evented] sources to become ready, returning
// a batch of [Event] values, each carrying the caller-assigned [Token] of its
// source and its [Ready] flags. Sources are OS descriptors ([EventedFd], the
// sockets of package evnet) or software sources ([Registration]), whose
// readiness is asserted by application code through the paired
// [SetReadiness].
//
// All registrations are edge-triggered: an event is delivered once per
// readiness transition, and a consumer is expected to drain the source
// (until it would block) before waiting again.
//
// Example:
//
//	p, err := evpoll.New()
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	reg, set := evpoll.NewRegistration()
//	if err := p.Register(reg, 1, evpoll.Readable, evpoll.Edge); err != nil {
//		return err
//	}
//	go set.SetReadiness(evpoll.Readable)
//
//	events := evpoll.NewEvents(64)
//	if _, err := p.Poll(events, evpoll.NoTimeout); err != nil {
//		return err
//	}
//	for ev := range events.All() {
//		fmt.Println(ev.Token(), ev.Readiness())
//	}
//
// The multiplexer itself lives in package mux, which may also be used
// directly, see [AsSource].
package evpoll
