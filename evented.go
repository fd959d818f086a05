package evpoll

// Evented is implemented by anything that can be registered with a [Poll].
//
// Implementations normally delegate to the corresponding [Poll] method of a
// source they wrap ([EventedFd], a descriptor owning socket) or, like
// [Registration], maintain their own readiness.
type Evented interface {
	// Register associates the source with p, delivering events carrying
	// token whenever it becomes ready for something in interest.
	Register(p *Poll, token Token, interest Ready, opts PollOpt) error

	// Reregister replaces the token and interest of a registered source.
	Reregister(p *Poll, token Token, interest Ready, opts PollOpt) error

	// Deregister removes the source from p. No events for it are delivered
	// by waits starting afterwards.
	Deregister(p *Poll) error
}
