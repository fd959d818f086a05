package mux

// Registry registers descriptors with a [Poller]. It is safe for concurrent
// use, including concurrently with a blocked Poll.
type Registry struct {
	sel *selector
}

// Register adds fd with the given token and interest. Registration is always
// edge-triggered.
func (r *Registry) Register(fd int, token Token, interest Interest) error {
	if err := r.check(fd, interest); err != nil {
		return err
	}
	return r.sel.register(fd, token, interest)
}

// Reregister replaces the token and interest of an already registered fd.
func (r *Registry) Reregister(fd int, token Token, interest Interest) error {
	if err := r.check(fd, interest); err != nil {
		return err
	}
	return r.sel.reregister(fd, token, interest)
}

// Deregister removes fd. Events already dequeued by an in-flight wait may
// still be delivered.
func (r *Registry) Deregister(fd int) error {
	if r == nil || r.sel == nil {
		return ErrClosed
	}
	if fd < 0 {
		return ErrBadFd
	}
	return r.sel.deregister(fd)
}

func (r *Registry) check(fd int, interest Interest) error {
	if r == nil || r.sel == nil {
		return ErrClosed
	}
	if fd < 0 {
		return ErrBadFd
	}
	if !interest.valid() {
		return ErrEmptyInterest
	}
	return nil
}
