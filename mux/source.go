package mux

// Source is anything that can register itself with a [Registry]. It lets an
// enclosing reactor drive sources that were written against a higher level
// API, see evpoll.AsSource.
type Source interface {
	Register(r *Registry, token Token, interest Interest) error
	Reregister(r *Registry, token Token, interest Interest) error
	Deregister(r *Registry) error
}

// SourceFd adapts a raw descriptor to [Source]. The caller keeps ownership of
// the descriptor.
type SourceFd int

var _ Source = SourceFd(0)

func (fd SourceFd) Register(r *Registry, token Token, interest Interest) error {
	return r.Register(int(fd), token, interest)
}

func (fd SourceFd) Reregister(r *Registry, token Token, interest Interest) error {
	return r.Reregister(int(fd), token, interest)
}

func (fd SourceFd) Deregister(r *Registry) error {
	return r.Deregister(int(fd))
}
