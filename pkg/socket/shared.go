package socket

import (
	"context"
	"sync"
)

// Shared shares one Socket among views.
//
// The socket is connected when the first Handle is acquired,
// and disconnected when the last Handle is released.
type Shared struct {
	s *Socket

	mu   sync.Mutex
	refs int
}

func NewShared(s *Socket) *Shared {
	return &Shared{s: s}
}

// Handle is a reference to a shared socket.
type Handle struct {
	sh   *Shared
	once sync.Once
}

// Acquire takes a reference and connects the socket if it is the first one.
//
// It does not wait for the link. The reference is taken even if ctx is done;
// in that case, it is released and ctx.Err() is returned.
func (sh *Shared) Acquire(ctx context.Context) (*Handle, error) {
	sh.mu.Lock()
	sh.refs += 1
	first := sh.refs == 1
	sh.mu.Unlock()

	h := &Handle{sh: sh}
	if err := ctx.Err(); err != nil {
		h.Release()
		return nil, err
	}
	if first {
		sh.s.Connect()
	}
	return h, nil
}

// Socket returns the shared socket.
func (sh *Shared) Socket() *Socket {
	return sh.s
}

// Refs is the number of handles not released yet.
func (sh *Shared) Refs() int {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.refs
}

func (h *Handle) Socket() *Socket {
	return h.sh.s
}

// Release gives the reference back. Calling it twice is the same as once.
func (h *Handle) Release() {
	h.once.Do(func() {
		sh := h.sh
		sh.mu.Lock()
		sh.refs -= 1
		last := sh.refs == 0
		sh.mu.Unlock()

		if last && sh.s.State() != StateDisconnected {
			sh.s.Disconnect()
		}
	})
}
