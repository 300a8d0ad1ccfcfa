//go:build darwin

package reactor

import (
	"sync"

	"golang.org/x/sys/unix"
)

// kqueuePoller adapts the teacher's FastPoller (poller_darwin.go in the
// eventloop package) to the narrower Poller interface, reporting
// (fd's Token, PollEvents) rather than invoking an inline callback.
type kqueuePoller struct {
	kq       int
	mu       sync.Mutex
	tokens   map[int]Token
	interest map[int]PollEvents
	eventBuf []unix.Kevent_t
	closed   bool
}

func newPoller() (Poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)
	return &kqueuePoller{
		kq:       kq,
		tokens:   make(map[int]Token),
		interest: make(map[int]PollEvents),
		eventBuf: make([]unix.Kevent_t, 256),
	}, nil
}

func (p *kqueuePoller) changeList(fd int, from, to PollEvents) []unix.Kevent_t {
	var changes []unix.Kevent_t
	addOrDel := func(filter int16, want bool) {
		flags := unix.EV_ADD | unix.EV_CLEAR
		if !want {
			flags = unix.EV_DELETE
		}
		changes = append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: filter,
			Flags:  uint16(flags),
		})
	}
	if to.has(Readable) != from.has(Readable) {
		addOrDel(unix.EVFILT_READ, to.has(Readable))
	}
	if to.has(Writable) != from.has(Writable) {
		addOrDel(unix.EVFILT_WRITE, to.has(Writable))
	}
	return changes
}

func (p *kqueuePoller) Add(fd int, tok Token, interest PollEvents) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPollerClosed
	}
	changes := p.changeList(fd, 0, interest)
	if len(changes) > 0 {
		if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
			return err
		}
	}
	p.tokens[fd] = tok
	p.interest[fd] = interest
	return nil
}

func (p *kqueuePoller) Modify(fd int, tok Token, interest PollEvents) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPollerClosed
	}
	prev, ok := p.interest[fd]
	if !ok {
		return ErrFDNotRegistered
	}
	changes := p.changeList(fd, prev, interest)
	if len(changes) > 0 {
		if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
			return err
		}
	}
	p.tokens[fd] = tok
	p.interest[fd] = interest
	return nil
}

func (p *kqueuePoller) Remove(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev, ok := p.interest[fd]
	if !ok {
		return ErrFDNotRegistered
	}
	changes := p.changeList(fd, prev, 0)
	delete(p.tokens, fd)
	delete(p.interest, fd)
	if len(changes) > 0 {
		_, err := unix.Kevent(p.kq, changes, nil, nil)
		return err
	}
	return nil
}

func (p *kqueuePoller) Wait(timeoutMs int, out []ReadyEvent) (int, error) {
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		t := unix.NsecToTimespec(int64(timeoutMs) * int64(1e6))
		ts = &t
	}
	n, err := unix.Kevent(p.kq, nil, p.eventBuf, ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	p.mu.Lock()
	for i := 0; i < n && count < len(out); i++ {
		fd := int(p.eventBuf[i].Ident)
		tok, ok := p.tokens[fd]
		if !ok {
			continue
		}
		var events PollEvents
		switch p.eventBuf[i].Filter {
		case unix.EVFILT_READ:
			events |= Readable
		case unix.EVFILT_WRITE:
			events |= Writable
		}
		if p.eventBuf[i].Flags&unix.EV_EOF != 0 {
			events |= Hangup
		}
		out[count] = ReadyEvent{Token: tok, Events: events}
		count++
	}
	p.mu.Unlock()
	return count, nil
}

func (p *kqueuePoller) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return unix.Close(p.kq)
}
