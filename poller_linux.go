//go:build linux

package reactor

import (
	"sync"

	"golang.org/x/sys/unix"
)

// epollPoller adapts the teacher's FastPoller (poller_linux.go in the
// eventloop package) to the narrower Poller interface: instead of an
// inline per-fd callback, it reports (fd's Token, PollEvents) pairs
// back to the caller, since dispatch ownership belongs to
// ReactorHandler, not the poller.
type epollPoller struct {
	epfd     int
	mu       sync.Mutex
	tokens   map[int]Token // fd -> registered Token
	eventBuf []unix.EpollEvent
	closed   bool
}

func newPoller() (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{
		epfd:     epfd,
		tokens:   make(map[int]Token),
		eventBuf: make([]unix.EpollEvent, 256),
	}, nil
}

func (p *epollPoller) Add(fd int, tok Token, interest PollEvents) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPollerClosed
	}
	ev := &unix.EpollEvent{Events: eventsToEpoll(interest), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		return err
	}
	p.tokens[fd] = tok
	return nil
}

func (p *epollPoller) Modify(fd int, tok Token, interest PollEvents) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPollerClosed
	}
	if _, ok := p.tokens[fd]; !ok {
		return ErrFDNotRegistered
	}
	ev := &unix.EpollEvent{Events: eventsToEpoll(interest), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev); err != nil {
		return err
	}
	p.tokens[fd] = tok
	return nil
}

func (p *epollPoller) Remove(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.tokens[fd]; !ok {
		return ErrFDNotRegistered
	}
	delete(p.tokens, fd)
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) Wait(timeoutMs int, out []ReadyEvent) (int, error) {
	n, err := unix.EpollWait(p.epfd, p.eventBuf, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	p.mu.Lock()
	for i := 0; i < n && count < len(out); i++ {
		fd := int(p.eventBuf[i].Fd)
		tok, ok := p.tokens[fd]
		if !ok {
			continue
		}
		out[count] = ReadyEvent{Token: tok, Events: epollToEvents(p.eventBuf[i].Events)}
		count++
	}
	p.mu.Unlock()
	return count, nil
}

func (p *epollPoller) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return unix.Close(p.epfd)
}

func eventsToEpoll(events PollEvents) uint32 {
	var e uint32
	if events.has(Readable) {
		e |= unix.EPOLLIN
	}
	if events.has(Writable) {
		e |= unix.EPOLLOUT
	}
	// EPOLLHUP/EPOLLERR are always reported; a peer closing its end
	// (EPOLLRDHUP) is reported only when requested.
	if events.has(Hangup) {
		e |= unix.EPOLLRDHUP
	}
	// Registrations are edge-triggered, like the kqueue backend's EV_CLEAR.
	e |= unix.EPOLLET
	return e
}

func epollToEvents(e uint32) PollEvents {
	var events PollEvents
	if e&unix.EPOLLIN != 0 {
		events |= Readable
	}
	if e&unix.EPOLLOUT != 0 {
		events |= Writable
	}
	if e&(unix.EPOLLHUP|unix.EPOLLERR|unix.EPOLLRDHUP) != 0 {
		events |= Hangup
	}
	return events
}
