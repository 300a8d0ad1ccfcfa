// Poller is the narrow readiness-polling collaborator the reactor
// depends on but does not specify the OS-level mechanics of (see
// SPEC_FULL.md §1/§4.7): epoll on Linux, kqueue on Darwin. Both
// backends are plain readiness reporters — all slab lookup, vacate-
// and-restore, and user-handler dispatch happens in handler.go, not
// here, so a Poller backend stays a thin, swappable collaborator.
package reactor

import "errors"

var (
	ErrFDOutOfRange    = errors.New("reactor: fd out of range")
	ErrPollerClosed    = errors.New("reactor: poller closed")
	ErrFDNotRegistered = errors.New("reactor: fd not registered with poller")
)

// ReadyEvent is one readiness report from Wait: the registered Token
// and the PollEvents bit-set observed for it.
type ReadyEvent struct {
	Token  Token
	Events PollEvents
}

// Poller abstracts the OS readiness mechanism. Implementations are in
// poller_linux.go (epoll) and poller_darwin.go (kqueue).
type Poller interface {
	// Add registers fd under tok with the given interest.
	Add(fd int, tok Token, interest PollEvents) error
	// Modify updates fd's interest mask. fd must already be registered.
	Modify(fd int, tok Token, interest PollEvents) error
	// Remove deregisters fd.
	Remove(fd int) error
	// Wait blocks up to timeoutMs (0 = return immediately, <0 = block
	// indefinitely) and writes ready events into out starting at index
	// 0, returning the number written.
	Wait(timeoutMs int, out []ReadyEvent) (int, error)
	// Close releases the underlying OS resource.
	Close() error
}
