// Package reactor provides a single-threaded, event-driven TCP
// reactor: non-blocking connect/accept, readiness and timer dispatch
// to user-supplied handlers, and dense token-based identity
// allocation for every registered socket, listener, and timer.
//
// # Architecture
//
// A [Reactor] owns three [Slab]-backed registries (listeners,
// connections, timers), a [Poller] (epoll on Linux, kqueue on
// Darwin), a timerWheel bounding how long the poller blocks, and a
// [NotifyChannel] — the single cross-thread surface. Every dispatch
// into user code (accept, readable, writable, notify, timeout) is
// handed a fresh [ReactorCtrl], the only legal path for a handler to
// mutate reactor state; see the Design Notes below.
//
// # Dispatch contract
//
// Before invoking any user callback bound to a slot, the owning slab
// entry is replaced with its Vacant variant; the callback runs against
// a [ReactorCtrl] over the now-unaliased registry, and the slot is
// restored afterward unless the callback removed it. This
// vacate-and-restore protocol is what lets a handler re-enter the
// reactor — register a new connection, arm a timer, deregister
// another connection — without the reactor ever holding two live
// references to the same Context. A handler cannot deregister its own
// Token: its slot is Vacant while it runs.
//
// # Platform support
//
// I/O readiness is implemented with epoll on linux and kqueue on
// darwin; see poller_linux.go and poller_darwin.go. Both report
// (Token, PollEvents) pairs to the caller rather than invoking an
// inline callback, keeping all dispatch ownership in reactor.go and
// handler.go.
//
// # Thread safety
//
// A Reactor instance runs its dispatch loop on exactly one goroutine.
// [Reactor.Shutdown] and [NotifyChannel.Send] are the only operations
// safe to call from any other goroutine; every other method (Listen,
// Connect, Register, Deregister, Timeout, TimeoutConn) must be called
// either before Run starts or from within a dispatch callback on the
// reactor's own goroutine.
//
// # Usage
//
//	r, err := reactor.New(reactor.WithMaxConnections(1024))
//	if err != nil {
//		log.Fatal(err)
//	}
//	_, err = r.Listen("127.0.0.1:9000", func(res reactor.ConnResult, ctrl *reactor.ReactorCtrl) (reactor.Context, error) {
//		return newEchoContext(res.Socket), nil
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := r.Run(); err != nil {
//		log.Fatal(err)
//	}
package reactor
