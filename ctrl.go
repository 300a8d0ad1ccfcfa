package reactor

import (
	"fmt"
	"time"
)

// ReactorCtrl is the transient façade constructed at the start of
// every dispatch frame (accept, on_read, on_write, notify, timer). It
// is the only legal way a user callback mutates reactor state —
// see SPEC_FULL.md §9 (vacate-and-restore) and spec.md §4.4.
//
// Each dispatch frame builds a fresh ReactorCtrl; it is valid only for
// the duration of the callback it was passed to and must not be
// retained past it.
type ReactorCtrl struct {
	r *Reactor
}

// Connect resolves host:port, creates a non-blocking connecting
// socket, reserves a Connection Token in the Pending state, and
// registers it with the poller for writable readiness. handler is
// invoked once the connect completes or fails: on the first writable
// readiness (handler.go's onWritePath), or on a hangup/error report
// that arrives first (handler.go's onReadPath).
func (c *ReactorCtrl) Connect(host string, port int, handler ConnectHandler) (Token, error) {
	if handler == nil {
		return 0, fmt.Errorf("reactor: connect handler must not be nil")
	}
	// inProgress (EINPROGRESS) vs. a synchronous connect is not branched
	// on: either way completion is driven by the first writable
	// readiness through the normal on_write path in handler.go.
	sock, _, err := dialNonblocking(host, port)
	if err != nil {
		return 0, err
	}
	tok, err := c.r.reg.conns.Insert(pendingConn(sock, handler))
	if err != nil {
		_ = sock.Close()
		return 0, err
	}
	if err := c.r.poller.Add(sock.fd, tok, Writable); err != nil {
		_, _ = c.r.reg.conns.Remove(tok)
		_ = sock.Close()
		return 0, err
	}
	return tok, nil
}

// Listen binds addr, reserves a Listener Token, and registers it for
// readable readiness.
func (c *ReactorCtrl) Listen(addr string, handler AcceptHandler) (Token, error) {
	if handler == nil {
		return 0, fmt.Errorf("reactor: accept handler must not be nil")
	}
	sock, err := createListener(addr)
	if err != nil {
		return 0, err
	}
	tok, err := c.r.reg.listeners.Insert(listenerSlot{socket: sock, accept: handler})
	if err != nil {
		_ = sock.Close()
		return 0, err
	}
	if err := c.r.poller.Add(sock.fd, tok, Readable); err != nil {
		_, _ = c.r.reg.listeners.Remove(tok)
		_ = sock.Close()
		return 0, err
	}
	return tok, nil
}

// Timeout allocates a standalone timer slot, fired with handler after
// ms milliseconds.
func (c *ReactorCtrl) Timeout(ms int, handler TimerHandler) (Token, error) {
	if handler == nil {
		return 0, fmt.Errorf("reactor: timer handler must not be nil")
	}
	tok, err := c.r.reg.timers.Insert(timerSlot{standalone: handler})
	if err != nil {
		return 0, err
	}
	c.r.timers.Schedule(tok, time.Now().Add(time.Duration(ms)*time.Millisecond))
	return tok, nil
}

// TimeoutConn allocates a timer slot bound to connTok: when it fires,
// an EventType.Timeout dispatch is delivered to connTok's Context
// (silently dropped if connTok is no longer Connected).
func (c *ReactorCtrl) TimeoutConn(ms int, connTok Token) (Token, error) {
	if !c.r.reg.conns.InRange(connTok) {
		return 0, ErrTokenNotFound
	}
	tok, err := c.r.reg.timers.Insert(timerSlot{connTok: connTok, hasConnTok: true})
	if err != nil {
		return 0, err
	}
	c.r.timers.Schedule(tok, time.Now().Add(time.Duration(ms)*time.Millisecond))
	return tok, nil
}

// CancelTimeout cancels a previously scheduled timer, whether
// standalone or connection-bound. Firing after cancellation is a
// no-op.
func (c *ReactorCtrl) CancelTimeout(tok Token) error {
	if _, ok := c.r.reg.timers.Get(tok); !ok {
		return ErrTokenNotFound
	}
	_, _ = c.r.reg.timers.Remove(tok)
	c.r.timers.Cancel(tok)
	return nil
}

// Register inserts a Connected slot for ctx and registers its
// Evented with the poller at ctx.Interest()|Hangup.
func (c *ReactorCtrl) Register(ctx Context) (Token, error) {
	if ctx == nil {
		return 0, fmt.Errorf("reactor: context must not be nil")
	}
	tok, err := c.r.reg.conns.Insert(connectedConn(ctx))
	if err != nil {
		return 0, err
	}
	if err := c.r.poller.Add(ctx.Evented().Fd(), tok, ctx.Interest()|Hangup); err != nil {
		_, _ = c.r.reg.conns.Remove(tok)
		return 0, err
	}
	return tok, nil
}

// Deregister removes tok's Connection slot, deregisters it from the
// poller, and returns the owned Context. It is an error to call this
// on a Pending connection (no Context yet exists) or an absent Token.
// Callers must not deregister the Token of the currently-dispatching
// frame — the slot is Vacant during dispatch and this call would
// return ErrTokenNotFound, masking the contract violation rather than
// detecting it; see spec.md §4.4.
func (c *ReactorCtrl) Deregister(tok Token) (Context, error) {
	slot, ok := c.r.reg.conns.Get(tok)
	if !ok {
		return nil, ErrTokenNotFound
	}
	if slot.state == connStatePending {
		return nil, ErrDeregisterPending
	}
	if slot.state != connStateConnected {
		return nil, ErrTokenNotFound
	}
	fd := slot.ctx.Evented().Fd()
	_, _ = c.r.reg.conns.Remove(tok)
	_ = c.r.poller.Remove(fd)
	return slot.ctx, nil
}

// Channel returns the handle external goroutines use to push
// (Token, payload) notifications.
func (c *ReactorCtrl) Channel() *NotifyChannel {
	return c.r.notify
}

// Shutdown requests the run loop stop at the next tick boundary. Safe
// to call multiple times.
func (c *ReactorCtrl) Shutdown() {
	c.r.state.TryTransition(stateRunning, stateTerminating)
}
