package reactor

import "net"

// Evented exposes the pollable resource a Context wraps. The reactor
// never dials or accepts on behalf of a Context beyond what ReactorCtrl
// already did — it only borrows Fd() for register/reregister/deregister.
type Evented interface {
	// Fd returns the underlying file descriptor. It must remain stable
	// and open for the lifetime of the Context's registration.
	Fd() int
}

// Context is the user-implemented, polymorphic per-socket handler. It
// owns the wrapped socket exclusively; the reactor only borrows its
// Evented view for poller (re)registration. See SPEC_FULL.md §6.
type Context interface {
	// Evented exposes the pollable resource.
	Evented() Evented
	// Interest reports the current interest mask. Re-read on every
	// re-registration (after Readable/Writable/Notify/Timeout), so a
	// Context may change its interest between dispatches.
	Interest() PollEvents
	// OnEvent consumes one dispatch. ctrl is valid only for the
	// duration of the call.
	OnEvent(ctrl *ReactorCtrl, ev EventType)
}

// ConnKind distinguishes how a connection came to exist, for metrics
// and logging only — it carries no dispatch-contract weight.
type ConnKind uint8

const (
	ConnKindAccepted ConnKind = iota
	ConnKindOutbound
)

// ConnResult is passed to a ConnectHandler or AcceptHandler.
type ConnResult struct {
	// Socket is the underlying net.Conn-like resource; callers type-assert
	// or wrap it to build a Context. Nil when Err is set.
	Socket Evented
	Token  Token
	Peer   net.Addr
	Kind   ConnKind
	// Err is set exactly for the asynchronous-connect-failure path
	// (spec.md §7 category (c)); never set on the accept path.
	Err error
}

// Connected reports whether this ConnResult represents a live socket.
func (r ConnResult) Connected() bool { return r.Err == nil }

// ConnectHandler completes an outbound connect (spec.md §4.4 `connect`)
// or accepts a new inbound socket (§4.5 accept path). Returning a
// non-nil error rejects the connection: the slot is removed (its Token
// released) and the socket is closed. Returning (nil, nil) also drops
// the slot without logging an error, mirroring Option::None in the
// source design.
type ConnectHandler func(result ConnResult, ctrl *ReactorCtrl) (Context, error)

// AcceptHandler has the same shape as ConnectHandler; ConnResult.Err is
// never set on the accept path — a failed accept is logged and the
// listener keeps listening (spec.md §6).
type AcceptHandler = ConnectHandler

// TimerHandler is invoked for a standalone timer (one not bound to a
// Connection Token).
type TimerHandler func(tok Token, ctrl *ReactorCtrl)

// connSlot is the tagged variant backing a Connection slab entry.
type connSlot struct {
	state connState
	// pending holds fields valid only in connStatePending.
	pendingSocket  Evented
	pendingHandler ConnectHandler
	// ctx holds the field valid only in connStateConnected.
	ctx Context
}

type connState uint8

const (
	connStateVacant connState = iota
	connStatePending
	connStateConnected
)

func vacantConn() connSlot { return connSlot{state: connStateVacant} }

func pendingConn(socket Evented, h ConnectHandler) connSlot {
	return connSlot{state: connStatePending, pendingSocket: socket, pendingHandler: h}
}

func connectedConn(ctx Context) connSlot {
	return connSlot{state: connStateConnected, ctx: ctx}
}

// listenerSlot is the tuple backing a Listener slab entry.
type listenerSlot struct {
	vacant  bool
	socket  Evented
	accept  AcceptHandler
	onClose func() error
}

// timerSlot is the tuple backing a Timer slab entry. Exactly one of
// connTok/standalone is set, per spec.md §4.5's "Other shapes are fatal".
type timerSlot struct {
	connTok    Token
	hasConnTok bool
	standalone TimerHandler
}
