package reactor

// Token identifies a slot in one of the reactor's slabs: listeners,
// connections, or timers. The three slabs use disjoint ranges, so the
// range a value falls in tells which kind of slot it names (see
// registry.go for the range layout). A Token is stable for the
// lifetime of its slot.
type Token uint32

// PollEvents is the bit-set of readiness conditions a Poller backend
// reports for a registered fd, and the interest mask a Context declares.
type PollEvents uint8

const (
	// Readable indicates the fd has data available to read, or (for a
	// listener) a connection waiting to be accepted.
	Readable PollEvents = 1 << iota
	// Writable indicates the fd can accept a write without blocking.
	Writable
	// Hangup indicates the peer closed its end, or an error occurred.
	// Registrations always include Hangup in addition to the Context's
	// declared interest; see Design Notes in SPEC_FULL.md.
	Hangup
)

func (e PollEvents) has(bit PollEvents) bool { return e&bit != 0 }

// EventType is the sum of dispatches a Context may receive from the
// reactor. Connect is intentionally absent: the first readiness on a
// Pending connection creates the Context, and its first observable
// event is Readable (or Writable).
type EventType struct {
	kind    eventKind
	payload []byte // only meaningful for Notify
	timerID Token  // only meaningful for Timeout
}

type eventKind uint8

const (
	eventReadable eventKind = iota
	eventWritable
	eventDisconnect
	eventNotify
	eventTimeout
)

// Readable/Writable/Disconnect are the zero-argument event constructors.
var (
	EventReadable   = EventType{kind: eventReadable}
	EventWritable   = EventType{kind: eventWritable}
	EventDisconnect = EventType{kind: eventDisconnect}
)

// EventNotify constructs a Notify dispatch carrying payload.
func EventNotify(payload []byte) EventType { return EventType{kind: eventNotify, payload: payload} }

// EventTimeout constructs a Timeout dispatch carrying the firing timer's Token.
func EventTimeout(id Token) EventType { return EventType{kind: eventTimeout, timerID: id} }

// Kind reports which variant this EventType is.
func (e EventType) Kind() string {
	switch e.kind {
	case eventReadable:
		return "Readable"
	case eventWritable:
		return "Writable"
	case eventDisconnect:
		return "Disconnect"
	case eventNotify:
		return "Notify"
	case eventTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// IsReadable, IsWritable, IsDisconnect report the EventType's variant.
func (e EventType) IsReadable() bool   { return e.kind == eventReadable }
func (e EventType) IsWritable() bool   { return e.kind == eventWritable }
func (e EventType) IsDisconnect() bool { return e.kind == eventDisconnect }

// Notify returns the payload and true if this is a Notify dispatch.
func (e EventType) Notify() ([]byte, bool) {
	if e.kind != eventNotify {
		return nil, false
	}
	return e.payload, true
}

// Timeout returns the firing Timer Token and true if this is a Timeout dispatch.
func (e EventType) Timeout() (Token, bool) {
	if e.kind != eventTimeout {
		return 0, false
	}
	return e.timerID, true
}
