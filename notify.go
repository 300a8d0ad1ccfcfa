package reactor

// notifyMsg is one entry of the cross-thread notify queue: a target
// Connection Token and an opaque payload.
type notifyMsg struct {
	tok     Token
	payload []byte
}

// NotifyChannel is the reactor's single cross-thread surface (spec.md
// §5): external goroutines push (Token, payload) pairs that the
// reactor thread drains once per tick and dispatches as
// EventType Notify. Capacity is fixed at construction; Send beyond
// capacity is rejected rather than blocking the producer.
//
// Grounded on the teacher's external-submission queue (Loop.Submit),
// simplified to a buffered channel: the reactor is a single consumer
// that drains fully every tick, so a lock-free ring buffer (as the
// teacher uses for same-goroutine microtasks) buys nothing here.
type NotifyChannel struct {
	ch   chan notifyMsg
	wake *wakePipe
}

func newNotifyChannel(capacity int, wake *wakePipe) *NotifyChannel {
	return &NotifyChannel{ch: make(chan notifyMsg, capacity), wake: wake}
}

// Send enqueues (tok, payload) for delivery as a Notify event on the
// reactor's next tick. It never blocks: if the channel is at capacity,
// it returns ErrChannelFull immediately. Safe to call from any
// goroutine, including ones the reactor itself never runs on.
func (n *NotifyChannel) Send(tok Token, payload []byte) error {
	select {
	case n.ch <- notifyMsg{tok: tok, payload: payload}:
		if n.wake != nil {
			n.wake.Arm()
		}
		return nil
	default:
		return ErrChannelFull
	}
}

// drain pops every currently queued message without blocking. Called
// only from the reactor thread.
func (n *NotifyChannel) drain() []notifyMsg {
	var out []notifyMsg
	for {
		select {
		case msg := <-n.ch:
			out = append(out, msg)
		default:
			return out
		}
	}
}
