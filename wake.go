package reactor

// wakePipe is the platform-agnostic handle New registers with the
// Poller as an always-armed readable Token, used solely to interrupt a blocked
// Wait() when NotifyChannel.Send is called from another goroutine.
// The platform-specific halves (newWakeFD/wakeFDSignal/wakeFDDrain)
// live in wakeup_linux.go and wakeup_darwin.go.
type wakePipe struct {
	readFD  int
	writeFD int
}

func newWakePipe() (*wakePipe, error) {
	r, w, err := newWakeFD()
	if err != nil {
		return nil, err
	}
	return &wakePipe{readFD: r, writeFD: w}, nil
}

// Arm signals the wake fd so a blocked poller Wait returns. Safe to
// call from any goroutine.
func (w *wakePipe) Arm() error {
	return wakeFDSignal(w.writeFD)
}

// Drain consumes the pending wake signal(s). Called only from the
// reactor thread after Wait reports the wake fd readable.
func (w *wakePipe) Drain() {
	wakeFDDrain(w.readFD)
}

func (w *wakePipe) Close() {
	closeWakeFDs(w.readFD, w.writeFD)
}
