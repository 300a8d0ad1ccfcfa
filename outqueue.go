package reactor

// Sink is a non-blocking byte sink: a short write is not an error, a
// write returning (0, nil) means "not writable right now", and any
// other error aborts the current drain. net.Conn over a non-blocking
// fd satisfies this when wrapped to translate EAGAIN into (0, nil).
type Sink interface {
	Write(p []byte) (n int, err error)
}

// OutQueue is a per-Context FIFO of partially-written byte buffers. It
// implements spec.md §4.3: Write attempts an immediate best-effort
// write when empty, and Drain flushes the queue head-first on
// subsequent writable readiness.
type OutQueue struct {
	bufs []([]byte)
	off  int // byte offset already written within bufs[0]
}

// Empty reports whether the queue holds no unwritten bytes.
func (q *OutQueue) Empty() bool { return len(q.bufs) == 0 }

// Pending returns the number of unwritten bytes currently queued.
func (q *OutQueue) Pending() int {
	if len(q.bufs) == 0 {
		return 0
	}
	n := len(q.bufs[0]) - q.off
	for _, b := range q.bufs[1:] {
		n += len(b)
	}
	return n
}

// Write attempts an immediate write of buf when the queue is empty. If
// the whole buffer is accepted, it returns true and nothing is queued.
// Otherwise the unwritten remainder is enqueued and false is returned —
// the caller must then include Writable in its interest mask so Drain
// is invoked on the next writable readiness.
func (q *OutQueue) Write(buf []byte, sink Sink) (bool, error) {
	if len(buf) == 0 {
		return true, nil
	}
	if !q.Empty() {
		q.bufs = append(q.bufs, buf)
		return false, nil
	}
	n, err := sink.Write(buf)
	if err != nil {
		return false, err
	}
	if n >= len(buf) {
		return true, nil
	}
	q.bufs = append(q.bufs, buf)
	q.off = n
	return false, nil
}

// Drain tries to flush the queue head-first into sink. It returns true
// iff the queue is empty when Drain returns. A zero-byte write with no
// error is treated as "not writable" and stops the drain without error;
// any other write error aborts the drain and is returned to the caller,
// who is expected to log it — per spec.md §4.3, I/O errors here do not
// by themselves remove the Context.
func (q *OutQueue) Drain(sink Sink) (bool, error) {
	for len(q.bufs) > 0 {
		head := q.bufs[0][q.off:]
		n, err := sink.Write(head)
		if err != nil {
			return false, err
		}
		if n == 0 {
			return false, nil
		}
		if n < len(head) {
			q.off += n
			return false, nil
		}
		q.bufs = q.bufs[1:]
		q.off = 0
	}
	return true, nil
}
