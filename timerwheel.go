package reactor

import (
	"container/heap"
	"time"
)

// timerEntry is one scheduled firing, grounded on the teacher's
// loop.go timer{when, task}. seq distinguishes a timer slot's current
// schedule from a stale one left in the heap after a reschedule or
// cancellation, since a superseded or cancelled entry is left in the
// heap rather than removed (container/heap has no O(log n)
// arbitrary-element delete without an index map, and the reactor's
// timer volume doesn't warrant one).
type timerEntry struct {
	when time.Time
	tok  Token
	seq  uint64
}

// timerHeap is a min-heap of timerEntry ordered by when, mirroring the
// teacher's timerHeap in loop.go.
type timerHeap []timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].when.Before(h[j].when) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)         { *h = append(*h, x.(timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// timerWheel schedules timer Tokens for future firing and reports
// expired ones back to the caller in deadline order. It owns no
// knowledge of what a Token means to the registry; handler.go's
// dispatchTimer is responsible for validating a Token still names a
// live timerSlot before invoking a handler.
type timerWheel struct {
	heap timerHeap
	seq  map[Token]uint64
	next uint64
}

func newTimerWheel() *timerWheel {
	return &timerWheel{
		heap: make(timerHeap, 0),
		seq:  make(map[Token]uint64),
	}
}

// Schedule arms tok to fire at deadline, superseding any previous
// schedule for the same Token.
func (w *timerWheel) Schedule(tok Token, deadline time.Time) {
	w.next++
	w.seq[tok] = w.next
	heap.Push(&w.heap, timerEntry{when: deadline, tok: tok, seq: w.next})
}

// Cancel removes tok's current schedule. The stale heap entry (if any)
// is discarded lazily by Expired.
func (w *timerWheel) Cancel(tok Token) {
	delete(w.seq, tok)
}

// Expired pops and returns every Token whose deadline is <= now, in
// deadline order, skipping entries superseded by Cancel or a later
// Schedule.
func (w *timerWheel) Expired(now time.Time) []Token {
	var fired []Token
	for w.heap.Len() > 0 {
		top := w.heap[0]
		if top.when.After(now) {
			break
		}
		heap.Pop(&w.heap)
		if cur, ok := w.seq[top.tok]; !ok || cur != top.seq {
			continue
		}
		delete(w.seq, top.tok)
		fired = append(fired, top.tok)
	}
	return fired
}

// NextDeadline reports the soonest live deadline, skipping stale
// entries, and whether one exists.
func (w *timerWheel) NextDeadline() (time.Time, bool) {
	for w.heap.Len() > 0 {
		top := w.heap[0]
		if cur, ok := w.seq[top.tok]; ok && cur == top.seq {
			return top.when, true
		}
		heap.Pop(&w.heap)
	}
	return time.Time{}, false
}

// calculateTimeout bounds the poller's block duration by the nearest
// live timer deadline, capped at maxWaitMs, mirroring the teacher's
// calculateTimeout in loop.go.
func (w *timerWheel) calculateTimeout(now time.Time, maxWaitMs int) int {
	deadline, ok := w.NextDeadline()
	if !ok {
		return maxWaitMs
	}
	delay := deadline.Sub(now)
	if delay <= 0 {
		return 0
	}
	ms := int(delay / time.Millisecond)
	if ms > maxWaitMs {
		return maxWaitMs
	}
	return ms
}
