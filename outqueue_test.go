package reactor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSink is a Sink test double that accepts up to maxPerWrite bytes
// per call, modeling a slow peer / backpressured socket.
type fakeSink struct {
	written     []byte
	maxPerWrite int
	failWith    error
	notWritable bool
}

func (f *fakeSink) Write(p []byte) (int, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	if f.notWritable {
		return 0, nil
	}
	n := len(p)
	if f.maxPerWrite > 0 && n > f.maxPerWrite {
		n = f.maxPerWrite
	}
	f.written = append(f.written, p[:n]...)
	return n, nil
}

func TestOutQueueWriteImmediateFullAccept(t *testing.T) {
	var q OutQueue
	sink := &fakeSink{}
	sent, err := q.Write([]byte("hello"), sink)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.True(t, q.Empty())
	assert.Equal(t, "hello", string(sink.written))
}

func TestOutQueueWriteShortEnqueuesRemainder(t *testing.T) {
	var q OutQueue
	sink := &fakeSink{maxPerWrite: 2}
	sent, err := q.Write([]byte("hello"), sink)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.False(t, q.Empty())
	assert.Equal(t, 3, q.Pending())
}

func TestOutQueueDrainFlushesBackpressuredWrite(t *testing.T) {
	var q OutQueue
	payload := make([]byte, 1<<20) // 1 MiB, scenario 3 of spec §8
	for i := range payload {
		payload[i] = byte(i)
	}
	sink := &fakeSink{maxPerWrite: 4096}
	sent, err := q.Write(payload, sink)
	require.NoError(t, err)
	assert.False(t, sent)

	for !q.Empty() {
		done, err := q.Drain(sink)
		require.NoError(t, err)
		if done {
			break
		}
	}
	assert.True(t, q.Empty())
	assert.Len(t, sink.written, len(payload))
	assert.Equal(t, payload, sink.written)
}

func TestOutQueueDrainNotWritableStopsWithoutError(t *testing.T) {
	var q OutQueue
	sink := &fakeSink{notWritable: true}
	_, err := q.Write([]byte("data"), sink)
	require.NoError(t, err)

	done, err := q.Drain(sink)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 4, q.Pending(), "zero-byte write must not lose buffered bytes")
}

func TestOutQueueDrainErrorAborts(t *testing.T) {
	var q OutQueue
	boom := errors.New("boom")
	sink := &fakeSink{maxPerWrite: 1}
	_, err := q.Write([]byte("xy"), sink)
	require.NoError(t, err)

	sink.failWith = boom
	_, err = q.Drain(sink)
	assert.ErrorIs(t, err, boom)
}

func TestOutQueueEmptyWriteIsNoop(t *testing.T) {
	var q OutQueue
	sink := &fakeSink{}
	sent, err := q.Write(nil, sink)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.True(t, q.Empty())
}
