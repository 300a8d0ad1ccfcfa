package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventTypeConstructorsAndAccessors(t *testing.T) {
	assert.True(t, EventReadable.IsReadable())
	assert.Equal(t, "Readable", EventReadable.Kind())

	assert.True(t, EventWritable.IsWritable())
	assert.True(t, EventDisconnect.IsDisconnect())

	payload := []byte("hello")
	n := EventNotify(payload)
	got, ok := n.Notify()
	assert.True(t, ok)
	assert.Equal(t, payload, got)
	assert.Equal(t, "Notify", n.Kind())

	tm := EventTimeout(Token(42))
	tok, ok := tm.Timeout()
	assert.True(t, ok)
	assert.Equal(t, Token(42), tok)

	_, ok = EventReadable.Notify()
	assert.False(t, ok)
	_, ok = EventReadable.Timeout()
	assert.False(t, ok)
}

func TestPollEventsHas(t *testing.T) {
	e := Readable | Hangup
	assert.True(t, e.has(Readable))
	assert.True(t, e.has(Hangup))
	assert.False(t, e.has(Writable))
}
