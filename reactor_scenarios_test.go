package reactor

import (
	"net"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoContext is a minimal Context used across the end-to-end scenario
// tests below: it runs an arbitrary onEvent hook and exposes the
// underlying socket and OutQueue for tests that need to write.
type echoContext struct {
	sock     Evented
	out      OutQueue
	interest PollEvents
	onEvent  func(c *echoContext, ctrl *ReactorCtrl, ev EventType)
}

func (c *echoContext) Evented() Evented     { return c.sock }
func (c *echoContext) Interest() PollEvents { return c.interest }
func (c *echoContext) OnEvent(ctrl *ReactorCtrl, ev EventType) {
	if c.onEvent != nil {
		c.onEvent(c, ctrl, ev)
	}
}

// pipeEvented wraps one end of an os.Pipe as an Evented, for tests
// that need a real pollable fd but no actual I/O traffic (Register /
// slab-full / notify scenarios).
type pipeEvented struct {
	r, w *os.File
}

func (p *pipeEvented) Fd() int { return int(p.r.Fd()) }

func newPipeEvented(t *testing.T) *pipeEvented {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	p := &pipeEvented{r: r, w: w}
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})
	return p
}

func dialTestClient(t *testing.T, addr string) net.Conn {
	t.Helper()
	var conn net.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			return conn
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)
	return nil
}

func runReactorInBackground(t *testing.T, r *Reactor) chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- r.Run()
		close(done)
	}()
	return done
}

// Scenario 1: accept + deregister (spec.md §8.1).
func TestScenarioAcceptAndDeregister(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	var serverTok atomic.Uint32
	accepted := make(chan struct{}, 1)

	_, err = r.Listen("127.0.0.1:19101", func(res ConnResult, ctrl *ReactorCtrl) (Context, error) {
		serverTok.Store(uint32(res.Token))
		accepted <- struct{}{}
		return &echoContext{sock: res.Socket, interest: Readable}, nil
	})
	require.NoError(t, err)

	done := runReactorInBackground(t, r)
	defer func() {
		r.Shutdown()
		<-done
	}()

	client := dialTestClient(t, "127.0.0.1:19101")
	defer client.Close()

	select {
	case <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for accept")
	}

	tok := Token(serverTok.Load())
	ctx, err := r.Deregister(tok)
	require.NoError(t, err)
	require.NotNil(t, ctx)
	assert.False(t, r.reg.conns.Contains(tok))
}

// Scenario 2: PING/PONG three rounds (spec.md §8.2).
func TestScenarioPingPongThreeRounds(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	var pingCount, pongCount atomic.Int32
	serverReady := make(chan struct{}, 1)

	_, err = r.Listen("127.0.0.1:19102", func(res ConnResult, ctrl *ReactorCtrl) (Context, error) {
		ctx := &echoContext{sock: res.Socket, interest: Readable}
		tok := res.Token
		ctx.onEvent = func(c *echoContext, ctrl *ReactorCtrl, ev EventType) {
			if _, ok := ev.Timeout(); ok {
				pingCount.Add(1)
				_, _ = c.out.Write([]byte("PING!"), c.sock.(*fdSocket))
				return
			}
			if ev.IsReadable() {
				buf := make([]byte, 5)
				n, _ := c.sock.(*fdSocket).Read(buf)
				if n == 5 && string(buf) == "PONG!" {
					pongCount.Add(1)
					if pongCount.Load() >= 3 {
						ctrl.Shutdown()
						return
					}
					_, _ = ctrl.TimeoutConn(1, tok)
				}
			}
		}
		serverReady <- struct{}{}
		_, _ = ctrl.TimeoutConn(1, tok)
		return ctx, nil
	})
	require.NoError(t, err)

	done := runReactorInBackground(t, r)
	defer func() {
		r.Shutdown()
		<-done
	}()

	client := dialTestClient(t, "127.0.0.1:19102")
	defer client.Close()

	select {
	case <-serverReady:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server accept")
	}

	clientDone := make(chan struct{})
	go func() {
		defer close(clientDone)
		buf := make([]byte, 5)
		for i := 0; i < 3; i++ {
			if _, err := client.Read(buf); err != nil {
				return
			}
			if _, err := client.Write([]byte("PONG!")); err != nil {
				return
			}
		}
	}()

	select {
	case <-clientDone:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out running ping/pong rounds")
	}

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3500 * time.Millisecond):
		t.Fatal("run did not return after shutdown")
	}
	assert.GreaterOrEqual(t, int(pingCount.Load()), 3)
}

// Scenario 4: connect refused (spec.md §8.4).
func TestScenarioConnectRefused(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	done := runReactorInBackground(t, r)
	defer func() {
		r.Shutdown()
		<-done
	}()

	failed := make(chan error, 1)
	_, err = r.Connect("127.0.0.1", 19999, func(res ConnResult, ctrl *ReactorCtrl) (Context, error) {
		failed <- res.Err
		return nil, nil
	})
	require.NoError(t, err)

	select {
	case err := <-failed:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connect failure")
	}
}

// Scenario 5: cross-thread notify (spec.md §8.5).
func TestScenarioCrossThreadNotify(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	received := make(chan []byte, 1)
	ctxTok, err := r.Register(&echoContext{
		sock:     newPipeEvented(t),
		interest: Readable,
		onEvent: func(c *echoContext, ctrl *ReactorCtrl, ev EventType) {
			if payload, ok := ev.Notify(); ok {
				received <- payload
			}
		},
	})
	require.NoError(t, err)

	done := runReactorInBackground(t, r)
	defer func() {
		r.Shutdown()
		<-done
	}()

	payload := []byte("cross-thread-payload")
	require.NoError(t, r.Channel().Send(ctxTok, payload))

	select {
	case got := <-received:
		assert.Equal(t, payload, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notify dispatch")
	}
}

// Scenario 6: slab-full (spec.md §8.6).
func TestScenarioSlabFull(t *testing.T) {
	r, err := New(WithMaxConnections(4))
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := r.Register(&echoContext{sock: newPipeEvented(t), interest: Readable})
		require.NoError(t, err)
	}

	_, err = r.Register(&echoContext{sock: newPipeEvented(t), interest: Readable})
	assert.ErrorIs(t, err, ErrSlabFull)
}
