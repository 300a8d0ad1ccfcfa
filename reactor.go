package reactor

import (
	"time"
)

// wakeToken is the sentinel Token the wake pipe is registered under.
// It is deliberately outside every registry range (listeners, conns,
// timers are all sized from configuration and never reach this value)
// so tick can filter it out before routing to dispatchReady.
const wakeToken Token = ^Token(0)

// Reactor is the top-level object owning the Registry, the Poller,
// the NotifyChannel, the TimerWheel, and the public API described in
// spec.md §4.6. A Reactor instance runs on exactly one goroutine once
// Run or RunOnce is called; see SPEC_FULL.md's Concurrency section.
type Reactor struct {
	cfg     *config
	reg     *registry
	poller  Poller
	notify  *NotifyChannel
	wake    *wakePipe
	timers  *timerWheel
	state   atomicRunState
	metrics metricsCounters
}

// New constructs a Reactor with the given Options applied over the
// documented defaults (see options.go).
func New(opts ...Option) (*Reactor, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	poller, err := newPoller()
	if err != nil {
		return nil, err
	}
	wake, err := newWakePipe()
	if err != nil {
		_ = poller.Close()
		return nil, err
	}
	if err := poller.Add(wake.readFD, wakeToken, Readable); err != nil {
		_ = poller.Close()
		wake.Close()
		return nil, err
	}
	r := &Reactor{
		cfg:    cfg,
		reg:    newRegistry(cfg),
		poller: poller,
		wake:   wake,
		notify: newNotifyChannel(cfg.outQueueSize, wake),
		timers: newTimerWheel(),
	}
	r.metrics.enabled = cfg.metricsEnabled
	r.state.Store(stateIdle)
	return r, nil
}

func (r *Reactor) logger() Logger { return r.cfg.logger }

// ctrl returns a fresh ReactorCtrl for API calls made outside of a
// dispatch frame (e.g. setting up listeners before Run).
func (r *Reactor) ctrl() *ReactorCtrl { return &ReactorCtrl{r: r} }

// Listen delegates to ReactorCtrl.Listen; see spec.md §4.4.
func (r *Reactor) Listen(addr string, handler AcceptHandler) (Token, error) {
	if r.state.IsTerminal() {
		return 0, ErrReactorClosed
	}
	return r.ctrl().Listen(addr, handler)
}

// Connect delegates to ReactorCtrl.Connect.
func (r *Reactor) Connect(host string, port int, handler ConnectHandler) (Token, error) {
	if r.state.IsTerminal() {
		return 0, ErrReactorClosed
	}
	return r.ctrl().Connect(host, port, handler)
}

// Timeout delegates to ReactorCtrl.Timeout.
func (r *Reactor) Timeout(ms int, handler TimerHandler) (Token, error) {
	if r.state.IsTerminal() {
		return 0, ErrReactorClosed
	}
	return r.ctrl().Timeout(ms, handler)
}

// TimeoutConn delegates to ReactorCtrl.TimeoutConn.
func (r *Reactor) TimeoutConn(ms int, connTok Token) (Token, error) {
	if r.state.IsTerminal() {
		return 0, ErrReactorClosed
	}
	return r.ctrl().TimeoutConn(ms, connTok)
}

// Register delegates to ReactorCtrl.Register.
func (r *Reactor) Register(ctx Context) (Token, error) {
	if r.state.IsTerminal() {
		return 0, ErrReactorClosed
	}
	return r.ctrl().Register(ctx)
}

// Deregister delegates to ReactorCtrl.Deregister.
func (r *Reactor) Deregister(tok Token) (Context, error) {
	if r.state.IsTerminal() {
		return nil, ErrReactorClosed
	}
	return r.ctrl().Deregister(tok)
}

// Channel returns the handle external goroutines use to push
// (Token, payload) notifications onto this Reactor.
func (r *Reactor) Channel() *NotifyChannel { return r.notify }

// Metrics returns a snapshot of the reactor's counters. Slot gauges
// are read from the registry directly since they are not cheaply
// tracked incrementally without risking drift on every insert/remove
// path.
func (r *Reactor) Metrics() Metrics {
	m := r.metrics.snapshot()
	m.ListenerSlots = r.reg.listeners.Len()
	m.ConnectionSlots = r.reg.conns.Len()
	m.TimerSlots = r.reg.timers.Len()
	return m
}

// Shutdown requests the run loop stop at the next tick boundary. Safe
// to call from any goroutine, including one that is not the reactor's
// own — it only flips a CAS state and arms the wake pipe.
func (r *Reactor) Shutdown() {
	if r.state.TryTransition(stateRunning, stateTerminating) {
		if r.wake != nil {
			_ = r.wake.Arm()
		}
	}
}

// Run blocks, dispatching events, until Shutdown is called (from any
// handler or any goroutine) or an unrecoverable poller error occurs.
func (r *Reactor) Run() error {
	if !r.state.TryTransition(stateIdle, stateRunning) {
		return ErrReactorClosed
	}
	defer func() {
		p := recover()
		if de, ok := p.(*DispatchError); ok {
			r.logger().Log(LogEntry{Level: LevelError, Category: "dispatch", Token: de.Token, Message: "fatal dispatch contract violation", Err: de})
		}
		r.state.Store(stateTerminated)
		_ = r.poller.Close()
		r.wake.Close()
		if p != nil {
			panic(p)
		}
	}()
	readyBuf := make([]ReadyEvent, 256)
	for r.state.Load() == stateRunning {
		if err := r.tick(readyBuf); err != nil {
			return err
		}
	}
	return nil
}

// RunOnce performs a single poll-and-dispatch tick without requiring
// Run's full lifecycle transition; intended for tests that want
// deterministic step-by-step control. The caller is responsible for
// calling New/Shutdown around it appropriately.
func (r *Reactor) RunOnce() error {
	readyBuf := make([]ReadyEvent, 256)
	return r.tick(readyBuf)
}

// tick performs one iteration: bound the poll wait by the nearest
// timer deadline, poll, dispatch readiness, drain notifies, and fire
// expired timers — mirroring the teacher's Loop.runIteration shape in
// loop.go (poll, then drain task/microtask queues, then timers).
func (r *Reactor) tick(readyBuf []ReadyEvent) error {
	r.metrics.incTicks()
	now := time.Now()
	timeoutMs := r.timers.calculateTimeout(now, r.cfg.pollTimeoutMs)
	n, err := r.poller.Wait(timeoutMs, readyBuf)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		ev := readyBuf[i]
		if ev.Token == wakeToken {
			r.wake.Drain()
			continue
		}
		r.dispatchReady(ev)
	}
	for _, msg := range r.notify.drain() {
		r.dispatchNotify(msg)
	}
	for _, tok := range r.timers.Expired(time.Now()) {
		r.dispatchTimer(tok)
	}
	return nil
}
