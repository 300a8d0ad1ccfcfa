package reactor

// handler implements the poller-callback dispatch described in
// spec.md §4.5: it translates raw Poller ReadyEvent reports and fired
// timer Tokens into typed EventType dispatches against Contexts,
// following the vacate-and-restore protocol throughout so a handler
// may safely re-enter the reactor via ReactorCtrl.
//
// These methods are invoked only from Reactor.tick, on the single
// reactor goroutine.

// dispatchReady routes one ReadyEvent to the accept, on_read, or
// on_write path per the ordering in spec.md §4.5.
func (r *Reactor) dispatchReady(ev ReadyEvent) {
	if r.reg.listeners.InRange(ev.Token) {
		r.acceptPath(ev.Token)
		return
	}
	if !r.reg.conns.InRange(ev.Token) {
		fatalf("dispatch", ev.Token, "readiness for token outside listener/connection ranges")
	}
	if ev.Events.has(Readable) || ev.Events.has(Hangup) {
		r.onReadPath(ev.Token, ev.Events)
		return
	}
	if ev.Events.has(Writable) {
		r.onWritePath(ev.Token, ev.Events)
	}
}

// acceptPath implements spec.md §4.5's accept path.
func (r *Reactor) acceptPath(listenerTok Token) {
	if !r.reg.listeners.Contains(listenerTok) {
		fatalf("accept", listenerTok, "listener slot vacant at dispatch")
	}
	vacated, err := r.reg.listeners.Replace(listenerTok, listenerSlot{vacant: true})
	if err != nil {
		fatalf("accept", listenerTok, "vacate listener: %v", err)
	}
	sock, ok, acceptErr := acceptOne(vacated.socket.Fd())
	if acceptErr != nil {
		r.logger().Log(LogEntry{Level: LevelWarn, Category: "accept", Token: listenerTok, Message: "accept failed", Err: acceptErr})
	}
	if err := r.poller.Modify(vacated.socket.Fd(), listenerTok, Readable); err != nil {
		r.logger().Log(LogEntry{Level: LevelError, Category: "accept", Token: listenerTok, Message: "re-register listener failed", Err: err})
	}
	if ok {
		r.metrics.incAccepts()
		connTok, rerr := r.reg.conns.Insert(vacantConn())
		if rerr != nil {
			r.logger().Log(LogEntry{Level: LevelWarn, Category: "accept", Token: listenerTok, Message: "connection slab full, dropping accepted socket", Err: rerr})
			_ = sock.Close()
		} else {
			ctrl := &ReactorCtrl{r: r}
			result := ConnResult{Socket: sock, Token: connTok, Peer: sock.peer, Kind: ConnKindAccepted}
			ctx, herr := vacated.accept(result, ctrl)
			if herr != nil || ctx == nil {
				if herr != nil {
					r.logger().Log(LogEntry{Level: LevelWarn, Category: "accept", Token: connTok, Message: "accept handler rejected connection", Err: herr})
				}
				_, _ = r.reg.conns.Remove(connTok)
				_ = sock.Close()
			} else if err := r.poller.Add(sock.Fd(), connTok, ctx.Interest()|Hangup); err != nil {
				r.logger().Log(LogEntry{Level: LevelError, Category: "accept", Token: connTok, Message: "register accepted context failed", Err: err})
				_, _ = r.reg.conns.Remove(connTok)
				_ = sock.Close()
			} else {
				_, _ = r.reg.conns.Replace(connTok, connectedConn(ctx))
			}
		}
	}
	if _, err := r.reg.listeners.Replace(listenerTok, vacated); err != nil {
		fatalf("accept", listenerTok, "restore listener: %v", err)
	}
}

// onReadPath implements spec.md §4.5's on_read path.
func (r *Reactor) onReadPath(tok Token, events PollEvents) {
	slot, err := r.reg.conns.Replace(tok, vacantConn())
	if err != nil {
		fatalf("on_read", tok, "connection slot out of range")
	}
	switch slot.state {
	case connStatePending:
		if events.has(Hangup) {
			r.metrics.incConnectFailures()
			ctrl := &ReactorCtrl{r: r}
			result := ConnResult{Token: tok, Kind: ConnKindOutbound, Err: socketErrOrDefault(slot.pendingSocket)}
			_, _ = slot.pendingHandler(result, ctrl)
			_ = slot.pendingSocket.(*fdSocket).Close()
			_ = r.poller.Remove(slot.pendingSocket.Fd())
			_, _ = r.reg.conns.Remove(tok)
			return
		}
		// Readable before the connect completed: treat as not-yet-ready,
		// restore Pending and keep waiting for writable completion.
		if _, err := r.reg.conns.Replace(tok, slot); err != nil {
			fatalf("on_read", tok, "restore pending: %v", err)
		}
	case connStateConnected:
		r.metrics.incReads()
		ctrl := &ReactorCtrl{r: r}
		slot.ctx.OnEvent(ctrl, EventReadable)
		if events.has(Hangup) {
			r.metrics.incDisconnects()
			slot.ctx.OnEvent(ctrl, EventDisconnect)
			_ = r.poller.Remove(slot.ctx.Evented().Fd())
			_, _ = r.reg.conns.Remove(tok)
			return
		}
		if !r.reg.conns.Contains(tok) {
			// The slot was removed during dispatch.
			return
		}
		if err := r.poller.Modify(slot.ctx.Evented().Fd(), tok, slot.ctx.Interest()|Hangup); err != nil {
			r.logger().Log(LogEntry{Level: LevelError, Category: "read", Token: tok, Message: "re-register failed", Err: err})
		}
		if _, err := r.reg.conns.Replace(tok, slot); err != nil {
			fatalf("on_read", tok, "restore connected: %v", err)
		}
	default:
		fatalf("on_read", tok, "readiness for vacant connection slot")
	}
}

// onWritePath implements spec.md §4.5's on_write path.
func (r *Reactor) onWritePath(tok Token, events PollEvents) {
	slot, err := r.reg.conns.Replace(tok, vacantConn())
	if err != nil {
		fatalf("on_write", tok, "connection slot out of range")
	}
	switch slot.state {
	case connStatePending:
		sock := slot.pendingSocket.(*fdSocket)
		ctrl := &ReactorCtrl{r: r}
		var result ConnResult
		if cerr := socketError(sock.fd); cerr != nil {
			r.metrics.incConnectFailures()
			result = ConnResult{Token: tok, Kind: ConnKindOutbound, Err: cerr}
		} else {
			r.metrics.incConnects()
			result = ConnResult{Socket: sock, Token: tok, Peer: sock.peer, Kind: ConnKindOutbound}
		}
		ctx, herr := slot.pendingHandler(result, ctrl)
		if !result.Connected() || herr != nil || ctx == nil {
			_ = r.poller.Remove(sock.fd)
			_ = sock.Close()
			_, _ = r.reg.conns.Remove(tok)
			return
		}
		if err := r.poller.Modify(sock.fd, tok, ctx.Interest()|Hangup); err != nil {
			r.logger().Log(LogEntry{Level: LevelError, Category: "write", Token: tok, Message: "re-register failed", Err: err})
		}
		if _, err := r.reg.conns.Replace(tok, connectedConn(ctx)); err != nil {
			fatalf("on_write", tok, "store connected: %v", err)
		}
	case connStateConnected:
		r.metrics.incWrites()
		ctrl := &ReactorCtrl{r: r}
		slot.ctx.OnEvent(ctrl, EventWritable)
		if events.has(Hangup) {
			r.metrics.incDisconnects()
			slot.ctx.OnEvent(ctrl, EventDisconnect)
			_ = r.poller.Remove(slot.ctx.Evented().Fd())
			_, _ = r.reg.conns.Remove(tok)
			return
		}
		if !r.reg.conns.Contains(tok) {
			return
		}
		if err := r.poller.Modify(slot.ctx.Evented().Fd(), tok, slot.ctx.Interest()|Hangup); err != nil {
			r.logger().Log(LogEntry{Level: LevelError, Category: "write", Token: tok, Message: "re-register failed", Err: err})
		}
		if _, err := r.reg.conns.Replace(tok, slot); err != nil {
			fatalf("on_write", tok, "restore connected: %v", err)
		}
	default:
		fatalf("on_write", tok, "readiness for vacant connection slot")
	}
}

// dispatchNotify implements spec.md §4.5's notify dispatch.
func (r *Reactor) dispatchNotify(msg notifyMsg) {
	slot, err := r.reg.conns.Replace(msg.tok, vacantConn())
	if err != nil {
		r.metrics.incNotifiesDropped()
		r.logger().Log(LogEntry{Level: LevelWarn, Category: "notify", Token: msg.tok, Message: "notify for unknown token, dropping"})
		return
	}
	if slot.state != connStateConnected {
		fatalf("notify", msg.tok, "notify on non-Connected slot")
	}
	r.metrics.incNotifies()
	ctrl := &ReactorCtrl{r: r}
	slot.ctx.OnEvent(ctrl, EventNotify(msg.payload))
	if !r.reg.conns.Contains(msg.tok) {
		// The slot was removed during dispatch; nothing left to
		// restore.
		return
	}
	if err := r.poller.Modify(slot.ctx.Evented().Fd(), msg.tok, slot.ctx.Interest()|Hangup); err != nil {
		r.logger().Log(LogEntry{Level: LevelError, Category: "notify", Token: msg.tok, Message: "re-register failed", Err: err})
	}
	if _, err := r.reg.conns.Replace(msg.tok, slot); err != nil {
		fatalf("notify", msg.tok, "restore connected: %v", err)
	}
}

// dispatchTimer implements spec.md §4.5's timer dispatch.
func (r *Reactor) dispatchTimer(timerTok Token) {
	slot, err := r.reg.timers.Remove(timerTok)
	if err != nil {
		// Cancelled-and-removed before firing; nothing to do.
		return
	}
	r.metrics.incTimersFired()
	ctrl := &ReactorCtrl{r: r}
	switch {
	case slot.hasConnTok:
		connSlotVal, err := r.reg.conns.Replace(slot.connTok, vacantConn())
		if err != nil || connSlotVal.state != connStateConnected {
			// Target no longer Connected: silently drop, but restore
			// whatever was there if it wasn't actually ours to vacate.
			if err == nil {
				_, _ = r.reg.conns.Replace(slot.connTok, connSlotVal)
			}
			return
		}
		connSlotVal.ctx.OnEvent(ctrl, EventTimeout(timerTok))
		if !r.reg.conns.Contains(slot.connTok) {
			return
		}
		if err := r.poller.Modify(connSlotVal.ctx.Evented().Fd(), slot.connTok, connSlotVal.ctx.Interest()|Hangup); err != nil {
			r.logger().Log(LogEntry{Level: LevelError, Category: "timer", Token: slot.connTok, Message: "re-register failed", Err: err})
		}
		if _, err := r.reg.conns.Replace(slot.connTok, connSlotVal); err != nil {
			fatalf("timer", slot.connTok, "restore connected: %v", err)
		}
	case slot.standalone != nil:
		slot.standalone(timerTok, ctrl)
	default:
		fatalf("timer", timerTok, "timer slot has neither connTok nor standalone handler")
	}
}

func socketErrOrDefault(e Evented) error {
	if s, ok := e.(*fdSocket); ok {
		if err := socketError(s.fd); err != nil {
			return err
		}
	}
	return errConnectHangup
}

var errConnectHangup = errConnectHangupErr{}

type errConnectHangupErr struct{}

func (errConnectHangupErr) Error() string { return "reactor: connect failed (hangup/error before completion)" }
