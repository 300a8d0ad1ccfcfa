package reactor

import "sync/atomic"

// Metrics is a snapshot of lightweight reactor counters. The counters
// are updated only when the Reactor was built WithMetrics(true); the
// *Slots gauges are read from the registry on every call. Mirrors the teacher's
// opt-in instrumentation, trimmed to counters this reactor can update
// on the hot dispatch path for free (plain atomic increments, no
// percentile tracking — that belongs in an application-level metrics
// exporter, not the core).
type Metrics struct {
	Ticks           uint64
	Accepts         uint64
	Connects        uint64
	ConnectFailures uint64
	Reads           uint64
	Writes          uint64
	Disconnects     uint64
	Notifies        uint64
	NotifiesDropped uint64
	TimersFired     uint64
	ListenerSlots   int
	ConnectionSlots int
	TimerSlots      int
}

// metricsCounters holds the atomic counters a Reactor updates in place;
// Metrics() copies them out into a plain Metrics value.
type metricsCounters struct {
	enabled         bool
	ticks           atomic.Uint64
	accepts         atomic.Uint64
	connects        atomic.Uint64
	connectFailures atomic.Uint64
	reads           atomic.Uint64
	writes          atomic.Uint64
	disconnects     atomic.Uint64
	notifies        atomic.Uint64
	notifiesDropped atomic.Uint64
	timersFired     atomic.Uint64
}

func (m *metricsCounters) incTicks() {
	if m.enabled {
		m.ticks.Add(1)
	}
}
func (m *metricsCounters) incAccepts() {
	if m.enabled {
		m.accepts.Add(1)
	}
}
func (m *metricsCounters) incConnects() {
	if m.enabled {
		m.connects.Add(1)
	}
}
func (m *metricsCounters) incConnectFailures() {
	if m.enabled {
		m.connectFailures.Add(1)
	}
}
func (m *metricsCounters) incReads() {
	if m.enabled {
		m.reads.Add(1)
	}
}
func (m *metricsCounters) incWrites() {
	if m.enabled {
		m.writes.Add(1)
	}
}
func (m *metricsCounters) incDisconnects() {
	if m.enabled {
		m.disconnects.Add(1)
	}
}
func (m *metricsCounters) incNotifies() {
	if m.enabled {
		m.notifies.Add(1)
	}
}
func (m *metricsCounters) incNotifiesDropped() {
	if m.enabled {
		m.notifiesDropped.Add(1)
	}
}
func (m *metricsCounters) incTimersFired() {
	if m.enabled {
		m.timersFired.Add(1)
	}
}

func (m *metricsCounters) snapshot() Metrics {
	return Metrics{
		Ticks:           m.ticks.Load(),
		Accepts:         m.accepts.Load(),
		Connects:        m.connects.Load(),
		ConnectFailures: m.connectFailures.Load(),
		Reads:           m.reads.Load(),
		Writes:          m.writes.Load(),
		Disconnects:     m.disconnects.Load(),
		Notifies:        m.notifies.Load(),
		NotifiesDropped: m.notifiesDropped.Load(),
		TimersFired:     m.timersFired.Load(),
	}
}
