package obs

import (
	"sync/atomic"
	"time"

	"main/internal/risk"
)

// Anomaly classifies reconciliation faults that are logged and dropped.
type Anomaly uint8

const (
	AnomalyUnknownOrder Anomaly = iota
	AnomalyTerminalOrder
	AnomalyMalformedEvent
	AnomalyOverfill
	AnomalyLedger
	anomalyCount
)

func (a Anomaly) String() string {
	switch a {
	case AnomalyUnknownOrder:
		return "unknown_order"
	case AnomalyTerminalOrder:
		return "terminal_order"
	case AnomalyMalformedEvent:
		return "malformed_event"
	case AnomalyOverfill:
		return "overfill"
	case AnomalyLedger:
		return "ledger"
	default:
		return "unknown"
	}
}

// Metrics collects lightweight counters and latency stats.
type Metrics struct {
	eventsApplied uint64
	barsEmitted   uint64
	queueDrops    uint64
	anomalies     [anomalyCount]uint64
	riskDecisions [3]uint64

	submitLatency LatencyStats
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	EventsApplied uint64
	BarsEmitted   uint64
	QueueDrops    uint64
	Anomalies     map[Anomaly]uint64
	RiskDecisions map[risk.Action]uint64
	SubmitLatency LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncEventApplied records one successfully reconciled event.
func (m *Metrics) IncEventApplied() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.eventsApplied, 1)
}

// IncBarEmitted records one completed bar.
func (m *Metrics) IncBarEmitted() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.barsEmitted, 1)
}

// IncQueueDrop records a queue drop.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// IncAnomaly records a dropped/flagged reconciliation event.
func (m *Metrics) IncAnomaly(a Anomaly) {
	if m == nil {
		return
	}
	if int(a) < len(m.anomalies) {
		atomic.AddUint64(&m.anomalies[a], 1)
	}
}

// IncRiskDecision records a risk evaluation outcome.
func (m *Metrics) IncRiskDecision(action risk.Action) {
	if m == nil {
		return
	}
	if int(action) < len(m.riskDecisions) {
		atomic.AddUint64(&m.riskDecisions[action], 1)
	}
}

// ObserveSubmit measures end-to-end submission latency.
func (m *Metrics) ObserveSubmit(d time.Duration) {
	if m == nil {
		return
	}
	m.submitLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	anomalies := make(map[Anomaly]uint64)
	for i := range m.anomalies {
		if v := atomic.LoadUint64(&m.anomalies[i]); v > 0 {
			anomalies[Anomaly(i)] = v
		}
	}
	decisions := make(map[risk.Action]uint64)
	for i := range m.riskDecisions {
		if v := atomic.LoadUint64(&m.riskDecisions[i]); v > 0 {
			decisions[risk.Action(i)] = v
		}
	}
	return Snapshot{
		EventsApplied: atomic.LoadUint64(&m.eventsApplied),
		BarsEmitted:   atomic.LoadUint64(&m.barsEmitted),
		QueueDrops:    atomic.LoadUint64(&m.queueDrops),
		Anomalies:     anomalies,
		RiskDecisions: decisions,
		SubmitLatency: m.submitLatency.Snapshot(),
	}
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
