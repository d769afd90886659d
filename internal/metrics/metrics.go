package metrics

import "sync/atomic"

// MetricID indexes one counter slot. The root package owns the ID space.
type MetricID uint16

// Config controls metric collection. When Enabled is false every operation
// is a no-op.
type Config struct {
	Enabled bool
	// Count fixes the size of the ID space. Zero means DefaultCount.
	Count int
}

// DefaultCount is the counter slot count used when Config.Count is zero.
const DefaultCount = 64

// padded keeps each counter on its own cache line so concurrent increments
// of different metrics never contend.
type padded struct {
	value uint64
	_     [56]byte
}

// Metrics holds atomic counters. The zero value is unusable; construct via
// New.
type Metrics struct {
	enabled  bool
	counters []padded
}

// Snapshot is a point-in-time deep copy of all non-zero counters.
type Snapshot struct {
	Counters map[MetricID]uint64
}

func New(cfg Config) *Metrics {
	count := cfg.Count
	if count <= 0 {
		count = DefaultCount
	}
	return &Metrics{
		enabled:  cfg.Enabled,
		counters: make([]padded, count),
	}
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || int(id) >= len(m.counters) {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || int(id) >= len(m.counters) {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) SnapshotAll() Snapshot {
	snap := Snapshot{Counters: make(map[MetricID]uint64)}
	if m == nil {
		return snap
	}
	for i := range m.counters {
		if v := atomic.LoadUint64(&m.counters[i].value); v > 0 {
			snap.Counters[MetricID(i)] = v
		}
	}
	return snap
}
