package game

import (
	"sync/atomic"
	"time"
)

// Metrics records frame loop timings for the spectator /metrics endpoint.
type Metrics struct {
	TickCount   atomic.Int64
	TotalTickNs atomic.Int64
	Points      atomic.Int64
}

func (m *Metrics) AddTick(d time.Duration) {
	m.TickCount.Add(1)
	m.TotalTickNs.Add(d.Nanoseconds())
}

func (m *Metrics) Snapshot() map[string]any {
	tick := m.TickCount.Load()
	total := m.TotalTickNs.Load()
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":  tick,
		"points":      m.Points.Load(),
		"avg_tick_ms": avgMs,
	}
}
