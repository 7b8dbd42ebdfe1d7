package netwrk

import "sync/atomic"

// Metrics counts channel traffic. All methods are safe for concurrent use.
type Metrics struct {
	FramesSent     atomic.Int64
	FramesReceived atomic.Int64
	SendFailures   atomic.Int64
	Malformed      atomic.Int64
}

func (m *Metrics) Snapshot() map[string]any {
	return map[string]any{
		"frames_sent":     m.FramesSent.Load(),
		"frames_received": m.FramesReceived.Load(),
		"send_failures":   m.SendFailures.Load(),
		"malformed":       m.Malformed.Load(),
	}
}
