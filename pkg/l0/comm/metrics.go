package comm

import (
	"sync/atomic"
)

// Metrics contains atomic counters of an Engine.
type Metrics struct {
	// FramesSent indicates the number of frames written to the transport.
	FramesSent atomic.Uint64
	// BytesSent indicates the number of bytes written to the transport.
	BytesSent atomic.Uint64
	// SendErrors indicates the number of failed sends.
	SendErrors atomic.Uint64
	// FramesReceived indicates the number of frames queued for Take.
	FramesReceived atomic.Uint64
	// FramesDropped indicates the number of complete frames dropped for
	// bad checksum or lack of arena memory.
	FramesDropped atomic.Uint64
	// FramesEvicted indicates the number of frames overwritten before taken.
	FramesEvicted atomic.Uint64
	// BytesDiscarded indicates the number of bytes dropped while resyncing.
	BytesDiscarded atomic.Uint64
	// Reconnects indicates the number of successful reconnections.
	Reconnects atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	FramesSent     uint64
	BytesSent      uint64
	SendErrors     uint64
	FramesReceived uint64
	FramesDropped  uint64
	FramesEvicted  uint64
	BytesDiscarded uint64
	Reconnects     uint64
}

// Snapshot copies current values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		FramesSent:     m.FramesSent.Load(),
		BytesSent:      m.BytesSent.Load(),
		SendErrors:     m.SendErrors.Load(),
		FramesReceived: m.FramesReceived.Load(),
		FramesDropped:  m.FramesDropped.Load(),
		FramesEvicted:  m.FramesEvicted.Load(),
		BytesDiscarded: m.BytesDiscarded.Load(),
		Reconnects:     m.Reconnects.Load(),
	}
}
