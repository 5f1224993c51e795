// Package telemetry streams raw sensor packets through a Redis stream for
// dashboard consumption. The path is best-effort and high-rate, unlike the
// critical-alert channel: a packet that cannot be serialized is dropped, not
// retried.
package telemetry

import "time"

// Packet is one raw sensor reading. SensorID is the ordering key: the stream
// is appended in arrival order, so all packets from one sensor are observed
// in send order by any single consumer group. No ordering holds across
// different sensors.
type Packet struct {
	SensorID  string  `json:"sensor_id" binding:"required"`
	Type      string  `json:"type" binding:"required"` // e.g. temperature, radiation, velocity
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// StampIfMissing fills in the timestamp for packets that arrive without one.
func (p *Packet) StampIfMissing(now time.Time) {
	if p.Timestamp == "" {
		p.Timestamp = now.Format(time.RFC3339)
	}
}
