package messages

import "time"

// ReadingMessage is the wire envelope a device pushes on the real-time
// channel. Measurements is a free-form bag of named numeric fields; the
// schema depends on the sensor kind and is not fixed here.
type ReadingMessage struct {
	SensorID     int64              `json:"sensorId"`
	Measurements map[string]float64 `json:"measurements"`
}

// Valid reports whether the message carries the minimum shape the
// pipeline needs. Malformed messages are rejected per message, never
// per session.
func (m ReadingMessage) Valid() bool {
	return m.SensorID > 0 && len(m.Measurements) > 0
}

// Reading is one persisted measurement record. Records are append-only;
// ID is assigned by the time-series store on write.
type Reading struct {
	ID           string             `json:"id"`
	SensorID     int64              `json:"sensor_id"`
	Measurements map[string]float64 `json:"measurements"`
	Timestamp    time.Time          `json:"timestamp"`
}
