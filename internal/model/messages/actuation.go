package messages

import "time"

// ActuationCommand instructs a pot's physical actuator.
type ActuationCommand string

const (
	// CommandStartWaterPump starts the pot's water pump.
	CommandStartWaterPump ActuationCommand = "startWaterPump"
	// CommandNone means the reading triggered nothing.
	CommandNone ActuationCommand = ""
)

// ActuationEvent is the transient instruction broadcast to the
// subscribers of a flowerpot topic. It is never persisted; delivery is
// at-most-once and valid only for the lifetime of the broadcast.
type ActuationEvent struct {
	FlowerpotID int64            `json:"flowerpot_id"`
	GardenID    int64            `json:"garden_id"`
	SensorID    int64            `json:"sensor_id"`
	Command     ActuationCommand `json:"command"`
	Timestamp   time.Time        `json:"timestamp"`
}
