package entities

// Flowerpot is a single pot inside a garden. Its water pump is the
// actuator that ingestion may trigger.
type Flowerpot struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Species    string `json:"species"`
	CategoryID int64  `json:"category_id"`
	GardenID   int64  `json:"garden_id"`
}

// FlowerpotSensorLink is the many-to-many association between pots and
// sensors. Managed by the external CRUD surface; read-only here.
type FlowerpotSensorLink struct {
	ID          int64 `json:"id"`
	FlowerpotID int64 `json:"flowerpot_id"`
	SensorID    int64 `json:"sensor_id"`
}
