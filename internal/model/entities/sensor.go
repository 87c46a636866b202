package entities

// Sensor represents a single physical probe wired to a flowerpot.
type Sensor struct {
	ID   int64  `json:"id"` // unique sensor identifier
	Name string `json:"name"`
	Pin  string `json:"pin"`  // physical pin/wiring descriptor
	Kind string `json:"type"` // measurement kind: humidity, temperature, ...
}
