package entities

// Garden groups flowerpots under a single owner.
type Garden struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Category classifies pots by the climate their plants need.
type Category struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Climate string `json:"climate"`
}

// User owns gardens. Authentication lives in the external surface.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
