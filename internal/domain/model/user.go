package model

import "time"

// User is a registered player. Handicap determines the benchmark average.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Handicap  float64   `json:"handicap"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
