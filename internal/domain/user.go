package domain

import "time"

// User se identifica por un id opaco provisto por el cliente.
type User struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}
