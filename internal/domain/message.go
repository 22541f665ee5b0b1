package domain

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID          int64      `json:"id"`
	SessionID   string     `json:"session_id"`
	Role        string     `json:"role"`
	Content     string     `json:"content"`
	CharacterID *string    `json:"character_id,omitempty"`
	Character   *Character `json:"character,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
