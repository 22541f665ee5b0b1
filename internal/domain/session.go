package domain

import "time"

const DefaultSessionTitle = "New Chat"

// Session asocia un usuario con un conjunto fijo de personajes.
// Characters conserva el orden en que fueron asociados.
type Session struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Title      string      `json:"title"`
	Characters []Character `json:"characters"`
	CreatedAt  time.Time   `json:"created_at"`
}

// OwnedBy verifica la pertenencia de la sesion al usuario.
func (s *Session) OwnedBy(userID string) bool {
	return s != nil && s.UserID == userID
}
