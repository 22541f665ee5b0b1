package domain

import "time"

// Persona es un documento abierto (tono, frases, filosofia) que describe la voz del personaje.
type Persona map[string]any

// Character es una definicion de personaje reutilizable entre sesiones.
type Character struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Persona     Persona   `json:"persona"`
	CreatedAt   time.Time `json:"created_at"`
}
