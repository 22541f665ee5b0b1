package domain

import "strings"

const (
	StyleCold  = "cold"
	StyleSpicy = "spicy"
	StyleHot   = "hot"
)

// StyleMode reduce el estilo pedido por el cliente a los dos modos de generacion: "cold" o "hot".
// StyleSpicy, el valor que envia el frontend, cae en "hot" como cualquier otro estilo.
func StyleMode(style string) string {
	if strings.EqualFold(strings.TrimSpace(style), StyleCold) {
		return StyleCold
	}
	return StyleHot
}

// WantsNews indica si el estilo pide aumentar la respuesta con noticias recientes.
func WantsNews(style string) bool {
	return StyleMode(style) == StyleCold
}
