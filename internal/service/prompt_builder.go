package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"guru-chat/internal/domain"
	"guru-chat/internal/llm"
)

const (
	coldTemperature = 0.4
	hotTemperature  = 1.0

	noNewsHotText = "No external news provided. Rely on your intuition and philosophy."
)

// PromptBuilder construye los mensajes de sistema y usuario para que el LLM actue como el personaje.
type PromptBuilder struct{}

// Build arma el prompt completo. style se reduce a "cold" o "hot".
func (PromptBuilder) Build(character domain.Character, style, newsText, history, userMessage string) []llm.Message {
	mode := domain.StyleMode(style)

	var sb strings.Builder
	sb.WriteString("You are an AI roleplaying as the character defined in the JSON below.\n")
	sb.WriteString("Internalize all attributes, especially the 'tone' and 'signature_phrases'.\n\n")

	sb.WriteString("[CHARACTER PROFILE]\n")
	sb.WriteString(personaJSON(character))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("[CURRENT MODE: %s]\n", strings.ToUpper(mode)))
	if mode == domain.StyleCold {
		sb.WriteString("- Be polite, wise, and calm.\n")
		sb.WriteString("- Use honorifics.\n")
		sb.WriteString("- Base your advice on the provided <LATEST_MARKET_NEWS>.\n")
		sb.WriteString("- Use phrases from 'signature_phrases_cold'.\n")
	} else {
		sb.WriteString("- Be sarcastic, blunt, and aggressive.\n")
		sb.WriteString("- Talk like a strict grandfather (or crazy genius) scolding a reckless newbie.\n")
		sb.WriteString("- IGNORE polite tones. Use memes or slang if appropriate.\n")
		sb.WriteString("- Use phrases from 'signature_phrases_hot'.\n")
		sb.WriteString("- Don't rely on news; rely on your gut feeling and philosophy.\n")
	}

	if strings.TrimSpace(history) != "" {
		sb.WriteString("\n[RECENT CONVERSATION]\n")
		sb.WriteString(history)
		sb.WriteString("\n")
	}

	if strings.TrimSpace(newsText) == "" {
		newsText = noNewsHotText
	}
	user := fmt.Sprintf("News Context:\n%s\n\nUser Question: %s", newsText, strings.TrimSpace(userMessage))

	return []llm.Message{
		{Role: "system", Content: sb.String()},
		{Role: "user", Content: user},
	}
}

// Temperature devuelve la temperatura de muestreo del modo.
func (PromptBuilder) Temperature(style string) float64 {
	if domain.StyleMode(style) == domain.StyleCold {
		return coldTemperature
	}
	return hotTemperature
}

// personaJSON serializa la persona incluyendo nombre y descripcion si el documento no los trae.
func personaJSON(c domain.Character) string {
	profile := make(map[string]any, len(c.Persona)+2)
	for k, v := range c.Persona {
		profile[k] = v
	}
	if _, ok := profile["name"]; !ok {
		profile["name"] = c.Name
	}
	if _, ok := profile["description"]; !ok && c.Description != "" {
		profile["description"] = c.Description
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Sprintf(`{"name":%q}`, c.Name)
	}
	return string(raw)
}
