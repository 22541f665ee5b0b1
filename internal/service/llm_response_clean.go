package service

import (
	"regexp"
	"strings"
)

var (
	reThinkBlock = regexp.MustCompile(`(?is)<think>.*?</think>`)
	reFenceStart = regexp.MustCompile("(?is)^\\s*```[a-z]*\\s*")
	reFenceEnd   = regexp.MustCompile("(?is)\\s*```\\s*$")
)

// cleanLLMReply quita BOM, bloques <think> y fences ``` que algunos modelos agregan a la respuesta.
func cleanLLMReply(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	s = strings.TrimPrefix(s, "\uFEFF")
	s = reThinkBlock.ReplaceAllString(s, "")
	s = reFenceStart.ReplaceAllString(s, "")
	s = reFenceEnd.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
