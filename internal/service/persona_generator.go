package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"guru-chat/internal/domain"
	"guru-chat/internal/llm"
	"guru-chat/internal/news"
)

var ErrEmptyReply = errors.New("llm returned empty reply")

// NewsSource entrega el bloque de noticias para una pregunta. *news.Fetcher lo implementa.
type NewsSource interface {
	Formatted(ctx context.Context, question string) string
}

// PersonaGenerator genera la respuesta de un personaje con el LLM, aumentada con noticias en modo cold.
type PersonaGenerator struct {
	client  llm.LLMClient
	news    NewsSource
	prompts PromptBuilder
	logger  *zap.Logger
}

func NewPersonaGenerator(client llm.LLMClient, newsSource NewsSource, logger *zap.Logger) *PersonaGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersonaGenerator{
		client:  client,
		news:    newsSource,
		prompts: PromptBuilder{},
		logger:  logger,
	}
}

func (g *PersonaGenerator) Reply(ctx context.Context, req llm.ReplyRequest) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("persona generator not configured")
	}

	newsText := noNewsHotText
	if domain.WantsNews(req.Style) {
		newsText = news.NoNewsText
		if g.news != nil {
			newsText = g.news.Formatted(ctx, req.Content)
		}
	}

	messages := g.prompts.Build(req.Character, req.Style, newsText, req.History, req.Content)
	g.logger.Debug("generating reply",
		zap.String("character_id", req.Character.ID),
		zap.String("mode", domain.StyleMode(req.Style)),
	)

	out, err := g.client.Complete(ctx, llm.CompletionRequest{
		Messages:    messages,
		Temperature: llm.Temperature(g.prompts.Temperature(req.Style)),
	})
	if err != nil {
		return "", fmt.Errorf("llm complete: %w", err)
	}
	reply := cleanLLMReply(out)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

var _ llm.Generator = (*PersonaGenerator)(nil)
