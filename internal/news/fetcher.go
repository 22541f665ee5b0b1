package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"guru-chat/internal/llm"
	"guru-chat/internal/metrics"
)

const (
	NoNewsText = "No relevant news found."

	queryRewritePrompt = "You are a Search Query Generator. Output ONLY the best English search query for the user's question."
)

// Fetcher convierte una pregunta en un bloque de noticias listo para el prompt.
type Fetcher struct {
	llmClient llm.LLMClient
	searcher  Searcher
	cache     Cache
	ttl       time.Duration
	logger    *zap.Logger
}

// NewFetcher arma el fetcher; llmClient y cache son opcionales.
func NewFetcher(llmClient llm.LLMClient, searcher Searcher, cache Cache, ttl time.Duration, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		llmClient: llmClient,
		searcher:  searcher,
		cache:     cache,
		ttl:       ttl,
		logger:    logger,
	}
}

// Formatted nunca falla: ante errores devuelve NoNewsText para no cortar la generacion.
func (f *Fetcher) Formatted(ctx context.Context, question string) string {
	key := cacheKey(question)
	if key == "" || f == nil || f.searcher == nil {
		return NoNewsText
	}

	if f.cache != nil {
		if cached, ok := f.cache.Get(ctx, key); ok {
			metrics.NewsCacheLookups.WithLabelValues("hit").Inc()
			return cached
		}
		metrics.NewsCacheLookups.WithLabelValues("miss").Inc()
	}

	query := f.rewriteQuery(ctx, question)
	results, err := f.searcher.Search(ctx, query)
	if err != nil {
		f.logger.Warn("news search failed", zap.String("query", query), zap.Error(err))
		return NoNewsText
	}
	if len(results) == 0 {
		return NoNewsText
	}

	text := FormatResults(results)
	if f.cache != nil {
		f.cache.Set(ctx, key, text, f.ttl)
	}
	return text
}

// rewriteQuery pide al LLM una consulta de busqueda en ingles; si falla usa la pregunta original.
func (f *Fetcher) rewriteQuery(ctx context.Context, question string) string {
	if f.llmClient == nil {
		return question
	}
	out, err := f.llmClient.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: queryRewritePrompt},
			{Role: "user", Content: question},
		},
		Temperature: llm.Temperature(0.1),
	})
	if err != nil {
		f.logger.Warn("news query rewrite failed", zap.Error(err))
		return question
	}
	query := strings.Trim(strings.TrimSpace(out), `"`)
	if query == "" {
		return question
	}
	return query
}

// FormatResults arma el bloque <LATEST_MARKET_NEWS> que consume el prompt.
func FormatResults(results []Result) string {
	var sb strings.Builder
	sb.WriteString("<LATEST_MARKET_NEWS>\n")
	for i, r := range results {
		source := r.Source
		if strings.TrimSpace(source) == "" {
			source = "Web"
		}
		date := r.Date
		if strings.TrimSpace(date) == "" {
			date = "Recent"
		}
		sb.WriteString(fmt.Sprintf("%d. [%s] %s (Source: %s)\n", i+1, date, r.Title, source))
		sb.WriteString(fmt.Sprintf("   - Summary: %s\n\n", r.Snippet))
	}
	sb.WriteString("</LATEST_MARKET_NEWS>")
	return sb.String()
}

func cacheKey(question string) string {
	return strings.ToLower(strings.Join(strings.Fields(question), " "))
}
