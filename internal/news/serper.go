package news

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultSerperURL = "https://google.serper.dev/search"

// Result es una noticia devuelta por el buscador.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Date    string `json:"date"`
	Source  string `json:"source"`
}

// Searcher busca noticias recientes para una consulta.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// SerperClient implementa Searcher contra la API de Serper.dev.
type SerperClient struct {
	url    string
	apiKey string
	client *http.Client
}

func NewSerperClient(url, apiKey string) *SerperClient {
	if url == "" {
		url = DefaultSerperURL
	}
	return &SerperClient{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type serperRequest struct {
	Q   string `json:"q"`
	GL  string `json:"gl"`
	HL  string `json:"hl"`
	Num int    `json:"num"`
	TBS string `json:"tbs"`
}

type serperResponse struct {
	Organic []Result `json:"organic"`
}

// Search consulta resultados en ingles de las ultimas 24 horas.
func (c *SerperClient) Search(ctx context.Context, query string) ([]Result, error) {
	body, err := json.Marshal(serperRequest{Q: query, GL: "us", HL: "en", Num: 3, TBS: "qdr:d"})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("serper http error: status=%d", resp.StatusCode)
	}

	var sr serperResponse
	if err := json.Unmarshal(respBody, &sr); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return sr.Organic, nil
}
