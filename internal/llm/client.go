package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LLMClient define la interfaz para obtener completions de un LLM.
type LLMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Message es un turno de la conversacion enviada al modelo.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest agrupa los mensajes y la temperatura de una llamada.
type CompletionRequest struct {
	Messages    []Message
	Temperature *float64
}

// Temperature devuelve un puntero al valor, util para armar CompletionRequest.
func Temperature(v float64) *float64 {
	return &v
}

// HTTPClient implementa LLMClient usando una API compatible con OpenAI.
type HTTPClient struct {
	baseURL   string
	apiKey    string
	keyHeader string
	model     string
	client    *http.Client
	logger    *zap.Logger
}

// NewHTTPClient construye un cliente HTTP apuntando a la API de chat completions.
// keyHeader "Authorization" usa esquema Bearer; cualquier otro header lleva la key tal cual.
func NewHTTPClient(baseURL, apiKey, keyHeader, model string, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if keyHeader == "" {
		keyHeader = "Authorization"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		keyHeader: keyHeader,
		model:     model,
		client:    &http.Client{Timeout: 60 * time.Second},
		logger:    logger,
	}
}

func (c *HTTPClient) Complete(ctx context.Context, in CompletionRequest) (string, error) {
	if len(in.Messages) == 0 {
		return "", fmt.Errorf("llm request without messages")
	}
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    in.Messages,
		Temperature: in.Temperature,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if strings.EqualFold(c.keyHeader, "Authorization") {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	} else {
		req.Header.Set(c.keyHeader, c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("llm error status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return "", fmt.Errorf("llm http error: status=%d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if cr.Error != nil {
		return "", fmt.Errorf("llm api error: %s", cr.Error.Message)
	}

	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("llm empty response")
	}

	return cr.Choices[0].Message.Content, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
