package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"guru-chat/internal/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Conversa con los personajes de una sesion",
	Long: `Abre una sesion (o reutiliza --session) y envia cada linea como mensaje.
Las respuestas se imprimen a medida que llegan, una linea por personaje.
Escribe /exit para salir.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringP("server", "s", "http://localhost:8080", "direccion del API")
	chatCmd.Flags().StringP("user", "u", "", "id de usuario (X-User-ID)")
	chatCmd.Flags().String("session", "", "sesion existente; si falta se crea una")
	chatCmd.Flags().String("style", domain.StyleCold, "estilo de respuesta ("+domain.StyleCold+", "+domain.StyleSpicy+")")
	chatCmd.Flags().StringSlice("character", nil, "ids de personajes para la sesion nueva")
	_ = chatCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(chatCmd)
}

type streamChunk struct {
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	Content     string `json:"content"`
}

type apiClient struct {
	baseURL string
	userID  string
	http    *http.Client
}

func runChat(cmd *cobra.Command, _ []string) error {
	server, _ := cmd.Flags().GetString("server")
	userID, _ := cmd.Flags().GetString("user")
	sessionID, _ := cmd.Flags().GetString("session")
	style, _ := cmd.Flags().GetString("style")
	characters, _ := cmd.Flags().GetStringSlice("character")

	client := &apiClient{
		baseURL: strings.TrimRight(server, "/"),
		userID:  userID,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if sessionID == "" {
		id, err := client.createSession(ctx, characters)
		if err != nil {
			return err
		}
		sessionID = id
		fmt.Fprintf(out, "session %s\n", sessionID)
	}

	in := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !in.Scan() {
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		if line == "/exit" {
			return nil
		}
		if err := client.chat(ctx, sessionID, line, style, out); err != nil {
			fmt.Fprintf(os.Stderr, "chat failed: %v\n", err)
		}
	}
}

func (c *apiClient) createSession(ctx context.Context, characterIDs []string) (string, error) {
	body, _ := json.Marshal(map[string]any{"user_id": c.userID, "character_ids": characterIDs})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/sessions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", apiError(resp)
	}
	var created struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode session: %w", err)
	}
	return created.SessionID, nil
}

func (c *apiClient) chat(ctx context.Context, sessionID, content, style string, out io.Writer) error {
	body, _ := json.Marshal(map[string]string{"content": content, "style": style})
	url := fmt.Sprintf("%s/api/sessions/chat/%s/chat", c.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("X-User-ID", c.userID)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return renderStream(resp.Body, out)
}

// renderStream imprime cada turno como "[Nombre] texto" y cierra la linea en el chunk de fin de turno.
func renderStream(r io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(r)
	speaking := false
	for sc.Scan() {
		chunk, ok := parseEvent(sc.Text())
		if !ok {
			continue
		}
		if chunk.CharacterID == "" {
			if speaking {
				fmt.Fprintln(out)
			}
			speaking = false
			continue
		}
		if !speaking {
			fmt.Fprintf(out, "[%s] ", chunk.Name)
			speaking = true
		}
		fmt.Fprint(out, chunk.Content)
	}
	return sc.Err()
}

func parseEvent(line string) (streamChunk, bool) {
	data, ok := strings.CutPrefix(line, "data: ")
	if !ok {
		return streamChunk{}, false
	}
	var chunk streamChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return streamChunk{}, false
	}
	return chunk, true
}

func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Error == "" {
		body.Error = resp.Status
	}
	return fmt.Errorf("api error %d: %s", resp.StatusCode, body.Error)
}
