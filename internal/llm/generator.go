package llm

import (
	"context"
	"fmt"

	"guru-chat/internal/domain"
)

// Generator produce la respuesta completa de un personaje a un mensaje del usuario.
type Generator interface {
	Reply(ctx context.Context, req ReplyRequest) (string, error)
}

// ReplyRequest es la entrada de una generacion para un personaje.
type ReplyRequest struct {
	Character domain.Character
	Style     string
	Content   string
	History   string
}

// EchoGenerator es el generador de marcador: responde con un texto deterministico sin I/O.
type EchoGenerator struct{}

func (EchoGenerator) Reply(_ context.Context, req ReplyRequest) (string, error) {
	return fmt.Sprintf("I am %s. Replying to your message: %s", req.Character.Name, req.Content), nil
}
