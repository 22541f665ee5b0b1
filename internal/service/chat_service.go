package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"guru-chat/internal/domain"
	"guru-chat/internal/llm"
	"guru-chat/internal/metrics"
	"guru-chat/internal/repository"
)

var (
	ErrChatServiceNotConfigured = errors.New("chat service not configured")
	ErrNoCharacters             = errors.New("no characters in session")
	ErrSessionBusy              = errors.New("session already has a reply in progress")
	ErrRateLimited              = errors.New("too many chat requests")
)

// EndOfTurn es el contenido del chunk que cierra el turno de un personaje.
const EndOfTurn = " "

// Chunk es una unidad del stream. El chunk de fin de turno solo lleva Content.
type Chunk struct {
	CharacterID string `json:"character_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Content     string `json:"content"`
}

// EmitFunc entrega un chunk al cliente. Un error corta el stream.
type EmitFunc func(Chunk) error

// ChatTurn es un turno aceptado por Begin y pendiente de Stream.
type ChatTurn struct {
	Session *domain.Session
	Content string
	Style   string
	History string

	lockToken string
}

// ChatOptions agrupa los colaboradores opcionales del chat.
type ChatOptions struct {
	Context    ContextService
	Lock       ChatLock
	Limiter    ChatRateLimiter
	TokenDelay time.Duration
	LockTTL    time.Duration
}

// ChatService orquesta un turno de chat: valida, persiste el mensaje del usuario y
// transmite la respuesta de cada personaje en orden.
type ChatService struct {
	logger     *zap.Logger
	sessions   repository.SessionRepository
	messages   repository.MessageRepository
	generator  llm.Generator
	contextSvc ContextService
	lock       ChatLock
	limiter    ChatRateLimiter
	tokenDelay time.Duration
	lockTTL    time.Duration
}

func NewChatService(
	logger *zap.Logger,
	sessions repository.SessionRepository,
	messages repository.MessageRepository,
	generator llm.Generator,
	opts ChatOptions,
) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if generator == nil {
		generator = llm.EchoGenerator{}
	}
	if opts.Lock == nil {
		opts.Lock = NewMemoryChatLock()
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * time.Minute
	}
	return &ChatService{
		logger:     logger,
		sessions:   sessions,
		messages:   messages,
		generator:  generator,
		contextSvc: opts.Context,
		lock:       opts.Lock,
		limiter:    opts.Limiter,
		tokenDelay: opts.TokenDelay,
		lockTTL:    opts.LockTTL,
	}
}

// Begin valida el turno y persiste el mensaje del usuario antes de que empiece el stream.
// Una sesion ajena se reporta como inexistente y no se escribe nada.
func (s *ChatService) Begin(ctx context.Context, sessionID, userID, content, style string) (*ChatTurn, error) {
	if s == nil || s.sessions == nil || s.messages == nil {
		return nil, ErrChatServiceNotConfigured
	}
	turn, err := s.begin(ctx, strings.TrimSpace(sessionID), strings.TrimSpace(userID), strings.TrimSpace(content), style)
	if err != nil {
		metrics.ChatStreamsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	return turn, nil
}

func (s *ChatService) begin(ctx context.Context, sessionID, userID, content, style string) (*ChatTurn, error) {
	if content == "" {
		return nil, ErrInvalidInput
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil || !session.OwnedBy(userID) {
		return nil, ErrSessionNotFound
	}
	if len(session.Characters) == 0 {
		return nil, ErrNoCharacters
	}

	token, ok, err := s.lock.Acquire(ctx, session.ID, s.lockTTL)
	if err != nil {
		s.logger.Warn("chat lock unavailable, continuing unlocked", zap.String("session_id", session.ID), zap.Error(err))
	} else if !ok {
		return nil, ErrSessionBusy
	}

	turn := &ChatTurn{
		Session:   session,
		Content:   content,
		Style:     style,
		lockToken: token,
	}

	// El limite se cobra con el lock tomado: un 409 no consume cupo.
	if s.limiter != nil && !s.limiter.Allow(userID) {
		s.release(turn)
		return nil, ErrRateLimited
	}

	if s.contextSvc != nil {
		history, err := s.contextSvc.GetContext(ctx, session.ID)
		if err != nil {
			s.logger.Warn("load chat context failed", zap.String("session_id", session.ID), zap.Error(err))
		}
		turn.History = history
	}

	if _, err := s.messages.Create(ctx, session.ID, content, domain.RoleUser, nil); err != nil {
		s.release(turn)
		return nil, fmt.Errorf("save user message: %w", err)
	}
	return turn, nil
}

// Stream emite la respuesta de cada personaje, chunk por chunk, seguida del chunk de fin de turno,
// y persiste la respuesta completa. Los personajes se procesan en secuencia.
// Si el cliente se desconecta se persiste la respuesta del personaje en curso y se corta.
func (s *ChatService) Stream(ctx context.Context, turn *ChatTurn, emit EmitFunc) error {
	if s == nil || turn == nil || turn.Session == nil {
		return ErrChatServiceNotConfigured
	}
	defer s.release(turn)

	for _, character := range turn.Session.Characters {
		if err := ctx.Err(); err != nil {
			metrics.ChatStreamsTotal.WithLabelValues("cancelled").Inc()
			return err
		}
		s.refresh(ctx, turn)

		reply := s.generate(ctx, turn, character)
		if err := ctx.Err(); err != nil {
			metrics.ChatStreamsTotal.WithLabelValues("cancelled").Inc()
			return err
		}

		emitErr := s.emitReply(ctx, character, reply, emit)
		if emitErr == nil {
			emitErr = emit(Chunk{Content: EndOfTurn})
			if emitErr == nil {
				metrics.ChatChunksEmitted.Inc()
			}
		}

		s.persistReply(context.WithoutCancel(ctx), turn.Session.ID, character, reply)

		if emitErr != nil {
			metrics.ChatStreamsTotal.WithLabelValues("cancelled").Inc()
			s.logger.Info("chat stream stopped",
				zap.String("session_id", turn.Session.ID),
				zap.String("character_id", character.ID),
				zap.Error(emitErr),
			)
			return emitErr
		}
	}

	metrics.ChatStreamsTotal.WithLabelValues("completed").Inc()
	return nil
}

func (s *ChatService) generate(ctx context.Context, turn *ChatTurn, character domain.Character) string {
	reply, err := s.generator.Reply(ctx, llm.ReplyRequest{
		Character: character,
		Style:     turn.Style,
		Content:   turn.Content,
		History:   turn.History,
	})
	if err == nil && strings.TrimSpace(reply) != "" {
		return reply
	}
	if ctx.Err() == nil {
		metrics.ChatGenerationFailures.Inc()
		s.logger.Error("generate reply failed",
			zap.String("session_id", turn.Session.ID),
			zap.String("character_id", character.ID),
			zap.Error(err),
		)
	}
	return fallbackReply(character)
}

// emitReply envia una runa por chunk, espaciadas por tokenDelay.
func (s *ChatService) emitReply(ctx context.Context, character domain.Character, reply string, emit EmitFunc) error {
	var timer *time.Timer
	if s.tokenDelay > 0 {
		timer = time.NewTimer(s.tokenDelay)
		defer timer.Stop()
	}

	for i, r := range []rune(reply) {
		if timer != nil {
			if i > 0 {
				timer.Reset(s.tokenDelay)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if err := emit(Chunk{CharacterID: character.ID, Name: character.Name, Content: string(r)}); err != nil {
			return err
		}
		metrics.ChatChunksEmitted.Inc()
	}
	return nil
}

// persistReply registra y descarta los errores: el stream no se corta por esto.
func (s *ChatService) persistReply(ctx context.Context, sessionID string, character domain.Character, reply string) {
	characterID := character.ID
	if _, err := s.messages.Create(ctx, sessionID, reply, domain.RoleAssistant, &characterID); err != nil {
		metrics.AssistantPersistFailures.Inc()
		s.logger.Error("save assistant message failed",
			zap.String("session_id", sessionID),
			zap.String("character_id", characterID),
			zap.Error(err),
		)
	}
}

func (s *ChatService) release(turn *ChatTurn) {
	if turn.lockToken == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.lock.Release(ctx, turn.Session.ID, turn.lockToken); err != nil {
		s.logger.Warn("release chat lock failed", zap.String("session_id", turn.Session.ID), zap.Error(err))
	}
	turn.lockToken = ""
}

// refresh renueva el lock antes de cada personaje para que no expire a mitad del stream.
func (s *ChatService) refresh(ctx context.Context, turn *ChatTurn) {
	if turn.lockToken == "" {
		return
	}
	ok, err := s.lock.Refresh(ctx, turn.Session.ID, turn.lockToken, s.lockTTL)
	if err != nil {
		s.logger.Warn("refresh chat lock failed", zap.String("session_id", turn.Session.ID), zap.Error(err))
		return
	}
	if !ok {
		s.logger.Warn("chat lock lost", zap.String("session_id", turn.Session.ID))
	}
}

func fallbackReply(character domain.Character) string {
	return fmt.Sprintf("%s cannot answer right now. Please try again in a moment.", character.Name)
}
