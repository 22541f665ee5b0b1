package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"guru-chat/internal/domain"
	"guru-chat/internal/repository"
)

// SessionService aplica las reglas de pertenencia sobre sesiones, mensajes y personajes.
type SessionService struct {
	sessions   repository.SessionRepository
	messages   repository.MessageRepository
	characters repository.CharacterRepository
}

var (
	ErrSessionServiceNotConfigured = errors.New("session service not configured")
	ErrInvalidInput                = errors.New("invalid input")
	ErrSessionNotFound             = errors.New("session not found")
	ErrSessionForbidden            = errors.New("session belongs to another user")
	ErrUnknownCharacters           = repository.ErrUnknownCharacters
)

func NewSessionService(
	sessions repository.SessionRepository,
	messages repository.MessageRepository,
	characters repository.CharacterRepository,
) *SessionService {
	return &SessionService{
		sessions:   sessions,
		messages:   messages,
		characters: characters,
	}
}

func (s *SessionService) configured() bool {
	return s != nil && s.sessions != nil && s.messages != nil && s.characters != nil
}

// Create crea una sesion para userID con los personajes dados. El usuario se crea si no existe.
func (s *SessionService) Create(ctx context.Context, userID string, characterIDs []string) (*domain.Session, error) {
	if !s.configured() {
		return nil, ErrSessionServiceNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	ids := make([]string, 0, len(characterIDs))
	for _, id := range characterIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, ErrInvalidInput
		}
		ids = append(ids, id)
	}

	session, err := s.sessions.Create(ctx, userID, ids)
	if err != nil {
		if errors.Is(err, ErrUnknownCharacters) {
			return nil, err
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (s *SessionService) List(ctx context.Context, userID string) ([]domain.Session, error) {
	if !s.configured() {
		return nil, ErrSessionServiceNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	return sessions, nil
}

// Rename distingue sesion inexistente (404) de sesion ajena (403).
func (s *SessionService) Rename(ctx context.Context, sessionID, userID, title string) (*domain.Session, error) {
	if !s.configured() {
		return nil, ErrSessionServiceNotConfigured
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.owned(ctx, sessionID, userID); err != nil {
		return nil, err
	}

	updated, err := s.sessions.UpdateTitle(ctx, strings.TrimSpace(sessionID), title)
	if err != nil {
		return nil, fmt.Errorf("update title: %w", err)
	}
	if updated == nil {
		return nil, ErrSessionNotFound
	}
	return updated, nil
}

// Delete no distingue entre inexistente y ajena: ambas son ErrSessionNotFound.
func (s *SessionService) Delete(ctx context.Context, sessionID, userID string) error {
	if !s.configured() {
		return ErrSessionServiceNotConfigured
	}
	deleted, err := s.sessions.Delete(ctx, strings.TrimSpace(sessionID), strings.TrimSpace(userID))
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if !deleted {
		return ErrSessionNotFound
	}
	return nil
}

func (s *SessionService) Messages(ctx context.Context, sessionID, userID string) ([]domain.Message, error) {
	if !s.configured() {
		return nil, ErrSessionServiceNotConfigured
	}
	session, err := s.owned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListBySessionID(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}

func (s *SessionService) Characters(ctx context.Context) ([]domain.Character, error) {
	if !s.configured() {
		return nil, ErrSessionServiceNotConfigured
	}
	chars, err := s.characters.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	if chars == nil {
		chars = []domain.Character{}
	}
	return chars, nil
}

func (s *SessionService) owned(ctx context.Context, sessionID, userID string) (*domain.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if !session.OwnedBy(strings.TrimSpace(userID)) {
		return nil, ErrSessionForbidden
	}
	return session, nil
}
