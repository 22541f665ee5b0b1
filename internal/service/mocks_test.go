package service

import (
	"context"
	"sync"
	"time"

	"guru-chat/internal/domain"
	"guru-chat/internal/repository"
)

type mockSessionRepo struct {
	sessions map[string]*domain.Session

	createErr    error
	getErr       error
	lastCreateID []string
	lastUserID   string
	updateCalls  int
}

func newMockSessionRepo(sessions ...*domain.Session) *mockSessionRepo {
	m := &mockSessionRepo{sessions: map[string]*domain.Session{}}
	for _, s := range sessions {
		m.sessions[s.ID] = s
	}
	return m
}

func (m *mockSessionRepo) Create(_ context.Context, userID string, characterIDs []string) (*domain.Session, error) {
	m.lastUserID = userID
	m.lastCreateID = characterIDs
	if m.createErr != nil {
		return nil, m.createErr
	}
	s := &domain.Session{ID: "s-new", UserID: userID, Title: domain.DefaultSessionTitle, CreatedAt: time.Now().UTC()}
	for _, id := range characterIDs {
		s.Characters = append(s.Characters, domain.Character{ID: id, Name: "name-" + id})
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *mockSessionRepo) ListByUser(_ context.Context, userID string) ([]domain.Session, error) {
	m.lastUserID = userID
	var out []domain.Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSessionRepo) Get(_ context.Context, id string) (*domain.Session, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.sessions[id], nil
}

func (m *mockSessionRepo) UpdateTitle(_ context.Context, id, title string) (*domain.Session, error) {
	m.updateCalls++
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	s.Title = title
	return s, nil
}

func (m *mockSessionRepo) Delete(_ context.Context, id, userID string) (bool, error) {
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return false, nil
	}
	delete(m.sessions, id)
	return true, nil
}

type mockMessageRepo struct {
	mu        sync.Mutex
	msgs      []domain.Message
	createErr error
	listErr   error
	nextID    int64
}

func (m *mockMessageRepo) Create(_ context.Context, sessionID, content, role string, characterID *string) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return domain.Message{}, m.createErr
	}
	m.nextID++
	msg := domain.Message{
		ID:          m.nextID,
		SessionID:   sessionID,
		Role:        role,
		Content:     content,
		CharacterID: characterID,
		CreatedAt:   time.Now().UTC(),
	}
	m.msgs = append(m.msgs, msg)
	return msg, nil
}

func (m *mockMessageRepo) ListBySessionID(_ context.Context, sessionID string) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Message
	for _, msg := range m.msgs {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *mockMessageRepo) stored() []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Message(nil), m.msgs...)
}

type mockCharacterRepo struct {
	chars []domain.Character
	err   error
}

func (m *mockCharacterRepo) List(context.Context) ([]domain.Character, error) {
	return m.chars, m.err
}

func (m *mockCharacterRepo) Get(_ context.Context, id string) (*domain.Character, error) {
	for _, c := range m.chars {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, m.err
}

func (m *mockCharacterRepo) Create(_ context.Context, c domain.Character) (domain.Character, error) {
	m.chars = append(m.chars, c)
	return c, m.err
}

func (m *mockCharacterRepo) UpdatePersona(_ context.Context, id string, persona domain.Persona) (*domain.Character, error) {
	for i := range m.chars {
		if m.chars[i].ID == id {
			m.chars[i].Persona = persona
			c := m.chars[i]
			return &c, nil
		}
	}
	return nil, m.err
}

func (m *mockCharacterRepo) FindByIDs(_ context.Context, ids []string) ([]domain.Character, error) {
	var out []domain.Character
	for _, id := range ids {
		for _, c := range m.chars {
			if c.ID == id {
				out = append(out, c)
			}
		}
	}
	return out, m.err
}

var (
	_ repository.SessionRepository   = (*mockSessionRepo)(nil)
	_ repository.MessageRepository   = (*mockMessageRepo)(nil)
	_ repository.CharacterRepository = (*mockCharacterRepo)(nil)
)
