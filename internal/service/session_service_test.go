package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"guru-chat/internal/domain"
	"guru-chat/internal/repository"
)

func newTestSessionService(sessions *mockSessionRepo, msgs *mockMessageRepo) *SessionService {
	return NewSessionService(sessions, msgs, &mockCharacterRepo{chars: []domain.Character{{ID: "c1", Name: "Buffett"}}})
}

func TestSessionServiceCreate_NormalizesInput(t *testing.T) {
	repo := newMockSessionRepo()
	svc := newTestSessionService(repo, &mockMessageRepo{})

	s, err := svc.Create(context.Background(), " u1 ", []string{" c1 "})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.lastUserID != "u1" || len(repo.lastCreateID) != 1 || repo.lastCreateID[0] != "c1" {
		t.Fatalf("expected trimmed input, got user=%q ids=%+v", repo.lastUserID, repo.lastCreateID)
	}
	if s.Title != domain.DefaultSessionTitle {
		t.Fatalf("expected default title, got %q", s.Title)
	}
}

func TestSessionServiceCreate_Validation(t *testing.T) {
	svc := newTestSessionService(newMockSessionRepo(), &mockMessageRepo{})

	if _, err := svc.Create(context.Background(), "  ", []string{"c1"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank user, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "u1", []string{"c1", " "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank character id, got %v", err)
	}
}

func TestSessionServiceCreate_UnknownCharacters(t *testing.T) {
	repo := newMockSessionRepo()
	repo.createErr = fmt.Errorf("%w: ghost", repository.ErrUnknownCharacters)
	svc := newTestSessionService(repo, &mockMessageRepo{})

	if _, err := svc.Create(context.Background(), "u1", []string{"ghost"}); !errors.Is(err, ErrUnknownCharacters) {
		t.Fatalf("expected ErrUnknownCharacters, got %v", err)
	}
}

func TestSessionServiceRename(t *testing.T) {
	repo := newMockSessionRepo(&domain.Session{ID: "s1", UserID: "u1", Title: "New Chat"})
	svc := newTestSessionService(repo, &mockMessageRepo{})

	t.Run("owner renames", func(t *testing.T) {
		s, err := svc.Rename(context.Background(), "s1", "u1", " Market talk ")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s.Title != "Market talk" {
			t.Fatalf("expected trimmed title, got %q", s.Title)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		if _, err := svc.Rename(context.Background(), "nope", "u1", "x"); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("foreign session", func(t *testing.T) {
		calls := repo.updateCalls
		if _, err := svc.Rename(context.Background(), "s1", "u2", "x"); !errors.Is(err, ErrSessionForbidden) {
			t.Fatalf("expected ErrSessionForbidden, got %v", err)
		}
		if repo.updateCalls != calls {
			t.Fatalf("foreign rename must not touch the title")
		}
	})

	t.Run("blank title", func(t *testing.T) {
		if _, err := svc.Rename(context.Background(), "s1", "u1", "  "); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestSessionServiceDelete(t *testing.T) {
	repo := newMockSessionRepo(&domain.Session{ID: "s1", UserID: "u1"})
	svc := newTestSessionService(repo, &mockMessageRepo{})

	if err := svc.Delete(context.Background(), "s1", "u2"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for foreign delete, got %v", err)
	}
	if _, ok := repo.sessions["s1"]; !ok {
		t.Fatalf("foreign delete must not remove the session")
	}
	if err := svc.Delete(context.Background(), "s1", "u1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := svc.Delete(context.Background(), "s1", "u1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestSessionServiceMessages(t *testing.T) {
	repo := newMockSessionRepo(&domain.Session{ID: "s1", UserID: "u1"})
	msgs := &mockMessageRepo{}
	_, _ = msgs.Create(context.Background(), "s1", "hola", domain.RoleUser, nil)
	svc := newTestSessionService(repo, msgs)

	out, err := svc.Messages(context.Background(), "s1", "u1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(out) != 1 || out[0].Content != "hola" {
		t.Fatalf("unexpected messages %+v", out)
	}

	if _, err := svc.Messages(context.Background(), "s1", "u2"); !errors.Is(err, ErrSessionForbidden) {
		t.Fatalf("expected ErrSessionForbidden, got %v", err)
	}
	if _, err := svc.Messages(context.Background(), "missing", "u1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionServiceList_EmptyIsNotNil(t *testing.T) {
	svc := newTestSessionService(newMockSessionRepo(), &mockMessageRepo{})
	out, err := svc.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty list, got %+v", out)
	}
}

func TestSessionService_NotConfigured(t *testing.T) {
	var svc *SessionService
	if _, err := svc.Create(context.Background(), "u1", nil); !errors.Is(err, ErrSessionServiceNotConfigured) {
		t.Fatalf("expected ErrSessionServiceNotConfigured, got %v", err)
	}
	svc = NewSessionService(nil, nil, nil)
	if _, err := svc.Characters(context.Background()); !errors.Is(err, ErrSessionServiceNotConfigured) {
		t.Fatalf("expected ErrSessionServiceNotConfigured, got %v", err)
	}
}
