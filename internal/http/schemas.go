package http

import (
	"time"

	"guru-chat/internal/domain"
)

// Requests

type createSessionRequest struct {
	UserID       string   `json:"user_id" binding:"required"`
	CharacterIDs []string `json:"character_ids"`
}

type updateTitleRequest struct {
	Title string `json:"title" binding:"required"`
}

type chatRequest struct {
	Content string `json:"content" binding:"required"`
	Style   string `json:"style"`
}

// Responses

type CharacterSummary struct {
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type SessionResponse struct {
	SessionID             string             `json:"session_id"`
	UserID                string             `json:"user_id"`
	Title                 string             `json:"title"`
	CreatedAt             time.Time          `json:"created_at"`
	CharacterDescriptions []CharacterSummary `json:"character_descriptions"`
}

type SessionInfo struct {
	SessionID  string             `json:"session_id"`
	Title      string             `json:"title"`
	CreatedAt  time.Time          `json:"created_at"`
	Characters []CharacterSummary `json:"characters"`
}

type SessionsResponse struct {
	SessionInfo []SessionInfo `json:"session_info"`
}

type DeleteSessionResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

type MessageInfo struct {
	MessageID int64             `json:"message_id"`
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	CreatedAt time.Time         `json:"created_at"`
	Character *CharacterSummary `json:"character"`
}

type MessagesResponse struct {
	Messages []MessageInfo `json:"messages"`
}

type CharactersResponse struct {
	Characters []CharacterSummary `json:"characters"`
}

func toCharacterSummary(c domain.Character) CharacterSummary {
	return CharacterSummary{
		CharacterID: c.ID,
		Name:        c.Name,
		Description: c.Description,
	}
}

func toCharacterSummaries(chars []domain.Character) []CharacterSummary {
	out := make([]CharacterSummary, 0, len(chars))
	for _, c := range chars {
		out = append(out, toCharacterSummary(c))
	}
	return out
}

func toSessionResponse(s *domain.Session) SessionResponse {
	return SessionResponse{
		SessionID:             s.ID,
		UserID:                s.UserID,
		Title:                 s.Title,
		CreatedAt:             s.CreatedAt,
		CharacterDescriptions: toCharacterSummaries(s.Characters),
	}
}

func toSessionsResponse(sessions []domain.Session) SessionsResponse {
	out := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionInfo{
			SessionID:  s.ID,
			Title:      s.Title,
			CreatedAt:  s.CreatedAt,
			Characters: toCharacterSummaries(s.Characters),
		})
	}
	return SessionsResponse{SessionInfo: out}
}

func toMessagesResponse(msgs []domain.Message) MessagesResponse {
	out := make([]MessageInfo, 0, len(msgs))
	for _, m := range msgs {
		info := MessageInfo{
			MessageID: m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
		if m.Character != nil {
			summary := toCharacterSummary(*m.Character)
			info.Character = &summary
		}
		out = append(out, info)
	}
	return MessagesResponse{Messages: out}
}
