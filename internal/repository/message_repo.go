package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"guru-chat/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, sessionID, content, role string, characterID *string) (domain.Message, error)
	ListBySessionID(ctx context.Context, sessionID string) ([]domain.Message, error)
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Create(ctx context.Context, sessionID, content, role string, characterID *string) (domain.Message, error) {
	const query = `
		INSERT INTO messages (session_id, role, content, character_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	msg := domain.Message{
		SessionID:   sessionID,
		Role:        role,
		Content:     content,
		CharacterID: characterID,
		CreatedAt:   time.Now().UTC(),
	}
	err := r.pool.QueryRow(ctx, query,
		msg.SessionID,
		msg.Role,
		msg.Content,
		msg.CharacterID,
		msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// ListBySessionID devuelve los mensajes en orden cronologico; el id desempata timestamps iguales.
func (r *PgMessageRepository) ListBySessionID(ctx context.Context, sessionID string) ([]domain.Message, error) {
	const query = `
		SELECT m.id, m.session_id, m.role, m.content, m.character_id, m.created_at,
		       c.name, c.description, COALESCE(c.persona, '{}'::jsonb), c.created_at
		FROM messages m
		LEFT JOIN characters c ON c.id = m.character_id
		WHERE m.session_id = $1
		ORDER BY m.created_at ASC, m.id ASC
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		var (
			charName        *string
			charDescription *string
			charPersona     domain.Persona
			charCreatedAt   *time.Time
		)

		err = rows.Scan(
			&msg.ID,
			&msg.SessionID,
			&msg.Role,
			&msg.Content,
			&msg.CharacterID,
			&msg.CreatedAt,
			&charName,
			&charDescription,
			&charPersona,
			&charCreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if msg.CharacterID != nil && charName != nil {
			c := domain.Character{
				ID:      *msg.CharacterID,
				Name:    *charName,
				Persona: charPersona,
			}
			if charDescription != nil {
				c.Description = *charDescription
			}
			if charCreatedAt != nil {
				c.CreatedAt = *charCreatedAt
			}
			msg.Character = &c
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}
