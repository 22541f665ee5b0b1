package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"guru-chat/internal/domain"
)

// ErrUnknownCharacters se devuelve cuando alguno de los ids pedidos no existe.
var ErrUnknownCharacters = errors.New("unknown character ids")

type SessionRepository interface {
	Create(ctx context.Context, userID string, characterIDs []string) (*domain.Session, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Session, error)
	Get(ctx context.Context, id string) (*domain.Session, error)
	UpdateTitle(ctx context.Context, id, title string) (*domain.Session, error)
	Delete(ctx context.Context, id, userID string) (bool, error)
}

type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

// Create asegura el usuario, resuelve los personajes y crea la sesion con sus filas de union,
// todo en una transaccion. Si algun id no existe no se escribe nada.
func (r *PgSessionRepository) Create(ctx context.Context, userID string, characterIDs []string) (*domain.Session, error) {
	now := time.Now().UTC()
	ids := uniqueIDs(characterIDs)

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := ensureUser(ctx, tx, userID, now); err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}

	chars, err := findCharacters(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve characters: %w", err)
	}
	if len(chars) != len(ids) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCharacters, strings.Join(missingIDs(ids, chars), ", "))
	}

	session := domain.Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      domain.DefaultSessionTitle,
		Characters: chars,
		CreatedAt:  now,
	}

	const insertSession = `
		INSERT INTO sessions (id, user_id, title, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, insertSession, session.ID, session.UserID, session.Title, session.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	const insertLink = `
		INSERT INTO session_characters (session_id, character_id, position)
		VALUES ($1, $2, $3)
	`
	for i, c := range chars {
		if _, err := tx.Exec(ctx, insertLink, session.ID, c.ID, i); err != nil {
			return nil, fmt.Errorf("link character %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &session, nil
}

// ListByUser devuelve las sesiones del usuario, las mas recientes primero,
// con sus personajes cargados en una sola consulta adicional.
func (r *PgSessionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	const query = `
		SELECT id, user_id, title, created_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	bySession, err := loadSessionCharacters(ctx, r.pool, ids)
	if err != nil {
		return nil, fmt.Errorf("load characters: %w", err)
	}
	for i := range sessions {
		sessions[i].Characters = charactersOrEmpty(bySession[sessions[i].ID])
	}
	return sessions, nil
}

// Get devuelve la sesion con sus personajes o nil si no existe.
func (r *PgSessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	const query = `
		SELECT id, user_id, title, created_at
		FROM sessions
		WHERE id = $1
	`
	var s domain.Session
	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	bySession, err := loadSessionCharacters(ctx, r.pool, []string{s.ID})
	if err != nil {
		return nil, fmt.Errorf("load characters: %w", err)
	}
	s.Characters = charactersOrEmpty(bySession[s.ID])
	return &s, nil
}

// UpdateTitle cambia el titulo y devuelve la sesion refrescada, o nil si no existe.
func (r *PgSessionRepository) UpdateTitle(ctx context.Context, id, title string) (*domain.Session, error) {
	const query = `
		UPDATE sessions
		SET title = $1
		WHERE id = $2
		RETURNING id, user_id, title, created_at
	`
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var s domain.Session
	err = tx.QueryRow(ctx, query, title, id).Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	bySession, err := loadSessionCharacters(ctx, tx, []string{s.ID})
	if err != nil {
		return nil, fmt.Errorf("load characters: %w", err)
	}
	s.Characters = charactersOrEmpty(bySession[s.ID])

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &s, nil
}

// Delete borra la sesion solo si pertenece al usuario indicado.
func (r *PgSessionRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	const query = `
		DELETE FROM sessions
		WHERE id = $1 AND user_id = $2
	`
	tag, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func loadSessionCharacters(ctx context.Context, q dbtx, sessionIDs []string) (map[string][]domain.Character, error) {
	const query = `
		SELECT sc.session_id, c.id, c.name, c.description, c.persona, c.created_at
		FROM session_characters sc
		JOIN characters c ON c.id = sc.character_id
		WHERE sc.session_id = ANY($1)
		ORDER BY sc.session_id, sc.position ASC
	`
	rows, err := q.Query(ctx, query, sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.Character, len(sessionIDs))
	for rows.Next() {
		var sessionID string
		var c domain.Character
		if err := rows.Scan(&sessionID, &c.ID, &c.Name, &c.Description, &c.Persona, &c.CreatedAt); err != nil {
			return nil, err
		}
		if c.Persona == nil {
			c.Persona = domain.Persona{}
		}
		out[sessionID] = append(out[sessionID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func missingIDs(ids []string, found []domain.Character) []string {
	present := make(map[string]struct{}, len(found))
	for _, c := range found {
		present[c.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func charactersOrEmpty(chars []domain.Character) []domain.Character {
	if chars == nil {
		return []domain.Character{}
	}
	return chars
}
