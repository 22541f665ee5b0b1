package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"guru-chat/internal/domain"
)

type CharacterRepository interface {
	List(ctx context.Context) ([]domain.Character, error)
	Get(ctx context.Context, id string) (*domain.Character, error)
	Create(ctx context.Context, character domain.Character) (domain.Character, error)
	UpdatePersona(ctx context.Context, id string, persona domain.Persona) (*domain.Character, error)
	FindByIDs(ctx context.Context, ids []string) ([]domain.Character, error)
}

type PgCharacterRepository struct {
	pool *pgxpool.Pool
}

func NewPgCharacterRepository(pool *pgxpool.Pool) *PgCharacterRepository {
	return &PgCharacterRepository{pool: pool}
}

const characterColumns = `id, name, description, persona, created_at`

func (r *PgCharacterRepository) List(ctx context.Context) ([]domain.Character, error) {
	const query = `
		SELECT ` + characterColumns + `
		FROM characters
		ORDER BY created_at ASC, name ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chars := []domain.Character{}
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		chars = append(chars, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chars, nil
}

func (r *PgCharacterRepository) Get(ctx context.Context, id string) (*domain.Character, error) {
	const query = `
		SELECT ` + characterColumns + `
		FROM characters
		WHERE id = $1
	`
	c, err := scanCharacter(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserta un personaje. Si no trae id se genera uno.
func (r *PgCharacterRepository) Create(ctx context.Context, character domain.Character) (domain.Character, error) {
	const query = `
		INSERT INTO characters (id, name, description, persona, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if strings.TrimSpace(character.ID) == "" {
		character.ID = uuid.NewString()
	}
	if character.Persona == nil {
		character.Persona = domain.Persona{}
	}
	if character.CreatedAt.IsZero() {
		character.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, query,
		character.ID,
		character.Name,
		character.Description,
		character.Persona,
		character.CreatedAt,
	)
	if err != nil {
		return domain.Character{}, err
	}
	return character, nil
}

// UpdatePersona reemplaza el documento de persona. Devuelve nil si el personaje no existe.
func (r *PgCharacterRepository) UpdatePersona(ctx context.Context, id string, persona domain.Persona) (*domain.Character, error) {
	const query = `
		UPDATE characters
		SET persona = $1
		WHERE id = $2
		RETURNING ` + characterColumns
	if persona == nil {
		persona = domain.Persona{}
	}
	c, err := scanCharacter(r.pool.QueryRow(ctx, query, persona, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByIDs resuelve ids a personajes existentes respetando el orden de entrada.
// Los ids que no existen se omiten.
func (r *PgCharacterRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Character, error) {
	return findCharacters(ctx, r.pool, ids)
}

func findCharacters(ctx context.Context, q dbtx, ids []string) ([]domain.Character, error) {
	if len(ids) == 0 {
		return []domain.Character{}, nil
	}
	const query = `
		SELECT ` + characterColumns + `
		FROM characters
		WHERE id = ANY($1)
	`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]domain.Character, len(ids))
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	chars := make([]domain.Character, 0, len(byID))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			chars = append(chars, c)
		}
	}
	return chars, nil
}

func scanCharacter(row pgx.Row) (domain.Character, error) {
	var c domain.Character
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Persona,
		&c.CreatedAt,
	)
	if err != nil {
		return domain.Character{}, err
	}
	if c.Persona == nil {
		c.Persona = domain.Persona{}
	}
	return c, nil
}
