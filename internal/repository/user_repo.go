package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"guru-chat/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Ensure(ctx context.Context, id string) (domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

// Ensure devuelve el usuario, creandolo si todavia no existe. Es idempotente.
func (r *PgUserRepository) Ensure(ctx context.Context, id string) (domain.User, error) {
	return ensureUser(ctx, r.pool, id, time.Now().UTC())
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
		SELECT id, created_at
		FROM users
		WHERE id = $1
	`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func ensureUser(ctx context.Context, q dbtx, id string, now time.Time) (domain.User, error) {
	// DO UPDATE devuelve la fila aunque la haya insertado otra transaccion concurrente.
	const query = `
		INSERT INTO users (id, created_at)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING id, created_at
	`
	var u domain.User
	if err := q.QueryRow(ctx, query, id, now).Scan(&u.ID, &u.CreatedAt); err != nil {
		return domain.User{}, err
	}
	return u, nil
}
