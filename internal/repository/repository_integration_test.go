//go:build integration

package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"guru-chat/internal/db"
	"guru-chat/internal/domain"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("guru"),
		postgres.WithUsername("guru"),
		postgres.WithPassword("guru"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.EnsureSchema(ctx, pool))
	// Dos veces: el esquema debe ser idempotente.
	require.NoError(t, db.EnsureSchema(ctx, pool))
	return pool
}

func seedCharacter(t *testing.T, repo *PgCharacterRepository, name string) domain.Character {
	t.Helper()
	c, err := repo.Create(context.Background(), domain.Character{
		Name:        name,
		Description: name + " description",
		Persona:     domain.Persona{"tone": "calm", "signature_phrases": []any{"hodl"}},
	})
	require.NoError(t, err)
	return c
}

func TestRepositories(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	users := NewPgUserRepository(pool)
	chars := NewPgCharacterRepository(pool)
	sessions := NewPgSessionRepository(pool)
	messages := NewPgMessageRepository(pool)

	alice := seedCharacter(t, chars, "Alice")
	bob := seedCharacter(t, chars, "Bob")

	t.Run("ensure user is idempotent", func(t *testing.T) {
		first, err := users.Ensure(ctx, "u-idem")
		require.NoError(t, err)
		second, err := users.Ensure(ctx, "u-idem")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.True(t, first.CreatedAt.Equal(second.CreatedAt))

		var count int
		require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE id = $1`, "u-idem").Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("concurrent first sessions for a new user", func(t *testing.T) {
		const workers = 8
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := sessions.Create(ctx, "u-race", []string{alice.ID})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		var count int
		require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE id = $1`, "u-race").Scan(&count))
		assert.Equal(t, 1, count)

		list, err := sessions.ListByUser(ctx, "u-race")
		require.NoError(t, err)
		assert.Len(t, list, workers)
	})

	t.Run("character crud", func(t *testing.T) {
		got, err := chars.Get(ctx, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "calm", got.Persona["tone"])

		missing, err := chars.Get(ctx, "does-not-exist")
		require.NoError(t, err)
		assert.Nil(t, missing)

		updated, err := chars.UpdatePersona(ctx, bob.ID, domain.Persona{"tone": "blunt"})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "blunt", updated.Persona["tone"])

		none, err := chars.UpdatePersona(ctx, "does-not-exist", domain.Persona{})
		require.NoError(t, err)
		assert.Nil(t, none)

		all, err := chars.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("create session keeps character order", func(t *testing.T) {
		s, err := sessions.Create(ctx, "u1", []string{bob.ID, alice.ID, bob.ID})
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultSessionTitle, s.Title)

		loaded, err := sessions.Get(ctx, s.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		require.Len(t, loaded.Characters, 2)
		assert.Equal(t, bob.ID, loaded.Characters[0].ID)
		assert.Equal(t, alice.ID, loaded.Characters[1].ID)

		user, err := users.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.NotNil(t, user)
	})

	t.Run("create session rejects unknown characters", func(t *testing.T) {
		_, err := sessions.Create(ctx, "u-unknown", []string{alice.ID, "ghost"})
		require.ErrorIs(t, err, ErrUnknownCharacters)

		list, err := sessions.ListByUser(ctx, "u-unknown")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("list sessions newest first", func(t *testing.T) {
		first, err := sessions.Create(ctx, "u-list", []string{alice.ID})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		second, err := sessions.Create(ctx, "u-list", []string{alice.ID, bob.ID})
		require.NoError(t, err)

		list, err := sessions.ListByUser(ctx, "u-list")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)
		assert.Len(t, list[0].Characters, 2)
		assert.Len(t, list[1].Characters, 1)
	})

	t.Run("update title", func(t *testing.T) {
		s, err := sessions.Create(ctx, "u-title", []string{alice.ID})
		require.NoError(t, err)

		updated, err := sessions.UpdateTitle(ctx, s.ID, "Market talk")
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "Market talk", updated.Title)
		assert.Len(t, updated.Characters, 1)

		none, err := sessions.UpdateTitle(ctx, "missing", "x")
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("delete enforces ownership and cascades", func(t *testing.T) {
		s, err := sessions.Create(ctx, "owner", []string{alice.ID})
		require.NoError(t, err)
		_, err = messages.Create(ctx, s.ID, "hi", domain.RoleUser, nil)
		require.NoError(t, err)

		ok, err := sessions.Delete(ctx, s.ID, "intruder")
		require.NoError(t, err)
		assert.False(t, ok)
		still, err := sessions.Get(ctx, s.ID)
		require.NoError(t, err)
		assert.NotNil(t, still)

		ok, err = sessions.Delete(ctx, s.ID, "owner")
		require.NoError(t, err)
		assert.True(t, ok)

		msgs, err := messages.ListBySessionID(ctx, s.ID)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("messages oldest first with character", func(t *testing.T) {
		s, err := sessions.Create(ctx, "u-msg", []string{alice.ID})
		require.NoError(t, err)

		_, err = messages.Create(ctx, s.ID, "hi", domain.RoleUser, nil)
		require.NoError(t, err)
		charID := alice.ID
		_, err = messages.Create(ctx, s.ID, "hello", domain.RoleAssistant, &charID)
		require.NoError(t, err)

		// Mismo timestamp forzado: el id debe desempatar.
		_, err = pool.Exec(ctx, `UPDATE messages SET created_at = $1 WHERE session_id = $2`, time.Now().UTC(), s.ID)
		require.NoError(t, err)

		msgs, err := messages.ListBySessionID(ctx, s.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "hi", msgs[0].Content)
		assert.Nil(t, msgs[0].Character)
		assert.Equal(t, "hello", msgs[1].Content)
		require.NotNil(t, msgs[1].Character)
		assert.Equal(t, "Alice", msgs[1].Character.Name)
	})
}
