package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ChatLock serializa los turnos de chat de una misma sesion.
// Acquire devuelve un token que solo su dueño puede usar para renovar o liberar.
type ChatLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Refresh(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
}

type lockEntry struct {
	token   string
	expires time.Time
}

type memoryChatLock struct {
	mu    sync.Mutex
	items map[string]lockEntry
}

func NewMemoryChatLock() ChatLock {
	return &memoryChatLock{
		items: make(map[string]lockEntry),
	}
}

func (l *memoryChatLock) Acquire(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	if cur, ok := l.items[key]; ok && now.Before(cur.expires) {
		return "", false, nil
	}
	token := uuid.NewString()
	l.items[key] = lockEntry{token: token, expires: now.Add(ttl)}
	return token, true, nil
}

// Refresh extiende el vencimiento si el lock sigue siendo del token y no expiro.
func (l *memoryChatLock) Refresh(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	cur, ok := l.items[key]
	if !ok || cur.token != token || !now.Before(cur.expires) {
		return false, nil
	}
	cur.expires = now.Add(ttl)
	l.items[key] = cur
	return true, nil
}

func (l *memoryChatLock) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.items[key]; ok && cur.token == token {
		delete(l.items, key)
	}
	return nil
}

// Borra la clave solo si sigue guardando el token del dueño.
const redisChatUnlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const redisChatRefreshScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`

type redisLocker interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisChatLock struct {
	client redisLocker
	prefix string
}

func NewRedisChatLock(client *redis.Client) ChatLock {
	if client == nil {
		return nil
	}
	return &redisChatLock{
		client: client,
		prefix: "chat:lock:",
	}
}

func (l *redisChatLock) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, nil
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.prefix+key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *redisChatLock) Refresh(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if strings.TrimSpace(key) == "" || token == "" {
		return false, nil
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	n, err := l.client.Eval(ctx, redisChatRefreshScript, []string{l.prefix + key}, token, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (l *redisChatLock) Release(ctx context.Context, key, token string) error {
	if strings.TrimSpace(key) == "" || token == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return l.client.Eval(ctx, redisChatUnlockScript, []string{l.prefix + key}, token).Err()
}
