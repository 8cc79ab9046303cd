package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// UploadRateLimiter limita la cantidad de subidas por cliente en una
// ventana de tiempo. La clave es la IP del cliente. Fail-open: si el
// limitador no puede decidir, la subida pasa.
type UploadRateLimiter interface {
	Allow(key string) bool
}

// limiterBounds normaliza ventana y cupo a minimos sanos, compartido por
// ambas implementaciones.
func limiterBounds(window time.Duration, max int) (time.Duration, int) {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return window, max
}

func limiterKey(key string) string {
	return strings.TrimSpace(key)
}

type memoryUploadRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
}

// NewUploadRateLimiter crea el limitador en memoria (ventana deslizante),
// usado cuando no hay redis configurado.
func NewUploadRateLimiter(window time.Duration, max int) UploadRateLimiter {
	window, max = limiterBounds(window, max)
	return &memoryUploadRateLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
	}
}

func (l *memoryUploadRateLimiter) Allow(key string) bool {
	clientKey := limiterKey(key)
	if clientKey == "" {
		return false
	}
	now := time.Now().UTC()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.hits[clientKey][:0]
	for _, at := range l.hits[clientKey] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	if len(kept) >= l.max {
		l.hits[clientKey] = kept
		return false
	}
	l.hits[clientKey] = append(kept, now)
	return true
}

// Ventana fija en redis: un contador por cliente que expira solo cuando se
// abre la ventana.
const uploadWindowScript = `
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return hits
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisUploadRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
	logger *zap.Logger
}

// NewRedisUploadRateLimiter crea el limitador compartido entre instancias
// del gateway, con la misma semantica fail-open que el de memoria.
func NewRedisUploadRateLimiter(client *redis.Client, window time.Duration, max int, logger *zap.Logger) UploadRateLimiter {
	if client == nil {
		return nil
	}
	window, max = limiterBounds(window, max)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisUploadRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "upload:rl:",
		logger: logger,
	}
}

func (l *redisUploadRateLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	clientKey := limiterKey(key)
	if clientKey == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	hits, err := l.client.Eval(ctx, uploadWindowScript, []string{l.prefix + clientKey}, seconds).Int()
	if err != nil {
		// Sin redis no se frenan subidas; queda anotado para diagnostico.
		l.logger.Warn("upload limiter unavailable", zap.Error(err))
		return true
	}
	return hits <= l.max
}
