package ws

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LocalPresence conta espectadores em memória (instância única e testes)
type LocalPresence struct {
	mu sync.Mutex
	n  map[string]int
}

func NewLocalPresence() *LocalPresence { return &LocalPresence{n: map[string]int{}} }

func (p *LocalPresence) Join(_ context.Context, raceID string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n[raceID]++
	return p.n[raceID], nil
}

func (p *LocalPresence) Leave(_ context.Context, raceID string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.n[raceID] > 0 {
		p.n[raceID]--
	}
	n := p.n[raceID]
	if n == 0 {
		delete(p.n, raceID)
	}
	return n, nil
}

// RedisPresence compartilha a contagem entre réplicas do race-service
type RedisPresence struct {
	R   *redis.Client
	TTL time.Duration
}

func presenceKey(raceID string) string { return "race:viewers:" + raceID }

func (p *RedisPresence) Join(ctx context.Context, raceID string) (int, error) {
	key := presenceKey(raceID)
	n, err := p.R.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if p.TTL > 0 {
		p.R.Expire(ctx, key, p.TTL)
	}
	return int(n), nil
}

func (p *RedisPresence) Leave(ctx context.Context, raceID string) (int, error) {
	n, err := p.R.Decr(ctx, presenceKey(raceID)).Result()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		// contador perdido (restart/expire): volta para zero
		p.R.Set(ctx, presenceKey(raceID), 0, p.TTL)
		n = 0
	}
	return int(n), nil
}
