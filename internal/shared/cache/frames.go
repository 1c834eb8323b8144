package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// FramesCache guarda os frames de replay de cada corrida no Redis.
// Os frames são imutáveis depois de gerados, então o TTL só controla memória.
type FramesCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewFramesCache(c *redis.Client, ttl time.Duration) *FramesCache {
	return &FramesCache{Client: c, TTL: ttl}
}

func framesKey(raceID string) string { return "race:frames:" + raceID }

// SetFrames armazena os frames serializados em JSON
func (f *FramesCache) SetFrames(ctx context.Context, raceID string, frames [][]float64) error {
	b, err := json.Marshal(frames)
	if err != nil {
		return err
	}
	return f.Client.Set(ctx, framesKey(raceID), b, f.TTL).Err()
}

// GetFrames retorna ok=false quando não há cache
func (f *FramesCache) GetFrames(ctx context.Context, raceID string) ([][]float64, bool, error) {
	b, err := f.Client.Get(ctx, framesKey(raceID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var frames [][]float64
	if err := json.Unmarshal(b, &frames); err != nil {
		return nil, false, err
	}
	return frames, true, nil
}
