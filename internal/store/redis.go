package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// CompetitorRegistry remembers every advertiser seen by earlier runs.
type CompetitorRegistry struct {
	Client *redis.Client
	TTL    time.Duration
	now    func() time.Time
}

// InitRedis connects to Redis and returns a registry. A zero ttl keeps entries forever.
func InitRedis(ctx context.Context, addr string, ttl time.Duration) (*CompetitorRegistry, error) {
	r := NewCompetitorRegistry(redis.NewClient(&redis.Options{Addr: addr}), ttl)
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info().Str("addr", addr).Msg("Connected to Redis")
	return r, nil
}

func NewCompetitorRegistry(client *redis.Client, ttl time.Duration) *CompetitorRegistry {
	return &CompetitorRegistry{Client: client, TTL: ttl, now: time.Now}
}

func competitorKey(advertiser string) string {
	return "competitor:" + strings.ToLower(strings.TrimSpace(advertiser))
}

// MarkSeen records the advertiser and reports whether this is its first sighting.
func (r *CompetitorRegistry) MarkSeen(ctx context.Context, advertiser string) (bool, error) {
	firstSeen := r.now().UTC().Format(time.RFC3339)
	isNew, err := r.Client.SetNX(ctx, competitorKey(advertiser), firstSeen, r.TTL).Result()
	if err != nil {
		return false, fmt.Errorf("mark competitor %q: %w", advertiser, err)
	}
	return isNew, nil
}

// FirstSeen returns when the advertiser was first recorded.
func (r *CompetitorRegistry) FirstSeen(ctx context.Context, advertiser string) (time.Time, bool, error) {
	val, err := r.Client.Get(ctx, competitorKey(advertiser)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse first seen for %q: %w", advertiser, err)
	}
	return t, true, nil
}

// Close closes the Redis client.
func (r *CompetitorRegistry) Close() error {
	return r.Client.Close()
}
