package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avelar/storefront/internal/verification/domain"
)

// Store holds verification state per session in Redis, expiring with
// the session TTL. An absent key is an unverified session.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func key(sessionID string) string {
	return fmt.Sprintf("verify:%s", sessionID)
}

func (s *Store) Get(ctx context.Context, sessionID string) (domain.State, error) {
	raw, err := s.rdb.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.State{}, nil
	}
	if err != nil {
		return domain.State{}, err
	}
	var st domain.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return domain.State{}, err
	}
	return st, nil
}

func (s *Store) Put(ctx context.Context, sessionID string, st domain.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key(sessionID), raw, s.ttl).Err()
}
