// Package redisstore keeps wizard sessions in Redis so every API instance
// sees the same current speech/rehearsal for a browser.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"speech-rehearsal-be/internal/session"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rehearsal:session:"

type SessionRepository struct {
	rdb *redis.Client
}

func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{rdb: rdb}
}

func key(id string) string {
	return keyPrefix + id
}

// Save writes without TTL.
func (r *SessionRepository) Save(ctx context.Context, s *session.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return r.rdb.Set(ctx, key(s.ID), data, 0).Err()
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	data, err := r.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var s session.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	if s.Speeches == nil {
		s.Speeches = []string{}
	}
	return &s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, key(id)).Err()
}
