package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gatekeeper/internal/session/models"
	"gatekeeper/pkg/platform/sentinel"
)

const sessionKeyPrefix = "gatekeeper:session:"

// RedisStore keeps sessions in Redis so multiple service replicas can share
// workflow state. Entries carry a TTL: an abandoned session simply ages out,
// its lock reclaimed separately by the lazy sweep.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, operatorID string) (*models.Session, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+operatorID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Put(ctx context.Context, session *models.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.OperatorID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, operatorID string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+operatorID).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
