package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cappelaere/wai-bee/internal/common/cnst"
	"github.com/cappelaere/wai-bee/internal/common/config"
)

// RedisStore implements Store using Redis. Expiry is delegated to key TTLs,
// so the lazy delete in Get only ever observes already-gone keys.
type RedisStore struct {
	logger *zap.Logger
	client *redis.Client
	prefix string
	expiry time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a new Redis-based session store
func NewRedisStore(logger *zap.Logger, cfg config.SessionRedisConfig, expiry time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "session"
	}

	return &RedisStore{
		logger: logger.Named("session.store.redis"),
		client: client,
		prefix: prefix + ":",
		expiry: expiry,
	}, nil
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Save stores a freshly issued token with the configured TTL.
func (s *RedisStore) Save(ctx context.Context, token *Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(token.ID), data, s.expiry).Err()
}

// Get retrieves a live token by id.
func (s *RedisStore) Get(ctx context.Context, id string) (*Token, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cnst.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		s.logger.Error("failed to unmarshal session token", zap.Error(err))
		return nil, cnst.ErrSessionNotFound
	}
	return &token, nil
}

// Delete removes a token, reporting whether it existed.
func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SelectScholarship records the chosen scholarship on a live token without
// extending its absolute lifetime.
func (s *RedisStore) SelectScholarship(ctx context.Context, id, scholarshipID string) error {
	token, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	token.Scholarship = scholarshipID

	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(id), data, redis.KeepTTL).Err()
}
