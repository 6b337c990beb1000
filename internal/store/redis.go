package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	apperrors "github.com/SAP-F-2025/offline-quiz/internal/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// stagingTTL bounds how long an abandoned staging hash can linger in Redis.
const stagingTTL = 10 * time.Minute

// RedisStore keeps the namespace in two Redis hashes, one for file bytes and
// one for content types. Publish writes to uniquely named staging hashes and
// RENAMEs both over the live keys inside one MULTI/EXEC.
type RedisStore struct {
	client    *redis.Client
	namespace string
	logger    *slog.Logger
}

func NewRedisStore(client *redis.Client, namespace string, logger *slog.Logger) *RedisStore {
	return &RedisStore{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

func (s *RedisStore) filesKey() string { return s.namespace + ":files" }
func (s *RedisStore) typesKey() string { return s.namespace + ":types" }

func (s *RedisStore) Get(ctx context.Context, p string) (*Entry, error) {
	key := CleanPath(p)

	var dataCmd, typeCmd *redis.StringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		dataCmd = pipe.HGet(ctx, s.filesKey(), key)
		typeCmd = pipe.HGet(ctx, s.typesKey(), key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read %s from redis store: %w", key, err)
	}

	data, err := dataCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NewNotFoundError(p)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from redis store: %w", key, err)
	}

	contentType, err := typeCmd.Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read content type of %s: %w", key, err)
	}

	return &Entry{Data: data, ContentType: contentType}, nil
}

func (s *RedisStore) Paths(ctx context.Context) ([]string, error) {
	paths, err := s.client.HKeys(ctx, s.filesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list redis store: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *RedisStore) Publish(ctx context.Context, staged *Staging) error {
	if staged.Len() == 0 {
		return s.Clear(ctx)
	}

	stagingID := uuid.NewString()
	stagingFiles := fmt.Sprintf("%s:staging:%s:files", s.namespace, stagingID)
	stagingTypes := fmt.Sprintf("%s:staging:%s:types", s.namespace, stagingID)

	files := make(map[string]interface{}, staged.Len())
	types := make(map[string]interface{}, staged.Len())
	for p, e := range staged.entries {
		files[p] = e.Data
		types[p] = e.ContentType
	}

	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, stagingFiles, files)
		pipe.HSet(ctx, stagingTypes, types)
		pipe.Expire(ctx, stagingFiles, stagingTTL)
		pipe.Expire(ctx, stagingTypes, stagingTTL)
		return nil
	})
	if err != nil {
		s.discard(stagingFiles, stagingTypes)
		return fmt.Errorf("failed to stage archive in redis: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Rename(ctx, stagingFiles, s.filesKey())
		pipe.Rename(ctx, stagingTypes, s.typesKey())
		pipe.Persist(ctx, s.filesKey())
		pipe.Persist(ctx, s.typesKey())
		return nil
	})
	if err != nil {
		s.discard(stagingFiles, stagingTypes)
		return fmt.Errorf("failed to publish staged archive: %w", err)
	}

	s.logger.Debug("Published archive to redis store",
		"namespace", s.namespace,
		"files", staged.Len())
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.filesKey(), s.typesKey()).Err(); err != nil {
		return fmt.Errorf("failed to clear redis store: %w", err)
	}
	return nil
}

// discard removes staging keys on a best-effort basis; their TTL covers failures here.
func (s *RedisStore) discard(keys ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn("Failed to discard staging keys", "keys", keys, "error", err)
	}
}
