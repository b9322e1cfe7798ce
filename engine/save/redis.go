package save

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces save keys in Redis.
const DefaultKeyPrefix = "customactions:save:"

// RedisStore keeps slots as Redis string keys.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration // 0 keeps keys forever
	logger *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to redisURL ("redis://host:port/db") and checks the
// connection.
func NewRedisStore(ctx context.Context, redisURL string, logger *slog.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	s := NewRedisStoreFromClient(rdb, logger)
	s.logger.Info("connected to redis save store", "addr", opt.Addr)
	return s, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{
		client: client,
		prefix: DefaultKeyPrefix,
		logger: logger,
	}
}

// WithTTL sets an expiry on keys written afterwards.
func (s *RedisStore) WithTTL(ttl time.Duration) *RedisStore {
	s.ttl = ttl
	return s
}

func (s *RedisStore) Put(ctx context.Context, slot string, data []byte) error {
	if err := ValidSlot(slot); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.prefix+slot, data, s.ttl).Err(); err != nil {
		s.logger.Error("failed to write save", "slot", slot, "error", err)
		return fmt.Errorf("write save %q: %w", slot, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, slot string) ([]byte, error) {
	if err := ValidSlot(slot); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, s.prefix+slot).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, slot)
	}
	if err != nil {
		s.logger.Error("failed to read save", "slot", slot, "error", err)
		return nil, fmt.Errorf("read save %q: %w", slot, err)
	}
	return data, nil
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	slots := []string{}
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		slots = append(slots, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	sort.Strings(slots)
	return slots, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
