package flowstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps saved flows in a Redis list:
//
//	<prefix>flows => RPUSH of JSON-encoded records
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a RedisStore. prefix defaults to "flowcanvas:".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "flowcanvas:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) keyFlows() string {
	return s.prefix + "flows"
}

func (s *RedisStore) Append(ctx context.Context, rec Record) error {
	if s == nil || s.client == nil {
		return ErrStoreUnavailable
	}
	if err := validateRecord(rec); err != nil {
		return err
	}
	raw, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, s.keyFlows(), raw).Err(); err != nil {
		return fmt.Errorf("redis RPUSH %s: %w", s.keyFlows(), err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]Record, error) {
	if s == nil || s.client == nil {
		return nil, ErrStoreUnavailable
	}
	values, err := s.client.LRange(ctx, s.keyFlows(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis LRANGE %s: %w", s.keyFlows(), err)
	}
	out := make([]Record, 0, len(values))
	for _, v := range values {
		rec, err := decodeRecord([]byte(v))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
