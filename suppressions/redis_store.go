package suppressions

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the list as a Redis list under one key.
type RedisStore struct {
	redis *redis.Client
	key   string
}

func NewRedisStore(addr, key string) *RedisStore {
	return &RedisStore{
		redis: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   0,
		}),
		key: key,
	}
}

func (r *RedisStore) Description() string {
	return fmt.Sprintf("redis://%s/%s", r.redis.Options().Addr, r.key)
}

func (r *RedisStore) Load(ctx context.Context) ([]string, error) {
	ids, err := r.redis.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", r.Description(), err)
	}
	return ids, nil
}

func (r *RedisStore) Save(ctx context.Context, testIDs []string) error {
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(testIDs) != 0 {
			values := make([]interface{}, 0, len(testIDs))
			for _, id := range testIDs {
				values = append(values, id)
			}
			pipe.RPush(ctx, r.key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cannot write %s: %w", r.Description(), err)
	}
	return nil
}
