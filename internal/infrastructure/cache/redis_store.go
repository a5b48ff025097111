package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix separa el índice de duplicados del resto del keyspace.
const keyPrefix = "dupidx:"

// RedisStore índice de duplicados sobre Redis: cada balde es una lista con
// PEXPIRE, así el propio Redis descarta los baldes vencidos y las réplicas
// del servicio comparten un único índice.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore construye el índice sobre un cliente ya conectado.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Add agrega el miembro a la lista del balde y corre su expiración.
func (s *RedisStore) Add(ctx context.Context, bucket, member string, window time.Duration) error {
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, keyPrefix+bucket, member)
	pipe.PExpire(ctx, keyPrefix+bucket, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: agregar al balde %s: %w", bucket, err)
	}
	return nil
}

// Members lista los miembros del balde; un balde expirado simplemente no
// existe y vuelve vacío.
func (s *RedisStore) Members(ctx context.Context, bucket string) ([]string, error) {
	members, err := s.rdb.LRange(ctx, keyPrefix+bucket, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: leer balde %s: %w", bucket, err)
	}
	return members, nil
}
