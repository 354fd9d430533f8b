package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures RedisBackend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisBackend stores values as plain Redis strings under
// "<prefix><namespace>:<key>". Batches run in MULTI/EXEC.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, opts RedisOptions) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, &Error{Op: "open", Err: fmt.Errorf("redis ping: %w", err)}
	}
	return NewRedisBackend(client, opts.Prefix), nil
}

func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "cinemaclub:"
	}
	return &RedisBackend{client: client, prefix: prefix}
}

func (r *RedisBackend) key(ns Namespace, key string) string {
	return r.prefix + string(ns) + ":" + key
}

func (r *RedisBackend) Get(ctx context.Context, ns Namespace, key string) ([]byte, error) {
	if !ns.Valid() {
		return nil, &Error{Op: "get", Key: key, Err: ErrUnknownNamespace}
	}

	v, err := r.client.Get(ctx, r.key(ns, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "get", Key: key, Err: err}
	}
	return v, nil
}

func (r *RedisBackend) Apply(ctx context.Context, ops ...Op) error {
	if err := validateOps(ops); err != nil {
		return err
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, op := range ops {
			if op.Delete {
				pipe.Del(ctx, r.key(op.Namespace, op.Key))
				continue
			}
			pipe.Set(ctx, r.key(op.Namespace, op.Key), op.Value, 0)
		}
		return nil
	})
	if err != nil {
		return &Error{Op: "apply", Err: err}
	}
	return nil
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
