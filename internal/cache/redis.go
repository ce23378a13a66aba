// Package cache хранит в redis счётчики неудачных попыток входа.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/community-portal/internal/config"
)

const keyPrefix = "login_failures:"

// Cache обёртка над клиентом redis.
type Cache struct {
	Db *redis.Client
}

// InitServer подключается к redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Failures возвращает текущее число неудачных попыток для ключа.
func (c *Cache) Failures(ctx context.Context, key string) (int64, error) {
	const op = "cache.Failures"
	n, err := c.Db.Get(ctx, keyPrefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// RegisterFailure увеличивает счётчик. Окно отсчитывается от первой неудачи.
//
// INCR и EXPIRE NX уходят одной транзакцией: счётчик без TTL не остаётся,
// даже если предыдущая попытка выставить срок не дошла до redis.
func (c *Cache) RegisterFailure(ctx context.Context, key string, window time.Duration) (int64, error) {
	const op = "cache.RegisterFailure"
	k := keyPrefix + key

	var incr *redis.IntCmd
	_, err := c.Db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return incr.Val(), nil
}

// Reset сбрасывает счётчик после успешного входа.
func (c *Cache) Reset(ctx context.Context, key string) error {
	const op = "cache.Reset"
	if err := c.Db.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Ping проверяет доступность redis.
func (c *Cache) Ping(ctx context.Context) error {
	return c.Db.Ping(ctx).Err()
}

// Close закрывает соединение.
func (c *Cache) Close() error {
	return c.Db.Close()
}
