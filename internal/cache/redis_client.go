package cache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	defaultResultTTL = time.Minute
	pingTimeout      = 5 * time.Second

	// Recompute fans out to ENGINE_WORKERS lock holders plus API readers.
	redisPoolSize     = 20
	redisMinIdleConns = 2
	redisIOTimeout    = 3 * time.Second
)

// NewRedisClient connects using cfg and pings once. The client is shared by
// the result cache and the redis locker.
func NewRedisClient(cfg config.CacheConfig) (*redis.Client, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	return client, nil
}

// redisOptions prefers REDIS_URL; otherwise host, port, password and db are
// used as given, with local defaults for the address.
func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.RedisURL != "" {
		parsed, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		host, port := cfg.RedisHost, cfg.RedisPort
		if host == "" {
			host = "127.0.0.1"
		}
		if port == "" {
			port = "6379"
		}
		if cfg.RedisDB < 0 {
			return nil, fmt.Errorf("invalid redis db %d", cfg.RedisDB)
		}
		opts = &redis.Options{
			Addr:     net.JoinHostPort(host, port),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
	}

	opts.PoolSize = redisPoolSize
	opts.MinIdleConns = redisMinIdleConns
	opts.ReadTimeout = redisIOTimeout
	opts.WriteTimeout = redisIOTimeout
	return opts, nil
}

func resultTTL(cfg config.CacheConfig) time.Duration {
	if cfg.ResultTTLSeconds <= 0 {
		return defaultResultTTL
	}
	return time.Duration(cfg.ResultTTLSeconds) * time.Second
}

// unlinkPrefix removes every key under prefix. Keys are collected with a SCAN
// iterator and unlinked in batches so a large keyspace never blocks redis.
func unlinkPrefix(ctx context.Context, client *redis.Client, prefix string, batchSize int64) (int, error) {
	iter := client.Scan(ctx, 0, prefix+"*", batchSize).Iterator()

	removed := 0
	batch := make([]string, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := client.Unlink(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("redis unlink: %w", err)
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if int64(len(batch)) >= batchSize {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan %s*: %w", prefix, err)
	}
	if err := flush(); err != nil {
		return removed, err
	}
	return removed, nil
}
