package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.CacheConfig
		wantAddr string
		wantDB   int
		wantErr  bool
	}{
		{name: "defaults", cfg: config.CacheConfig{}, wantAddr: "127.0.0.1:6379"},
		{name: "host and port", cfg: config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2}, wantAddr: "cache:6380", wantDB: 2},
		{name: "url wins", cfg: config.CacheConfig{RedisURL: "redis://redis.internal:6379/3", RedisHost: "ignored"}, wantAddr: "redis.internal:6379", wantDB: 3},
		{name: "bad url", cfg: config.CacheConfig{RedisURL: "http://nope"}, wantErr: true},
		{name: "negative db", cfg: config.CacheConfig{RedisDB: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := redisOptions(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, opts.Addr)
			assert.Equal(t, tt.wantDB, opts.DB)
			assert.Equal(t, redisPoolSize, opts.PoolSize)
		})
	}
}

func TestResultTTL(t *testing.T) {
	assert.Equal(t, defaultResultTTL, resultTTL(config.CacheConfig{}))
	assert.Equal(t, 90*time.Second, resultTTL(config.CacheConfig{ResultTTLSeconds: 90}))
}

func TestUnlinkPrefixBatches(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(config.CacheConfig{RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	for _, k := range []string{"p:a", "p:b", "p:c", "p:d", "p:e", "other"} {
		require.NoError(t, mr.Set(k, "1"))
	}

	removed, err := unlinkPrefix(context.Background(), client, "p:", 2)
	require.NoError(t, err)
	assert.Equal(t, 5, removed)
	assert.True(t, mr.Exists("other"))
	assert.False(t, mr.Exists("p:a"))
}
