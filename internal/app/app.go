// Package app wires configuration into a ready ReorderService. The HTTP
// server and the CLI share it.
package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/cache"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/config"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/lock"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/messaging"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/pipeline"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/pipeline/reorder"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/service"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
	// LockBackendNone skips per-item locking. Only safe when a single
	// process ever writes results.
	LockBackendNone = "none"

	redisLockPrefix = "atk_lock"
)

type App struct {
	Service *service.ReorderService
	Engine  *reorder.Engine

	closers []func() error
}

// New builds every component cfg enables. Optional backends (redis, kafka,
// object storage) fall back to no-op implementations when disabled.
func New(cfg *config.Config, db *postgres.DB) (*App, error) {
	a := &App{}

	forecaster, err := reorder.NewForecaster(cfg.Engine.Forecaster, cfg.Engine.BlendWeight)
	if err != nil {
		return nil, err
	}

	lockBackend := strings.ToLower(strings.TrimSpace(cfg.Engine.LockBackend))
	if lockBackend == "" {
		lockBackend = LockBackendLocal
	}
	switch lockBackend {
	case LockBackendLocal, LockBackendRedis, LockBackendNone:
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Engine.LockBackend)
	}

	var rdb *redis.Client
	if cfg.Cache.Enabled || lockBackend == LockBackendRedis {
		rdb, err = cache.NewRedisClient(cfg.Cache)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
	}

	locker := newLocker(lockBackend, rdb, time.Duration(cfg.Engine.LockTTLSeconds)*time.Second)

	ledger := postgres.NewLedgerRepository(db.DB)
	store := postgres.NewRecommendationRepository(db)

	a.Engine = reorder.NewEngine(ledger, store, reorder.Config{
		Workers:             cfg.Engine.Workers,
		DefaultLeadTimeDays: cfg.Engine.DefaultLeadTimeDays,
		ServiceLevelZ:       cfg.Engine.ServiceLevelZ,
		TargetCoverDays:     cfg.Engine.TargetCoverDays,
	},
		reorder.WithForecaster(forecaster),
		reorder.WithLocker(locker),
	)

	alerts := messaging.NewNoopAlertPublisher()
	if cfg.Kafka.Enabled {
		alerts = messaging.NewKafkaAlertPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		a.closers = append(a.closers, alerts.Close)
	}

	var objects storage.ObjectStorage
	if cfg.Storage.Enabled {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		objects = client
	}

	a.Service = service.NewReorderService(
		a.Engine,
		store,
		pipeline.NewRepository(db.DB),
		cache.NewResultCache(cfg.Cache, rdb),
		alerts,
		objects,
	)

	log.Info().
		Str("forecaster", forecaster.Name()).
		Str("lock_backend", lockBackend).
		Bool("cache", cfg.Cache.Enabled).
		Bool("kafka", cfg.Kafka.Enabled).
		Bool("storage", cfg.Storage.Enabled).
		Msg("reorder engine ready")

	return a, nil
}

// Close releases optional backend connections. The database is owned by the
// caller.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newLocker(backend string, rdb *redis.Client, ttl time.Duration) lock.Locker {
	switch backend {
	case LockBackendRedis:
		return lock.NewRedisLocker(rdb, redisLockPrefix, ttl)
	case LockBackendNone:
		return lock.NoopLocker{}
	default:
		return lock.NewKeyedMutex()
	}
}
