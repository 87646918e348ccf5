package router

import (
	"context"
	"fmt"
	"time"

	"nhadat-backend/internal/config"
	"nhadat-backend/internal/infrastructure/database"
	"nhadat-backend/internal/infrastructure/storage"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
)

const connectTimeout = 10 * time.Second

// OpenDatabase opens the configured database and migrates the schema.
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// OpenRedis returns nil when REDIS_URL is unset. An unreachable server is logged
// and kept: counters and rate limits fail open until it comes back.
func OpenRedis(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable at startup")
	}
	return rdb, nil
}

// OpenStorage builds the configured asset backend and makes sure its bucket exists.
// The returned func releases backend connections.
func OpenStorage(cfg *config.Config) (storage.ObjectStorage, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	noop := func() {}

	var backend storage.ObjectStorage
	closer := noop
	switch cfg.StorageBackend {
	case "local", "":
		backend = storage.NewLocalStore(cfg.AssetsDir)
	case "minio":
		m, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, noop, err
		}
		backend = m
	case "gridfs":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, noop, fmt.Errorf("mongodb: %w", err)
		}
		closer = func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Warn().Err(err).Msg("mongodb disconnect failed")
			}
		}
		g, err := storage.NewGridFSStore(client, cfg.MongoDatabase)
		if err != nil {
			closer()
			return nil, noop, err
		}
		backend = g
	default:
		return nil, noop, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		closer()
		return nil, noop, fmt.Errorf("storage %s: %w", cfg.StorageBackend, err)
	}
	log.Info().Str("backend", cfg.StorageBackend).Str("bucket", backend.Bucket()).Msg("asset storage ready")
	return backend, closer, nil
}
