package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"entgo.io/ent/dialect"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"flowcanvas/internal/cache/flowcache"
	"flowcanvas/internal/gateway/config"
	"flowcanvas/internal/gateway/repository/flowstore"
)

// flowStore is the configured origin plus whatever must be released on
// shutdown.
type flowStore struct {
	store   flowstore.Store
	closers []func() error
}

func (s *flowStore) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func initFlowStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*flowStore, error) {
	out := &flowStore{}
	origin, err := chooseFlowStore(ctx, cfg, logger, out)
	if err != nil {
		_ = out.Close()
		return nil, err
	}
	if origin == nil {
		return nil, fmt.Errorf("flow origin store is nil")
	}
	if cfg.Cache.Disabled {
		out.store = origin
		return out, nil
	}
	out.store = flowcache.NewCachedStore(origin, flowcache.CacheConfig{ListTTL: cfg.Cache.ListTTL})
	return out, nil
}

// chooseFlowStore opens the configured backend. A backend whose settings
// are incomplete falls back to the in-memory store.
func chooseFlowStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, res *flowStore) (flowstore.Store, error) {
	sc := cfg.Store
	fallback := func(reason string) flowstore.Store {
		logger.Warn("flow store: using in-memory fallback", slog.String("requested", string(sc.Kind)), slog.String("reason", reason))
		return flowstore.NewMemoryStore()
	}

	switch sc.Kind {
	case config.StoreDisk:
		logger.Info("flow store: disk", slog.String("path", sc.DiskPath))
		return flowstore.NewDiskStore(sc.DiskPath), nil
	case config.StorePostgres:
		if sc.DatabaseURL == "" {
			return fallback("DATABASE_URL is empty"), nil
		}
		db, err := sql.Open("pgx", sc.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		res.closers = append(res.closers, db.Close)
		logger.Info("flow store: postgres")
		return flowstore.NewSQLStore(db, dialect.Postgres)
	case config.StoreSQLite:
		if dir := filepath.Dir(sc.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		db, err := sql.Open("sqlite", sc.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
		res.closers = append(res.closers, db.Close)
		logger.Info("flow store: sqlite", slog.String("path", sc.SQLitePath))
		return flowstore.NewSQLStore(db, dialect.SQLite)
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     sc.Redis.Addr,
			Password: sc.Redis.Password,
			DB:       sc.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return fallback("redis ping failed: " + err.Error()), nil
		}
		res.closers = append(res.closers, client.Close)
		logger.Info("flow store: redis", slog.String("addr", sc.Redis.Addr))
		return flowstore.NewRedisStore(client, sc.Redis.KeyPrefix), nil
	case config.StoreS3:
		if !sc.S3.CanUse() {
			return fallback("s3 config incomplete"), nil
		}
		s3Store, err := flowstore.NewS3Store(flowstore.S3Config{
			Endpoint:  sc.S3.Endpoint,
			Region:    sc.S3.Region,
			AccessKey: sc.S3.AccessKey,
			SecretKey: sc.S3.SecretKey,
			Bucket:    sc.S3.Bucket,
			UseSSL:    sc.S3.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize flow s3 store: %w", err)
		}
		logger.Info("flow store: s3", slog.String("bucket", sc.S3.Bucket), slog.String("endpoint", sc.S3.Endpoint))
		return s3Store, nil
	default:
		return flowstore.NewMemoryStore(), nil
	}
}
