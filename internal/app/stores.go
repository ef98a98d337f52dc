package app

import (
	"fmt"
	"log"

	"bydm/internal/config"
	"bydm/internal/storage"
)

func initStore(cfg *config.Config) (storage.Store, []func() error, error) {
	var (
		origin  storage.Store
		closers []func() error
	)
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		origin = storage.NewMemoryStore()
		log.Printf("storage: in-memory")
	case config.BackendDisk:
		origin = storage.NewDiskStore(cfg.Storage.DiskRoot)
		log.Printf("storage: disk root=%s", cfg.Storage.DiskRoot)
	case config.BackendS3:
		s3Store, err := newS3Store(cfg)
		if err != nil {
			return nil, nil, err
		}
		origin = s3Store
	case config.BackendPostgres:
		db, err := storage.OpenPostgres(cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db: %w", err)
		}
		closers = append(closers, db.Close)
		origin = storage.NewPostgresStore(db)
		log.Printf("storage: postgres")
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return wrapCache(cfg, origin), closers, nil
}

func newS3Store(cfg *config.Config) (storage.Store, error) {
	if !cfg.Storage.CanUseS3() {
		return nil, fmt.Errorf("s3 storage selected but endpoint, credentials or bucket are missing")
	}
	s3Cfg := storage.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
	}
	s3Store, err := storage.NewS3Store(s3Cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize s3 store: %w", err)
	}
	log.Printf("storage: s3 bucket=%s endpoint=%s", s3Cfg.Bucket, s3Cfg.Endpoint)
	return s3Store, nil
}

// wrapCache puts the read-through cache in front of remote backends. A zero
// CACHE_TTL disables it.
func wrapCache(cfg *config.Config, origin storage.Store) storage.Store {
	switch cfg.Storage.Backend {
	case config.BackendMemory, config.BackendDisk:
		return origin
	}
	if cfg.CacheTTL <= 0 {
		return origin
	}
	cacheCfg := storage.DefaultCacheConfig()
	cacheCfg.BlobTTL = cfg.CacheTTL
	return storage.NewCachedStore(origin, cacheCfg)
}
