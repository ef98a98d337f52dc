package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_ENV", "DEBUG", "STORAGE_BACKEND", "DISK_ROOT", "DATABASE_URL",
	"MINIO_ENDPOINT", "MINIO_REGION", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_BUCKET", "MINIO_SECURE",
	"MAPPING_FOLDER", "MAPPINGS_FOLDER", "TEMPLATE_FOLDER", "SOURCE_FOLDER", "TARGET_FOLDER", "LOG_FOLDER",
	"BATCH_SIZE", "MAX_WORKERS", "ROOT_ARRAY_FIELD", "TEXT_REQUIRE_NON_EMPTY", "BLOCK_ON_VALIDATION_FAILURE",
	"LENIENT_MAPPINGS", "CACHE_TTL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, BackendDisk, cfg.Storage.Backend)
	assert.Equal(t, "./data", cfg.Storage.DiskRoot)
	assert.Equal(t, FolderConfig{
		Mappings: "mappings", Templates: "templates", Source: "source", Target: "target", Logs: "logs",
	}, cfg.Folders)
	assert.Equal(t, BatchConfig{Size: 100, MaxWorkers: 4}, cfg.Batch)
	assert.Equal(t, "location", cfg.Transform.RootArrayField)
	assert.False(t, cfg.Transform.TextRequireNonEmpty)
	assert.True(t, cfg.Transform.BlockOnValidationFailure)
	assert.False(t, cfg.Transform.LenientMappings)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
}

func TestLoad_MinioEndpointSelectsS3(t *testing.T) {
	clearEnv(t)
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "minioadmin")
	t.Setenv("MINIO_SECRET_KEY", "minioadmin")
	t.Setenv("MAPPINGS_FOLDER", "configs")
	t.Setenv("MAX_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendS3, cfg.Storage.Backend)
	assert.Equal(t, "data", cfg.Storage.Bucket)
	assert.True(t, cfg.Storage.CanUseS3())
	assert.Equal(t, "configs", cfg.Folders.Mappings)
	assert.Equal(t, 8, cfg.Batch.MaxWorkers)
}

func TestLoad_MissingS3Credentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessKey (required_if)")
	assert.Contains(t, err.Error(), "SecretKey (required_if)")
}

func TestLoad_PostgresNeedsURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", "postgres")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DatabaseURL")

	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/bydm?sslmode=disable")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"unknown backend": {"STORAGE_BACKEND", "ftp"},
		"bad int":         {"BATCH_SIZE", "ten"},
		"zero batch":      {"BATCH_SIZE", "0"},
		"bad bool":        {"DEBUG", "sometimes"},
		"bad duration":    {"CACHE_TTL", "5 minutes"},
		"too many":        {"MAX_WORKERS", "1000"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", firstNonEmpty())
}
