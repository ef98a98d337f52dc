package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendDisk     = "disk"
	BackendS3       = "s3"
	BackendPostgres = "postgres"
)

type Config struct {
	Env       string `validate:"required"`
	Debug     bool
	Storage   StorageConfig
	Folders   FolderConfig
	Batch     BatchConfig
	Transform TransformConfig
	CacheTTL  time.Duration `validate:"gte=0"`
}

type StorageConfig struct {
	Backend     string `validate:"oneof=memory disk s3 postgres"`
	DiskRoot    string `validate:"required_if=Backend disk"`
	DatabaseURL string `validate:"required_if=Backend postgres"`

	Endpoint  string `validate:"required_if=Backend s3"`
	Region    string
	AccessKey string `validate:"required_if=Backend s3"`
	SecretKey string `validate:"required_if=Backend s3"`
	Bucket    string `validate:"required_if=Backend s3"`
	UseSSL    bool
}

// FolderConfig names the object-store folders the transformer works with.
type FolderConfig struct {
	Mappings  string `validate:"required"`
	Templates string `validate:"required"`
	Source    string `validate:"required"`
	Target    string `validate:"required"`
	Logs      string `validate:"required"`
}

type BatchConfig struct {
	Size       int `validate:"gte=1"`
	MaxWorkers int `validate:"gte=1,lte=256"`
}

type TransformConfig struct {
	RootArrayField           string `validate:"required"`
	TextRequireNonEmpty      bool
	BlockOnValidationFailure bool
	// LenientMappings reports unclassifiable mapping entries per document
	// instead of rejecting the configuration.
	LenientMappings bool
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := firstNonEmpty(strings.TrimSpace(os.Getenv("APP_ENV")), "local")
	var p envParser
	cfg := &Config{
		Env:   env,
		Debug: p.boolean("DEBUG", false),
		Storage: StorageConfig{
			Backend:     resolveBackend(),
			DiskRoot:    firstNonEmpty(strings.TrimSpace(os.Getenv("DISK_ROOT")), "./data"),
			DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
			Endpoint:    strings.TrimSpace(os.Getenv("MINIO_ENDPOINT")),
			Region:      firstNonEmpty(strings.TrimSpace(os.Getenv("MINIO_REGION")), "us-east-1"),
			AccessKey:   strings.TrimSpace(os.Getenv("MINIO_ACCESS_KEY")),
			SecretKey:   strings.TrimSpace(os.Getenv("MINIO_SECRET_KEY")),
			Bucket:      firstNonEmpty(strings.TrimSpace(os.Getenv("MINIO_BUCKET")), "data"),
			UseSSL:      p.boolean("MINIO_SECURE", false),
		},
		Folders: FolderConfig{
			Mappings: firstNonEmpty(
				strings.TrimSpace(os.Getenv("MAPPING_FOLDER")),
				strings.TrimSpace(os.Getenv("MAPPINGS_FOLDER")),
				"mappings",
			),
			Templates: firstNonEmpty(strings.TrimSpace(os.Getenv("TEMPLATE_FOLDER")), "templates"),
			Source:    firstNonEmpty(strings.TrimSpace(os.Getenv("SOURCE_FOLDER")), "source"),
			Target:    firstNonEmpty(strings.TrimSpace(os.Getenv("TARGET_FOLDER")), "target"),
			Logs:      firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_FOLDER")), "logs"),
		},
		Batch: BatchConfig{
			Size:       p.integer("BATCH_SIZE", 100),
			MaxWorkers: p.integer("MAX_WORKERS", 4),
		},
		Transform: TransformConfig{
			RootArrayField:           firstNonEmpty(strings.TrimSpace(os.Getenv("ROOT_ARRAY_FIELD")), "location"),
			TextRequireNonEmpty:      p.boolean("TEXT_REQUIRE_NON_EMPTY", false),
			BlockOnValidationFailure: p.boolean("BLOCK_ON_VALIDATION_FAILURE", true),
			LenientMappings:          p.boolean("LENIENT_MAPPINGS", false),
		},
		CacheTTL: p.duration("CACHE_TTL", 5*time.Minute),
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints, naming every failing field.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var valErr validator.ValidationErrors
	if !errors.As(err, &valErr) {
		return err
	}
	lists := make([]string, 0, len(valErr))
	for _, fe := range valErr {
		lists = append(lists, fe.Namespace()+" ("+fe.Tag()+")")
	}
	return fmt.Errorf("invalid config: validation failed on %s", strings.Join(lists, ", "))
}

// CanUseS3 reports whether the S3 settings are complete.
func (s StorageConfig) CanUseS3() bool {
	return s.Endpoint != "" && s.AccessKey != "" && s.SecretKey != "" && s.Bucket != ""
}

func resolveBackend() string {
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_BACKEND"))); v != "" {
		return v
	}
	if strings.TrimSpace(os.Getenv("MINIO_ENDPOINT")) != "" {
		return BackendS3
	}
	return BackendDisk
}

// envParser collects the first malformed variable.
type envParser struct {
	err error
}

func (p *envParser) raw(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func (p *envParser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid config: %s=%q: %w", key, raw, err)
	}
}

func (p *envParser) boolean(key string, def bool) bool {
	raw, ok := p.raw(key)
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *envParser) integer(key string, def int) int {
	raw, ok := p.raw(key)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *envParser) duration(key string, def time.Duration) time.Duration {
	raw, ok := p.raw(key)
	if !ok {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
