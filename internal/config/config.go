// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/collabnet/internal/auth"
	"github.com/jason-s-yu/collabnet/internal/cache"
	"github.com/sirupsen/logrus"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port     string
	LogLevel logrus.Level

	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI string
	MongoDB  string

	// MediaBackend is "minio" or "s3".
	MediaBackend string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	TokenTTL          time.Duration
	JWTPrivateKeyPath string
	JWTPublicKeyPath  string

	CORSOrigins        []string
	SuggestionCacheTTL time.Duration
}

// Load reads the environment. Malformed numeric, duration or level values are errors.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getenv("PORT", "8080"),
		PostgresDSN:       postgresDSN(),
		RedisAddr:         getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),
		MongoURI:          getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:           getenv("MONGO_DB", "collabnet"),
		MediaBackend:      getenv("MEDIA_BACKEND", "minio"),
		MinioEndpoint:     getenv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:    getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:    getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:       getenv("MINIO_BUCKET", "collabnet-media"),
		MinioUseSSL:       getenv("MINIO_USE_SSL", "false") == "true",
		MinioPublicURL:    getenv("MINIO_PUBLIC_URL", ""),
		S3Endpoint:        getenv("S3_ENDPOINT", ""),
		S3Region:          getenv("S3_REGION", "auto"),
		S3AccessKey:       getenv("S3_ACCESS_KEY", ""),
		S3SecretKey:       getenv("S3_SECRET_KEY", ""),
		S3Bucket:          getenv("S3_BUCKET", "collabnet-media"),
		S3PublicURL:       getenv("S3_PUBLIC_URL", ""),
		JWTPrivateKeyPath: getenv("JWT_PRIVATE_KEY_PATH", ""),
		JWTPublicKeyPath:  getenv("JWT_PUBLIC_KEY_PATH", ""),
		CORSOrigins:       splitList(getenv("CORS_ORIGINS", "*")),
	}

	switch cfg.MediaBackend {
	case "minio":
	case "s3":
		if cfg.S3Endpoint == "" {
			return nil, errors.New("S3_ENDPOINT is required when MEDIA_BACKEND=s3")
		}
	default:
		return nil, fmt.Errorf("MEDIA_BACKEND: unknown backend %q", cfg.MediaBackend)
	}

	var err error
	if cfg.LogLevel, err = logrus.ParseLevel(getenv("LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.RedisDB, err = strconv.Atoi(getenv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}
	if cfg.TokenTTL, err = auth.ParseTTL(os.Getenv("TOKEN_EXPIRE_TIME")); err != nil {
		return nil, fmt.Errorf("TOKEN_EXPIRE_TIME: %w", err)
	}
	if cfg.SuggestionCacheTTL, err = time.ParseDuration(getenv("SUGGESTION_CACHE_TTL", cache.DefaultSuggestionTTL.String())); err != nil {
		return nil, fmt.Errorf("SUGGESTION_CACHE_TTL: %w", err)
	}
	return cfg, nil
}

// postgresDSN prefers DATABASE_URL and otherwise assembles one from the PG_* variables.
func postgresDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		getenv("POSTGRES_USER", "postgres"),
		os.Getenv("POSTGRES_PASSWORD"),
		getenv("PG_HOST", "localhost"),
		getenv("PG_PORT", "5432"),
		getenv("PG_DATABASE", "collabnet"),
	)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
