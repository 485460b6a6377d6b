package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/folio-cms/folio/internal/media"
	"github.com/folio-cms/folio/internal/retry"
	"github.com/folio-cms/folio/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Keycloak  KeycloakConfig
	JWT       JWTConfig
	Owner     OwnerConfig
	Media     media.Config
	RateLimit RateLimitConfig
	Write     WriteConfig
}

type ServerConfig struct {
	Port        string `validate:"required,numeric"`
	Host        string
	Environment string `validate:"oneof=development test production"`
	ReadTimeout time.Duration
	// CORSOrigins lists allowed browser origins; empty allows any.
	CORSOrigins []string
}

// MongoDBConfig is optional: without a URI the in-memory store is used.
type MongoDBConfig struct {
	URI      string
	Database string `validate:"required_with=URI"`
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Channel carries store change notices between processes.
	Channel string
}

// Addr returns host:port, empty when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type KeycloakConfig struct {
	URL          string
	Realm        string
	ClientID     string `validate:"required_with=URL"`
	ClientSecret string
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration `validate:"gt=0"`
	RefreshTokenTTL time.Duration `validate:"gt=0"`
}

// OwnerConfig seeds the single site owner. PasswordHash (bcrypt) wins over
// Password when both are set.
type OwnerConfig struct {
	Email        string `validate:"omitempty,email"`
	Name         string
	Password     string
	PasswordHash string
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64 `validate:"gt=0"`
	Burst         int     `validate:"gte=1"`
	WindowSeconds int     `validate:"gte=1"`
}

// WriteConfig is the retry policy for content writes.
type WriteConfig struct {
	Attempts int           `validate:"gte=1,lte=10"`
	Base     time.Duration `validate:"gt=0"`
	Max      time.Duration `validate:"gtefield=Base"`
}

func (w WriteConfig) Policy() retry.Policy {
	return retry.Policy{Attempts: w.Attempts, Base: w.Base, Max: w.Max}
}

var validate = validator.New()

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5001")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("MONGODB_DATABASE", "folio")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_CHANNEL", "folio:changes")
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	v.SetDefault("JWT_REFRESH_TOKEN_TTL", 10080)
	v.SetDefault("OWNER_NAME", "Owner")
	v.SetDefault("MEDIA_BACKEND", "")
	v.SetDefault("MINIO_BUCKET", "folio")
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("WRITE_RETRY_ATTEMPTS", retry.Default.Attempts)
	v.SetDefault("WRITE_RETRY_BASE_MS", retry.Default.Base.Milliseconds())
	v.SetDefault("WRITE_RETRY_MAX_MS", retry.Default.Max.Milliseconds())

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("SERVER_PORT"),
			Host:        v.GetString("SERVER_HOST"),
			Environment: v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout: 30 * time.Second,
			CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Channel:  v.GetString("REDIS_CHANNEL"),
		},
		Keycloak: KeycloakConfig{
			URL:          v.GetString("KEYCLOAK_URL"),
			Realm:        v.GetString("KEYCLOAK_REALM"),
			ClientID:     v.GetString("KEYCLOAK_CLIENT_ID"),
			ClientSecret: v.GetString("KEYCLOAK_CLIENT_SECRET"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("JWT_SECRET"),
			AccessTokenTTL:  time.Duration(v.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			RefreshTokenTTL: time.Duration(v.GetInt("JWT_REFRESH_TOKEN_TTL")) * time.Minute,
		},
		Owner: OwnerConfig{
			Email:        v.GetString("OWNER_EMAIL"),
			Name:         v.GetString("OWNER_NAME"),
			Password:     v.GetString("OWNER_PASSWORD"),
			PasswordHash: v.GetString("OWNER_PASSWORD_HASH"),
		},
		Media: media.Config{
			Backend:      v.GetString("MEDIA_BACKEND"),
			CloudName:    v.GetString("CLOUDINARY_CLOUD_NAME"),
			UploadPreset: v.GetString("CLOUDINARY_UPLOAD_PRESET"),
			MinIO: media.MinIOConfig{
				Endpoint:  v.GetString("MINIO_ENDPOINT"),
				AccessKey: v.GetString("MINIO_ACCESS_KEY"),
				SecretKey: v.GetString("MINIO_SECRET_KEY"),
				UseSSL:    v.GetBool("MINIO_USE_SSL"),
				Bucket:    v.GetString("MINIO_BUCKET"),
				PublicURL: v.GetString("MINIO_PUBLIC_URL"),
			},
			AllowedHosts: splitList(v.GetString("MEDIA_ALLOWED_HOSTS")),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Write: WriteConfig{
			Attempts: v.GetInt("WRITE_RETRY_ATTEMPTS"),
			Base:     time.Duration(v.GetInt("WRITE_RETRY_BASE_MS")) * time.Millisecond,
			Max:      time.Duration(v.GetInt("WRITE_RETRY_MAX_MS")) * time.Millisecond,
		},
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.JWT.Secret == "" {
		if cfg.Server.Environment == "production" {
			return nil, fmt.Errorf("invalid configuration: JWT_SECRET is required in production")
		}
		logger.Warnf("JWT_SECRET is not set; set a secure value in production")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
