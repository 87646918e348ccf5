package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env            string
	Port           string
	DatabaseDriver string // postgres | sqlite
	DatabaseURL    string
	RedisURL       string
	JWTSecret      string
	TokenTTL       time.Duration

	StorageBackend string // local | minio | gridfs
	AssetsDir      string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MongoURI       string
	MongoDatabase  string

	FrontendOrigins     []string
	HealthAdminKey      string
	AuthRateLimit       int // requests per minute per IP on register/login; 0 disables
	ExpirySweepInterval time.Duration
}

const devJWTSecret = "dev-secret-change-me"

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "4000")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("TOKEN_TTL", "168h")
	v.SetDefault("STORAGE_BACKEND", "local")
	v.SetDefault("ASSETS_DIR", "./assets")
	v.SetDefault("MINIO_BUCKET", "nhadat-assets")
	v.SetDefault("MONGODB_DATABASE", "realestate")
	v.SetDefault("AUTH_RATE_LIMIT", 20)
	v.SetDefault("EXPIRY_SWEEP_INTERVAL", "0s")

	cfg := &Config{
		Env:                 v.GetString("APP_ENV"),
		Port:                v.GetString("PORT"),
		DatabaseDriver:      strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		RedisURL:            v.GetString("REDIS_URL"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		TokenTTL:            v.GetDuration("TOKEN_TTL"),
		StorageBackend:      strings.ToLower(v.GetString("STORAGE_BACKEND")),
		AssetsDir:           v.GetString("ASSETS_DIR"),
		MinioEndpoint:       v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey:      v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey:      v.GetString("MINIO_SECRET_KEY"),
		MinioBucket:         v.GetString("MINIO_BUCKET"),
		MinioUseSSL:         v.GetBool("MINIO_USE_SSL"),
		MongoURI:            v.GetString("MONGODB_URI"),
		MongoDatabase:       v.GetString("MONGODB_DATABASE"),
		FrontendOrigins:     splitList(v.GetString("FRONTEND_ORIGINS")),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		AuthRateLimit:       v.GetInt("AUTH_RATE_LIMIT"),
		ExpirySweepInterval: v.GetDuration("EXPIRY_SWEEP_INTERVAL"),
	}
	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = devJWTSecret
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
