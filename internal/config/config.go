package config

import (
	"errors"
	"net"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is accepted outside production only.
const DefaultJWTSecret = "dev-secret-change-me"

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Session   SessionConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	MinIO     MinIOConfig
	LogLevel  string
}

type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	StaticDir       string
	MaxBodyBytes    int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type StoreConfig struct {
	Path string
}

type SessionConfig struct {
	Secret string
	TTL    time.Duration
	// SecureCookies is set in production.
	SecureCookies bool
	// InsecureSecret reports that Secret is the built-in development value.
	InsecureSecret bool
}

type AdminConfig struct {
	Email    string
	Password string
}

type RateLimitConfig struct {
	Enabled  bool
	Max      int
	Window   time.Duration
	UseRedis bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool { return c.Server.Environment == "production" }

// Addr is the listen address.
func (c *Config) Addr() string { return net.JoinHostPort(c.Server.Host, c.Server.Port) }

// RedisAddr returns host:port, or "" when Redis is not configured.
func (c *Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return net.JoinHostPort(c.Redis.Host, c.Redis.Port)
}

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "3000")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("STATIC_DIR", "./public")
	v.SetDefault("MAX_BODY_BYTES", 200*1024)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_FILE", "./db.jsonv")
	v.SetDefault("JWT_SECRET", DefaultJWTSecret)
	v.SetDefault("SESSION_TTL_MINUTES", 120)
	v.SetDefault("ADMIN_EMAIL", "admin@local")
	v.SetDefault("ADMIN_PASSWORD", "admin123")
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_MAX", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 900)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_BUCKET", "acompanha-snapshots")

	env := v.GetString("APP_ENV")
	secret := v.GetString("JWT_SECRET")

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("PORT"),
			Host:            v.GetString("HOST"),
			Environment:     env,
			StaticDir:       v.GetString("STATIC_DIR"),
			MaxBodyBytes:    v.GetInt64("MAX_BODY_BYTES"),
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Path: v.GetString("DB_FILE"),
		},
		Session: SessionConfig{
			Secret:         secret,
			TTL:            time.Duration(v.GetInt("SESSION_TTL_MINUTES")) * time.Minute,
			SecureCookies:  env == "production",
			InsecureSecret: secret == DefaultJWTSecret,
		},
		Admin: AdminConfig{
			Email:    v.GetString("ADMIN_EMAIL"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  v.GetBool("RATE_LIMIT_ENABLED"),
			Max:      v.GetInt("RATE_LIMIT_MAX"),
			Window:   time.Duration(v.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
			UseRedis: v.GetBool("RATE_LIMIT_USE_REDIS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Session.Secret == "":
		return errors.New("JWT_SECRET must not be empty")
	case c.Session.InsecureSecret && c.IsProduction():
		return errors.New("JWT_SECRET must be set to a private value in production")
	case c.Session.TTL <= 0:
		return errors.New("SESSION_TTL_MINUTES must be positive")
	case c.Store.Path == "":
		return errors.New("DB_FILE must not be empty")
	case c.Server.MaxBodyBytes <= 0:
		return errors.New("MAX_BODY_BYTES must be positive")
	case c.RateLimit.Enabled && (c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0):
		return errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW_SECONDS must be positive")
	case c.RateLimit.Enabled && c.RateLimit.UseRedis && c.Redis.Host == "":
		return errors.New("RATE_LIMIT_USE_REDIS requires REDIS_HOST")
	}
	return nil
}
