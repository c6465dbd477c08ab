package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Ledger   LedgerConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	CORS     CORSConfig
}

type AppConfig struct {
	Name            string
	Port            string
	Debug           bool
	LogPath         string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

// MinJWTSecretLength is the shortest HS256 secret the service accepts.
const MinJWTSecretLength = 32

var ErrWeakJWTSecret = errors.New("JWT_SECRET must be set")

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

// LedgerConfig selects where committed ticket totals live.
// Backend is one of: memory, postgres, redis.
type LedgerConfig struct {
	Backend        string
	LockTimeout    time.Duration
	KeyPrefix      string
	RebuildOnStart bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type CORSConfig struct {
	AllowedOrigins []string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "cineweb")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("LEDGER_BACKEND", "memory")
	viper.SetDefault("LEDGER_LOCK_TIMEOUT", "2s")
	viper.SetDefault("LEDGER_KEY_PREFIX", "cineweb:ledger")
	viper.SetDefault("LEDGER_REBUILD_ON_START", true)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("RABBITMQ_EXCHANGE", "cineweb.orders")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	viper.AutomaticEnv()

	// .env is optional, env vars alone are enough in containers
	if _, err := os.Stat(".env"); err == nil {
		if err := viper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	config := &Config{
		App: AppConfig{
			Name:            viper.GetString("APP_NAME"),
			Port:            viper.GetString("PORT"),
			Debug:           viper.GetBool("DEBUG"),
			LogPath:         viper.GetString("LOG_PATH"),
			ShutdownTimeout: viper.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ExpiryHours: viper.GetInt("JWT_EXPIRY_HOURS"),
		},
		Ledger: LedgerConfig{
			Backend:        strings.ToLower(viper.GetString("LEDGER_BACKEND")),
			LockTimeout:    viper.GetDuration("LEDGER_LOCK_TIMEOUT"),
			KeyPrefix:      viper.GetString("LEDGER_KEY_PREFIX"),
			RebuildOnStart: viper.GetBool("LEDGER_REBUILD_ON_START"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      viper.GetString("RABBITMQ_URL"),
			Exchange: viper.GetString("RABBITMQ_EXCHANGE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}

	if len(config.JWT.Secret) < MinJWTSecretLength {
		return nil, fmt.Errorf("%w to at least %d bytes, got %d", ErrWeakJWTSecret, MinJWTSecretLength, len(config.JWT.Secret))
	}

	return config, nil
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
