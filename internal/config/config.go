package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverMySQL  = "mysql"
	DriverMongo  = "mongo"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Store    StoreConfig
	DocStore DocStoreConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Auth     AuthConfig
	Cart     CartConfig
	Payment  PaymentConfig
}

type ServerConfig struct {
	Port int
}

type LogConfig struct {
	Level  string
	Format string
}

// StoreConfig selects the key-value backend that replaces browser local storage.
type StoreConfig struct {
	Driver      string
	RedisAddr   string
	RedisDB     int
	RedisPrefix string
}

type DocStoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type AuthConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration
	AdminEmails []string
}

type CartConfig struct {
	MaxAge     time.Duration
	UndoWindow time.Duration
}

type PaymentConfig struct {
	// StepScale multiplies the simulated payment step durations; 0 disables the delays.
	StepScale float64
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("STORE_DRIVER", DriverMemory)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PREFIX", "quickorder:")
	v.SetDefault("DOCSTORE_DRIVER", DriverMemory)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "quickorder")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "quickorder")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "quickorder")
	v.SetDefault("MONGO_CONNECT_TIMEOUT", "10s")
	v.SetDefault("AUTH_JWT_SECRET", "change-me")
	v.SetDefault("AUTH_TOKEN_TTL", "24h")
	v.SetDefault("AUTH_ADMIN_EMAILS", "")
	v.SetDefault("CART_MAX_AGE", "24h")
	v.SetDefault("CART_UNDO_WINDOW", "5s")
	v.SetDefault("PAYMENT_STEP_SCALE", 1.0)

	durations := map[string]*time.Duration{}
	cfg := &Config{}
	durations["DB_CONN_MAX_LIFETIME"] = &cfg.Database.ConnMaxLifetime
	durations["MONGO_CONNECT_TIMEOUT"] = &cfg.Mongo.ConnectTimeout
	durations["AUTH_TOKEN_TTL"] = &cfg.Auth.TokenTTL
	durations["CART_MAX_AGE"] = &cfg.Cart.MaxAge
	durations["CART_UNDO_WINDOW"] = &cfg.Cart.UndoWindow

	for key, dst := range durations {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		*dst = d
	}

	cfg.Server = ServerConfig{
		Port: v.GetInt("SERVER_PORT"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}
	cfg.Store = StoreConfig{
		Driver:      strings.ToLower(v.GetString("STORE_DRIVER")),
		RedisAddr:   v.GetString("REDIS_ADDR"),
		RedisDB:     v.GetInt("REDIS_DB"),
		RedisPrefix: v.GetString("REDIS_PREFIX"),
	}
	cfg.DocStore = DocStoreConfig{
		Driver: strings.ToLower(v.GetString("DOCSTORE_DRIVER")),
	}
	cfg.Database.Host = v.GetString("DB_HOST")
	cfg.Database.Port = v.GetInt("DB_PORT")
	cfg.Database.User = v.GetString("DB_USER")
	cfg.Database.Password = v.GetString("DB_PASSWORD")
	cfg.Database.Name = v.GetString("DB_NAME")
	cfg.Database.MaxOpenConns = v.GetInt("DB_MAX_OPEN_CONNS")
	cfg.Database.MaxIdleConns = v.GetInt("DB_MAX_IDLE_CONNS")
	cfg.Mongo.URI = v.GetString("MONGO_URI")
	cfg.Mongo.Database = v.GetString("MONGO_DATABASE")
	cfg.Auth.JWTSecret = v.GetString("AUTH_JWT_SECRET")
	cfg.Auth.AdminEmails = splitCSV(v.GetString("AUTH_ADMIN_EMAILS"))
	cfg.Payment.StepScale = v.GetFloat64("PAYMENT_STEP_SCALE")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverRedis:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.DocStore.Driver {
	case DriverMemory, DriverMySQL, DriverMongo:
	default:
		return fmt.Errorf("unsupported DOCSTORE_DRIVER %q", c.DocStore.Driver)
	}

	if c.Payment.StepScale < 0 {
		return fmt.Errorf("PAYMENT_STEP_SCALE must not be negative")
	}

	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.ToLower(strings.TrimSpace(p)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
