package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/noah-isme/kegiatan-api/internal/database"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	AllowOrigins        string
	DatabaseDriver      string
	DatabaseURL         string
	DatabaseMaxOpen     int
	DatabaseMaxIdle     int
	RedisURL            string
	CacheTTL            time.Duration
	NATSURL             string
	NATSSubject         string
	JWTSecret           string
	JWTTTL              time.Duration
	SeedEnabled         bool
	SeedToken           string
	BcryptCost          int
	LoginRateLimit      int
	LoginRateLimitEvery time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsDevelopment reports whether the service runs with development defaults.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// Database returns the connection settings for the record store.
func (c Config) Database() database.Config {
	return database.Config{
		Driver:       c.DatabaseDriver,
		DSN:          c.DatabaseURL,
		MaxOpenConns: c.DatabaseMaxOpen,
		MaxIdleConns: c.DatabaseMaxIdle,
	}
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("KEGIATAN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Kegiatan API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.allow_origins", "*")
	v.SetDefault("database.driver", database.DriverSQLite)
	v.SetDefault("database.url", "kegiatan.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("cache.ttl", "2m")
	v.SetDefault("nats.subject", "kegiatan.activity_logs")
	v.SetDefault("jwt.ttl", "12h")
	v.SetDefault("seed.enabled", true)
	v.SetDefault("bcrypt.cost", 12)
	v.SetDefault("login.rate_limit", 10)
	v.SetDefault("login.rate_window", "1m")

	cacheTTL, err := parseDuration(v, "cache.ttl", 2*time.Minute)
	if err != nil {
		return Config{}, err
	}
	jwtTTL, err := parseDuration(v, "jwt.ttl", 12*time.Hour)
	if err != nil {
		return Config{}, err
	}
	loginWindow, err := parseDuration(v, "login.rate_window", time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		AllowOrigins:        v.GetString("app.allow_origins"),
		DatabaseDriver:      strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:         v.GetString("database.url"),
		DatabaseMaxOpen:     v.GetInt("database.max_open_conns"),
		DatabaseMaxIdle:     v.GetInt("database.max_idle_conns"),
		RedisURL:            strings.TrimSpace(v.GetString("redis.url")),
		CacheTTL:            cacheTTL,
		NATSURL:             strings.TrimSpace(v.GetString("nats.url")),
		NATSSubject:         v.GetString("nats.subject"),
		JWTSecret:           v.GetString("jwt.secret"),
		JWTTTL:              jwtTTL,
		SeedEnabled:         v.GetBool("seed.enabled"),
		SeedToken:           v.GetString("seed.token"),
		BcryptCost:          v.GetInt("bcrypt.cost"),
		LoginRateLimit:      v.GetInt("login.rate_limit"),
		LoginRateLimitEvery: loginWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case database.DriverPostgres, database.DriverMySQL, database.DriverSQLite:
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return fallback, nil
	}
	return d, nil
}
