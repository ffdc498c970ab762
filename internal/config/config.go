package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App      AppConfig
	Upstream UpstreamConfig
	Identity IdentityConfig
	Database DatabaseConfig
	Redis    RedisConfig
}

type AppConfig struct {
	AppName          string
	Environment      string
	HTTPPort         string
	CORSAllowOrigins []string
	MigrationsDir    string
}

type UpstreamConfig struct {
	BaseURL      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type IdentityConfig struct {
	TokenSecret string
	TokenIssuer string
	// RepairPolicy is "claim-if-free" or "overwrite".
	RepairPolicy string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout      time.Duration
	PoolMaxConns        int32
	PoolMaxConnIdleTime time.Duration
}

// Enabled reports whether enough settings are present to reach Postgres.
func (c DatabaseConfig) Enabled() bool {
	return c.DBHost != "" && c.DBName != "" && c.DBUser != ""
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

const (
	RepairClaimIfFree = "claim-if-free"
	RepairOverwrite   = "overwrite"
)

var defaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
}

var (
	errMissingRequiredEnv = errors.New("missing required environment variables")
	errInvalidEnv         = errors.New("invalid environment variables")
)

func Load() (Config, error) {
	cfg := Config{}

	var missing, invalid []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}
	dur := func(key string, def time.Duration) time.Duration {
		raw := opt(key)
		if raw == "" {
			return def
		}
		d, err := parseDuration(raw)
		if err != nil || d <= 0 {
			invalid = append(invalid, key)
			return def
		}
		return d
	}
	num := func(key string, def int) int {
		raw := opt(key)
		if raw == "" {
			return def
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			invalid = append(invalid, key)
			return def
		}
		return v
	}

	port := opt("HTTP_PORT")
	if port == "" {
		port = opt("PORT")
	}
	if port == "" {
		port = "3001"
	}

	cfg.App = AppConfig{
		AppName:          stringOr(opt("APP_NAME"), "matchsync"),
		Environment:      stringOr(opt("APP_ENV"), "development"),
		HTTPPort:         port,
		CORSAllowOrigins: splitList(opt("CORS_ALLOW_ORIGINS"), defaultCORSOrigins),
		MigrationsDir:    stringOr(opt("MIGRATIONS_DIR"), "migrations"),
	}

	cfg.Upstream = UpstreamConfig{
		BaseURL:      strings.TrimRight(req("EXTERNAL_API_BASE"), "/"),
		ReadTimeout:  dur("UPSTREAM_READ_TIMEOUT", 5*time.Second),
		WriteTimeout: dur("UPSTREAM_WRITE_TIMEOUT", 10*time.Second),
	}

	cfg.Identity = IdentityConfig{
		TokenSecret:  req("IDENTITY_TOKEN_SECRET"),
		TokenIssuer:  opt("IDENTITY_TOKEN_ISSUER"),
		RepairPolicy: stringOr(opt("DISPLAY_ID_REPAIR_POLICY"), RepairClaimIfFree),
	}
	if cfg.Identity.RepairPolicy != RepairClaimIfFree && cfg.Identity.RepairPolicy != RepairOverwrite {
		invalid = append(invalid, "DISPLAY_ID_REPAIR_POLICY")
	}

	cfg.Database = DatabaseConfig{
		DBHost:              opt("DB_HOST"),
		DBPort:              stringOr(opt("DB_PORT"), "5432"),
		DBName:              opt("DB_NAME"),
		DBUser:              opt("DB_USER"),
		DBPassword:          opt("DB_PASSWORD"),
		DBSSLMode:           stringOr(opt("DB_SSL_MODE"), "disable"),
		ConnectTimeout:      dur("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:        int32(num("DB_POOL_MAX_CONNS", 0)),
		PoolMaxConnIdleTime: dur("DB_POOL_MAX_CONN_IDLE_TIME", 5*time.Minute),
	}

	redisAddr := ""
	if host := opt("REDIS_HOST"); host != "" {
		redisAddr = fmt.Sprintf("%s:%s", host, stringOr(opt("REDIS_PORT"), "6379"))
	}
	cfg.Redis = RedisConfig{
		Addr:     redisAddr,
		Password: opt("REDIS_PASSWORD"),
		DB:       num("REDIS_DB", 0),
		TTL:      dur("REDIS_TTL", 10*time.Minute),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errInvalidEnv, strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// parseDuration accepts Go durations ("5s") or bare seconds ("5").
func parseDuration(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitList(raw string, def []string) []string {
	if raw == "" {
		return def
	}
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
