// Package config reads the server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
)

const (
	BackendFile  = "file"
	BackendMySQL = "mysql"
	BackendRedis = "redis"
)

type Config struct {
	HTTPAddr string
	GRPCAddr string

	// Backend selects the snapshot repository: file, mysql or redis.
	Backend string
	// DataDir is where the file backend resolves relative snapshot names.
	DataDir string
	// Snapshot is the name loaded on start and saved on shutdown.
	Snapshot string

	MySQLDSN       string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:       get("HTTP_ADDR", ":8080"),
		GRPCAddr:       get("GRPC_ADDR", ":50051"),
		Backend:        strings.ToLower(get("STORE_BACKEND", BackendFile)),
		DataDir:        get("DATA_DIR", ""),
		Snapshot:       get("SNAPSHOT", "inventory.json"),
		MySQLDSN:       get("MYSQL_DSN", "root:root@tcp(localhost:3306)/inventory?parseTime=true"),
		RedisAddr:      get("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  get("REDIS_PASSWORD", ""),
		RedisKeyPrefix: get("REDIS_KEY_PREFIX", "inventory:"),
		LogLevel:       strings.ToLower(get("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(get("LOG_FORMAT", "json")),
	}

	raw := get("REDIS_DB", "0")
	db, err := strconv.Atoi(raw)
	if err != nil {
		return Config{}, fmt.Errorf("invalid REDIS_DB %q: %w", raw, err)
	}
	cfg.RedisDB = db

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendMySQL, BackendRedis:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Backend)
	}

	if c.Snapshot == "" {
		return fmt.Errorf("SNAPSHOT must not be empty")
	}
	if c.Backend == BackendMySQL && c.MySQLDSN == "" {
		return fmt.Errorf("MYSQL_DSN is required for the mysql backend")
	}
	if c.Backend == BackendRedis && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required for the redis backend")
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	if c.RedisDB < 0 || c.RedisDB > 15 {
		return fmt.Errorf("REDIS_DB must be between 0 and 15, got %d", c.RedisDB)
	}
	return nil
}

// get returns the value of the environment variable or def if unset.
func get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
