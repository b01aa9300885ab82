package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string `toml:"app_port"`
	LogMode string `toml:"log_mode"`

	DBDriver    string `toml:"db_driver"` // sqlite | mysql | postgres
	SQLitePath  string `toml:"sqlite_path"`
	MySQLHost   string `toml:"mysql_host"`
	MySQLPort   string `toml:"mysql_port"`
	MySQLDB     string `toml:"mysql_db"`
	MySQLUser   string `toml:"mysql_user"`
	MySQLPass   string `toml:"mysql_pass"`
	PostgresDSN string `toml:"postgres_dsn"`

	RedisEnabled bool   `toml:"redis_enabled"`
	RedisAddr    string `toml:"redis_addr"`
	RedisDB      int    `toml:"redis_db"`
	RedisPass    string `toml:"redis_password"`
	EventStream  string `toml:"event_stream"`

	IdempTTLSecs int `toml:"idempotency_ttl_seconds"`
	LockTTLSecs  int `toml:"lock_ttl_seconds"`

	TickSource   string        `toml:"tick_source"` // clock | chain | manual
	TickInterval time.Duration `toml:"tick_interval"`
	TickGenesis  int64         `toml:"tick_genesis"` // unix seconds of tick 0 for the clock source
	ChainRPCURL  string        `toml:"chain_rpc_url"`

	NativeDecimals uint8 `toml:"native_decimals"`
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func defaults() *Config {
	return &Config{
		AppPort:        "8080",
		LogMode:        "dev",
		DBDriver:       "sqlite",
		SQLitePath:     "loanshare.db",
		MySQLHost:      "mysql",
		MySQLPort:      "3306",
		MySQLDB:        "loanshare",
		MySQLUser:      "loanshare",
		MySQLPass:      "loanshare",
		RedisAddr:      "redis:6379",
		EventStream:    "loanshare:events",
		IdempTTLSecs:   300,
		LockTTLSecs:    30,
		TickSource:     "clock",
		TickInterval:   12 * time.Second,
		NativeDecimals: 18,
	}
}

// Load builds the config from defaults, then an optional TOML file named by
// CONFIG_FILE, then a .env file if present, then environment variables.
func Load() (*Config, error) {
	c := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, c); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	c.AppPort = getenv("APP_PORT", c.AppPort)
	c.LogMode = getenv("LOG_MODE", c.LogMode)
	c.DBDriver = getenv("DB_DRIVER", c.DBDriver)
	c.SQLitePath = getenv("SQLITE_PATH", c.SQLitePath)
	c.MySQLHost = getenv("MYSQL_HOST", c.MySQLHost)
	c.MySQLPort = getenv("MYSQL_PORT", c.MySQLPort)
	c.MySQLDB = getenv("MYSQL_DB", c.MySQLDB)
	c.MySQLUser = getenv("MYSQL_USER", c.MySQLUser)
	c.MySQLPass = getenv("MYSQL_PASS", c.MySQLPass)
	c.PostgresDSN = getenv("POSTGRES_DSN", c.PostgresDSN)
	c.RedisAddr = getenv("REDIS_ADDR", c.RedisAddr)
	c.RedisPass = getenv("REDIS_PASSWORD", c.RedisPass)
	c.EventStream = getenv("EVENT_STREAM", c.EventStream)
	c.TickSource = getenv("TICK_SOURCE", c.TickSource)
	c.ChainRPCURL = getenv("CHAIN_RPC_URL", c.ChainRPCURL)

	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.RedisEnabled = b
		}
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
	if v := os.Getenv("IDEMPOTENCY_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.IdempTTLSecs = n
		}
	}
	if v := os.Getenv("LOCK_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LockTTLSecs = n
		}
	}
	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.TickInterval = d
		}
	}
	if v := os.Getenv("TICK_GENESIS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.TickGenesis = n
		}
	}
	if v := os.Getenv("NATIVE_DECIMALS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 8); err == nil {
			c.NativeDecimals = uint8(n)
		}
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("missing POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	switch c.TickSource {
	case "clock", "manual":
		if c.TickSource == "clock" && c.TickInterval <= 0 {
			return errors.New("TICK_INTERVAL must be positive")
		}
	case "chain":
		if c.ChainRPCURL == "" {
			return errors.New("missing CHAIN_RPC_URL for chain tick source")
		}
	default:
		return fmt.Errorf("unknown TICK_SOURCE %q", c.TickSource)
	}
	if c.RedisEnabled && c.RedisAddr == "" {
		return errors.New("missing REDIS_ADDR while REDIS_ENABLED")
	}
	if c.NativeDecimals > 77 {
		return errors.New("NATIVE_DECIMALS must be <= 77")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

func (c *Config) LockTTL() time.Duration { return time.Duration(c.LockTTLSecs) * time.Second }
