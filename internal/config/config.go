package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/guillermoBallester/strait/internal/core/domain"
	"github.com/joho/godotenv"
)

type Config struct {
	// Database connection. DSN wins when set; otherwise it is assembled
	// from the SQLANY_* parts.
	DSN     string
	Driver  string // ODBC driver name
	Server  string // SQL Anywhere server name
	DBN     string // database name
	Host    string
	Port    int
	UID     string
	PWD     string
	Encrypt bool

	// Access control.
	AuthorizedOwners []string

	// Result limits.
	MaxRows      int // default row cap when the caller sets none
	MaxRowsLimit int // hard ceiling for caller-requested limits
	QueryTimeout time.Duration

	PolicyFile string // optional path to policy YAML

	// Logging.
	LogLevel slog.Level

	// Transport.
	Transport       string // "stdio" (default) or "http"
	HTTPAddr        string // listen address for HTTP transport (default ":8080")
	HTTPBearerToken string // required when transport=http

	// Connection pool.
	PoolMaxOpenConns    int
	PoolMaxIdleConns    int
	PoolConnMaxLifetime time.Duration

	// Observability.
	OTelEnabled bool // enable OpenTelemetry tracing and metrics

	// CLI-only fields (not settable via env vars).
	AuditLog string // path to NDJSON audit log file
}

// Overrides holds CLI flag values that override environment variables.
// Pointer fields distinguish "not set" from zero values.
type Overrides struct {
	DSN              *string
	AuthorizedOwners *string // comma-separated
	LogLevel         *string
	MaxRows          *int
	MaxRowsLimit     *int
	QueryTimeout     *time.Duration
	PolicyFile       *string
	Transport        *string
	HTTPAddr         *string
	HTTPBearerToken  *string
	OTelEnabled      bool
	AuditLog         string
}

// Load builds a Config from environment variables, then applies CLI
// overrides, then validates the result. A .env file in the working
// directory is read first, without clobbering the real environment.
func Load(overrides Overrides) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if err := loadEnvVars(cfg); err != nil {
		return nil, err
	}
	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaults returns a Config populated with default values.
func defaults() *Config {
	return &Config{
		DSN:                 os.Getenv("SQLANY_DSN"),
		Driver:              "SQL Anywhere 17",
		Port:                2638,
		MaxRows:             1000,
		MaxRowsLimit:        10000,
		QueryTimeout:        30 * time.Second,
		Transport:           "stdio",
		HTTPAddr:            ":8080",
		PoolMaxOpenConns:    5,
		PoolMaxIdleConns:    1,
		PoolConnMaxLifetime: 30 * time.Minute,
	}
}

// loadEnvVars reads all supported environment variables into cfg.
func loadEnvVars(cfg *Config) error {
	if v := os.Getenv("SQLANY_DRIVER"); v != "" {
		cfg.Driver = v
	}
	cfg.Server = os.Getenv("SQLANY_SERVER")
	cfg.DBN = os.Getenv("SQLANY_DBN")
	cfg.Host = os.Getenv("SQLANY_HOST")
	cfg.UID = os.Getenv("SQLANY_UID")
	cfg.PWD = os.Getenv("SQLANY_PWD")

	if v := os.Getenv("SQLANY_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 65535 {
			return fmt.Errorf("invalid SQLANY_PORT value %q: must be a port number", v)
		}
		cfg.Port = n
	}

	if v := os.Getenv("SQLANY_ENCRYPT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SQLANY_ENCRYPT value %q: %w", v, err)
		}
		cfg.Encrypt = b
	}

	if v := os.Getenv("AUTHORIZED_OWNERS"); v != "" {
		cfg.AuthorizedOwners = splitList(v)
	}

	if v := os.Getenv("MAX_ROWS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid MAX_ROWS value %q: must be a positive integer", v)
		}
		cfg.MaxRows = n
	}

	if v := os.Getenv("MAX_ROWS_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid MAX_ROWS_LIMIT value %q: must be a positive integer", v)
		}
		cfg.MaxRowsLimit = n
	}

	if v := os.Getenv("QUERY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid QUERY_TIMEOUT value %q: %w", v, err)
		}
		cfg.QueryTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}

	cfg.PolicyFile = os.Getenv("POLICY_FILE")

	if v := os.Getenv("TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.HTTPBearerToken = os.Getenv("HTTP_BEARER_TOKEN")

	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid OTEL_ENABLED value %q: %w", v, err)
		}
		cfg.OTelEnabled = b
	}

	return loadPoolEnvVars(cfg)
}

// loadPoolEnvVars reads connection pool environment variables.
func loadPoolEnvVars(cfg *Config) error {
	if v := os.Getenv("POOL_MAX_OPEN_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid POOL_MAX_OPEN_CONNS value %q: must be a positive integer", v)
		}
		cfg.PoolMaxOpenConns = n
	}
	if v := os.Getenv("POOL_MAX_IDLE_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid POOL_MAX_IDLE_CONNS value %q: must be a non-negative integer", v)
		}
		cfg.PoolMaxIdleConns = n
	}
	if v := os.Getenv("POOL_CONN_MAX_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid POOL_CONN_MAX_LIFETIME value %q: %w", v, err)
		}
		cfg.PoolConnMaxLifetime = d
	}
	return nil
}

// applyOverrides applies CLI flag values on top of the env-loaded config.
func applyOverrides(cfg *Config, o Overrides) error {
	if o.DSN != nil {
		cfg.DSN = *o.DSN
	}
	if o.AuthorizedOwners != nil {
		cfg.AuthorizedOwners = splitList(*o.AuthorizedOwners)
	}
	if o.LogLevel != nil {
		level, err := parseLogLevel(*o.LogLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}
	if o.MaxRows != nil {
		if *o.MaxRows <= 0 {
			return fmt.Errorf("invalid --max-rows value: must be a positive integer")
		}
		cfg.MaxRows = *o.MaxRows
	}
	if o.MaxRowsLimit != nil {
		if *o.MaxRowsLimit <= 0 {
			return fmt.Errorf("invalid --max-rows-limit value: must be a positive integer")
		}
		cfg.MaxRowsLimit = *o.MaxRowsLimit
	}
	if o.QueryTimeout != nil {
		cfg.QueryTimeout = *o.QueryTimeout
	}
	if o.PolicyFile != nil {
		cfg.PolicyFile = *o.PolicyFile
	}
	if o.Transport != nil {
		cfg.Transport = *o.Transport
	}
	if o.HTTPAddr != nil {
		cfg.HTTPAddr = *o.HTTPAddr
	}
	if o.HTTPBearerToken != nil {
		cfg.HTTPBearerToken = *o.HTTPBearerToken
	}

	cfg.AuditLog = o.AuditLog
	cfg.OTelEnabled = cfg.OTelEnabled || o.OTelEnabled

	return nil
}

// validate checks cross-field constraints on the final config.
func validate(cfg *Config) error {
	if cfg.DSN == "" && cfg.Server == "" {
		return fmt.Errorf("database connection is required (set SQLANY_DSN, or SQLANY_SERVER and friends)")
	}

	if _, err := domain.NewOwnerAllowList(cfg.AuthorizedOwners); err != nil {
		return fmt.Errorf("AUTHORIZED_OWNERS: %w", err)
	}

	if cfg.MaxRows > cfg.MaxRowsLimit {
		return fmt.Errorf("MAX_ROWS (%d) must not exceed MAX_ROWS_LIMIT (%d)", cfg.MaxRows, cfg.MaxRowsLimit)
	}

	switch cfg.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid TRANSPORT value %q: must be \"stdio\" or \"http\"", cfg.Transport)
	}

	if cfg.Transport == "http" && cfg.HTTPBearerToken == "" {
		return fmt.Errorf("HTTP_BEARER_TOKEN is required when transport is \"http\" (set via env var or --http-bearer-token flag)")
	}

	if cfg.PoolMaxIdleConns > cfg.PoolMaxOpenConns {
		return fmt.Errorf("POOL_MAX_IDLE_CONNS (%d) must not exceed POOL_MAX_OPEN_CONNS (%d)", cfg.PoolMaxIdleConns, cfg.PoolMaxOpenConns)
	}

	return nil
}

// ConnString returns the ODBC connection string. An explicit DSN is used
// verbatim; otherwise the string is assembled from the configured parts.
func (c *Config) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Driver={%s};ServerName=%s", c.Driver, c.Server)
	if c.DBN != "" {
		fmt.Fprintf(&b, ";DatabaseName=%s", c.DBN)
	}
	if c.Host != "" {
		fmt.Fprintf(&b, ";Host=%s:%d", c.Host, c.Port)
	}
	if c.UID != "" {
		fmt.Fprintf(&b, ";UID=%s;PWD=%s", c.UID, c.PWD)
	}
	if c.Encrypt {
		b.WriteString(";Encryption=TLS")
	}
	return b.String()
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL value %q: must be debug, info, warn, or error", s)
	}
}
