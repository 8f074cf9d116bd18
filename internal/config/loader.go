package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with a custom variable lookup.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), getenv); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// loadStruct fills the tagged fields of v, descending into nested structs.
// Every bad variable is reported, not just the first.
//
// Tags: env names the variable, envAlt a fallback name, default the value
// used when both are unset, required="true" rejects an unset variable and
// unit="bytes" accepts sizes such as "50MB" or "1.5GiB".
func loadStruct(v reflect.Value, getenv func(string) string) error {
	var errs []error
	t := v.Type()

	for i := range t.NumField() {
		sf, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if sf.Type.Kind() == reflect.Struct {
			if err := loadStruct(fv, getenv); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		name := sf.Tag.Get("env")
		if name == "" {
			continue
		}

		raw := lookup(getenv, name, sf.Tag.Get("envAlt"))
		switch {
		case raw == "" && sf.Tag.Get("required") == "true":
			errs = append(errs, fmt.Errorf("required environment variable %s is not set", name))
			continue
		case raw == "":
			raw = sf.Tag.Get("default")
		}
		if raw == "" {
			continue
		}

		if err := assign(fv.Addr().Interface(), raw, sf.Tag.Get("unit")); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for %s=%q: %w", name, raw, err))
		}
	}
	return errors.Join(errs...)
}

func lookup(getenv func(string) string, names ...string) string {
	for _, n := range names {
		if n == "" {
			continue
		}
		if v := strings.TrimSpace(getenv(n)); v != "" {
			return v
		}
	}
	return ""
}

// assign parses raw into the variable dst points to.
func assign(dst any, raw, unit string) error {
	switch p := dst.(type) {
	case *string:
		*p = raw
	case *bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return errors.New("want true or false")
		}
		*p = b
	case *int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errors.New("want a whole number")
		}
		*p = n
	case *int64:
		if unit == "bytes" {
			n, err := humanize.ParseBytes(raw)
			if err != nil {
				return fmt.Errorf("want a size such as 50MB: %w", err)
			}
			*p = int64(n)
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return errors.New("want a whole number")
		}
		*p = n
	case *time.Duration:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("want a duration such as 30s: %w", err)
		}
		*p = d
	case *[]string:
		var out []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*p = out
	default:
		return fmt.Errorf("unsupported field type %T", dst)
	}
	return nil
}

// problems collects validation failures, one line per variable.
type problems []string

func (ps *problems) check(ok bool, format string, args ...any) {
	if !ok {
		*ps = append(*ps, fmt.Sprintf(format, args...))
	}
}

// Validate checks that the configuration is usable and describes every
// failure at once.
func (c *Config) Validate() error {
	var ps problems

	switch strings.ToLower(c.Store.Driver) {
	case DriverNone:
	case DriverPostgres:
		ps.check(c.Store.URL != "", "DATABASE_URL is required when STORE_DRIVER=postgres")
		ps.check(c.Store.MaxConns > 0, "DB_MAX_CONNS must be positive")
		ps.check(c.Store.MinConns >= 0, "DB_MIN_CONNS must be non-negative")
		ps.check(c.Store.MaxConns >= c.Store.MinConns,
			"DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", c.Store.MaxConns, c.Store.MinConns)
	case DriverSQLite:
		ps.check(c.Store.SQLitePath != "", "SQLITE_PATH is required when STORE_DRIVER=sqlite")
	default:
		ps.check(false, "STORE_DRIVER (%q) must be one of: none, postgres, sqlite", c.Store.Driver)
	}

	ps.check(c.Server.Port > 0 && c.Server.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", c.Server.Port)
	ps.check(c.Server.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	ps.check(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")

	_, tierOK := core.ParseTier(c.Validation.DefaultTier)
	ps.check(tierOK, "VALIDATE_DEFAULT_TIER (%q) must be one of: lenient, semistrict, strict", c.Validation.DefaultTier)
	ps.check(c.Validation.Workers >= 0, "VALIDATE_WORKERS must be non-negative")
	ps.check(c.Validation.MaxRecords > 0, "VALIDATE_MAX_RECORDS must be positive")

	ps.check(c.Upload.MaxFileSize > 0, "UPLOAD_MAX_FILE_SIZE must be positive")
	ps.check(c.Upload.MaxConcurrent > 0, "UPLOAD_MAX_CONCURRENT must be positive")
	ps.check(c.Upload.MaxWaitTime > 0, "UPLOAD_MAX_WAIT_TIME must be positive")
	ps.check(c.Upload.Timeout > 0, "UPLOAD_TIMEOUT must be positive")

	if c.Rate.Enabled {
		ps.check(c.Rate.RequestsPerMinute > 0, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive")
		ps.check(c.Rate.Burst >= 0, "RATE_LIMIT_BURST must be non-negative")
	}

	ps.check(!c.Security.RequireAPIKey || len(c.Security.APIKeys) > 0,
		"REQUIRE_API_KEY is true but API_KEYS is empty")

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		ps.check(false, "LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		ps.check(false, "LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}

	if len(ps) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(ps, "\n  - "))
	}
	return nil
}

// String summarises the configuration for the startup log. The database
// URL and API keys are never printed.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: {Addr: %q}, Store: {Driver: %q, URL: [MASKED], SQLitePath: %q, MaxConns: %d}, "+
			"Validation: {Workers: %d, DefaultTier: %q, MaxRecords: %d}, "+
			"Upload: {MaxFileSize: %s, MaxConcurrent: %d, Timeout: %s}, "+
			"Security: {RequireAPIKey: %v, APIKeys: %d}, Rate: {Enabled: %v, PerMinute: %d}, Logging: {Level: %q, Format: %q}, Metrics: %v}",
		c.Server.Addr(),
		c.Store.Driver, c.Store.SQLitePath, c.Store.MaxConns,
		c.Validation.Workers, c.Validation.DefaultTier, c.Validation.MaxRecords,
		humanize.IBytes(uint64(max(c.Upload.MaxFileSize, 0))), c.Upload.MaxConcurrent, c.Upload.Timeout,
		c.Security.RequireAPIKey, len(c.Security.APIKeys),
		c.Rate.Enabled, c.Rate.RequestsPerMinute,
		c.Logging.Level, c.Logging.Format,
		c.Metrics.Enabled,
	)
}
