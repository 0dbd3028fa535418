package config

import (
	"errors"
	"fmt"
	"strings"

	repository "github.com/okian/careboard/internal/adapters/repository"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate reports the first setting the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case c.RowLimit <= 0:
		return invalid("row_limit must be positive, got %d", c.RowLimit)
	case c.MinStateFacilities < 0:
		return invalid("min_state_facilities must not be negative, got %d", c.MinStateFacilities)
	case c.QueryTimeoutMS < 0:
		return invalid("query_timeout_ms must not be negative, got %d", c.QueryTimeoutMS)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return invalid("log_format must be text or json, got %q", c.LogFormat)
	}
	if _, err := repository.ParseDialect(c.DBDriver); err != nil {
		return invalid("db_driver: %v", err)
	}
	return nil
}
