// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and CAREBOARD_* environment variables on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"time"

	repository "github.com/okian/careboard/internal/adapters/repository"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBDriver selects the SQL dialect: mysql, postgres or sqlite.
	DBDriver string `koanf:"db_driver"`

	// DBDSN, when set, is handed to the driver verbatim and the discrete
	// connection fields below are ignored.
	DBDSN string `koanf:"db_dsn"`

	DBUser     string `koanf:"db_user"`
	DBPassword string `koanf:"db_password"`
	DBHost     string `koanf:"db_host"`
	DBPort     int    `koanf:"db_port"`
	// DBName is the schema name, or the database file for sqlite.
	DBName string `koanf:"db_name"`
	// DBSocket is a unix socket path; it takes precedence over host and port.
	DBSocket string `koanf:"db_socket"`

	// Connection pool sizing. Zero keeps the database/sql defaults.
	DBMaxOpenConns          int `koanf:"db_max_open_conns"`
	DBMaxIdleConns          int `koanf:"db_max_idle_conns"`
	DBConnMaxLifetimeSecond int `koanf:"db_conn_max_lifetime_sec"`

	// QueryTimeoutMS bounds each statement. Zero disables the bound.
	QueryTimeoutMS int `koanf:"query_timeout_ms"`

	// RowLimit caps worst-measures and top-hospitals.
	RowLimit int `koanf:"row_limit"`

	// MinStateFacilities is the strict lower bound on distinct facilities
	// for a state to appear in the per-state summaries.
	MinStateFacilities int `koanf:"min_state_facilities"`

	// TopHospitalsMeasure is the measure ranked by top-hospitals.
	TopHospitalsMeasure string `koanf:"top_hospitals_measure"`
}

// New creates a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		DBDriver:            "mysql",
		DBUser:              "root",
		DBHost:              "127.0.0.1",
		DBPort:              3306,
		DBName:              "hospital_performance",
		DBMaxOpenConns:      20,
		DBMaxIdleConns:      5,
		QueryTimeoutMS:      15_000,
		RowLimit:            5,
		MinStateFacilities:  20,
		TopHospitalsMeasure: "READM_30_HF",
	}
	return c
}

// Database returns the connection settings for the Query Layer.
func (c *Config) Database() repository.Config {
	return repository.Config{
		Driver:   c.DBDriver,
		DSN:      c.DBDSN,
		User:     c.DBUser,
		Password: c.DBPassword,
		Host:     c.DBHost,
		Port:     c.DBPort,
		Name:     c.DBName,
		Socket:   c.DBSocket,
	}
}

// QueryTimeout returns QueryTimeoutMS as a duration.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutMS) * time.Millisecond
}

// ConnMaxLifetime returns DBConnMaxLifetimeSecond as a duration.
func (c *Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeSecond) * time.Second
}
