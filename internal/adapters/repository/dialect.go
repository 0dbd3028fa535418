package repository

import (
	"database/sql"
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Dialect selects the SQL flavour and database/sql driver.
type Dialect string

// Supported dialects.
const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

const (
	defaultHost         = "127.0.0.1"
	defaultMySQLPort    = 3306
	defaultPostgresPort = 5432
)

// Config holds the connection settings. DSN, when set, is passed to the
// driver verbatim and the discrete fields are ignored.
type Config struct {
	Driver   string
	DSN      string
	User     string
	Password string
	Host     string
	Port     int
	Name     string
	// Socket is a unix socket path (mysql) or socket directory (postgres).
	Socket string
}

// ParseDialect maps a configured driver name to a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// driverName is the name the driver registered with database/sql.
func (d Dialect) driverName() string {
	switch d {
	case Postgres:
		return "pgx"
	case SQLite:
		return "sqlite"
	default:
		return "mysql"
	}
}

// placeholderFormat selects how bind parameters are rendered.
func (d Dialect) placeholderFormat() sq.PlaceholderFormat {
	if d == Postgres {
		return sq.Dollar
	}
	return sq.Question
}

// round renders ROUND(expr, places). Postgres only rounds numerics.
func (d Dialect) round(expr string, places int) string {
	if d == Postgres {
		return fmt.Sprintf("ROUND(CAST(%s AS NUMERIC), %d)", expr, places)
	}
	return fmt.Sprintf("ROUND(%s, %d)", expr, places)
}

// dataSourceName builds the driver DSN for d.
func (c Config) dataSourceName(d Dialect) (string, error) {
	if dsn := strings.TrimSpace(c.DSN); dsn != "" {
		return dsn, nil
	}
	switch d {
	case MySQL:
		return c.mysqlDSN(), nil
	case Postgres:
		return "", fmt.Errorf("%w: postgres without a DSN is opened from pgxConfig", ErrNotConfigured)
	case SQLite:
		if strings.TrimSpace(c.Name) == "" {
			return "", fmt.Errorf("%w: sqlite needs a database file name", ErrNotConfigured)
		}
		return c.Name, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, d)
	}
}

func (c Config) hostPort(defaultPort int) string {
	host := c.Host
	if host == "" {
		host = defaultHost
	}
	port := c.Port
	if port <= 0 {
		port = defaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (c Config) mysqlDSN() string {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.DBName = c.Name
	if c.Socket != "" {
		mc.Net = "unix"
		mc.Addr = c.Socket
	} else {
		mc.Net = "tcp"
		mc.Addr = c.hostPort(defaultMySQLPort)
	}
	return mc.FormatDSN()
}

// pgxConfig builds the pgx connection settings from the discrete fields.
// PG* environment variables fill in whatever the fields leave empty.
func (c Config) pgxConfig() (*pgx.ConnConfig, error) {
	pc, err := pgx.ParseConfig("")
	if err != nil {
		return nil, fmt.Errorf("%w: postgres defaults: %w", ErrNotConfigured, err)
	}
	host := c.Host
	if host == "" {
		host = defaultHost
	}
	if c.Socket != "" {
		host = c.Socket
	}
	port := c.Port
	if port <= 0 {
		port = defaultPostgresPort
	}
	if port > math.MaxUint16 {
		return nil, fmt.Errorf("%w: postgres port %d out of range", ErrNotConfigured, port)
	}

	pc.Host = host
	pc.Port = uint16(port)
	if c.User != "" {
		pc.User = c.User
	}
	if c.Password != "" {
		pc.Password = c.Password
	}
	if c.Name != "" {
		pc.Database = c.Name
	}
	// sslmode=prefer keeps a plaintext fallback aimed at the parsed default host.
	for _, fb := range pc.Fallbacks {
		fb.Host = pc.Host
		fb.Port = pc.Port
	}
	return pc, nil
}

// openDB prepares a pool for d. Postgres without a DSN is opened from a
// pgx.ConnConfig so credentials never pass through a connection string.
func (c Config) openDB(d Dialect) (*sql.DB, error) {
	if d == Postgres && strings.TrimSpace(c.DSN) == "" {
		pc, err := c.pgxConfig()
		if err != nil {
			return nil, err
		}
		return stdlib.OpenDB(*pc), nil
	}
	dsn, err := c.dataSourceName(d)
	if err != nil {
		return nil, err
	}
	return sqlOpen(d.driverName(), dsn)
}

// Redacted describes the target without credentials, for logs.
func (c Config) Redacted() string {
	switch {
	case c.DSN != "":
		return "custom dsn"
	case c.Socket != "":
		return fmt.Sprintf("%s@unix(%s)/%s", c.User, c.Socket, c.Name)
	default:
		return fmt.Sprintf("%s@%s/%s", c.User, c.Host, c.Name)
	}
}
