package repository

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseDialect(t *testing.T) {
	Convey("ParseDialect accepts common spellings", t, func() {
		for in, want := range map[string]Dialect{
			"mysql":      MySQL,
			"MariaDB":    MySQL,
			"postgres":   Postgres,
			"postgresql": Postgres,
			" pgx ":      Postgres,
			"sqlite":     SQLite,
			"sqlite3":    SQLite,
		} {
			got, err := ParseDialect(in)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}
	})

	Convey("ParseDialect rejects anything else", t, func() {
		_, err := ParseDialect("mssql")
		So(errors.Is(err, ErrUnsupportedDriver), ShouldBeTrue)
	})

	Convey("Dialects map to registered driver names", t, func() {
		So(MySQL.driverName(), ShouldEqual, "mysql")
		So(Postgres.driverName(), ShouldEqual, "pgx")
		So(SQLite.driverName(), ShouldEqual, "sqlite")
	})

	Convey("Postgres rounds through NUMERIC", t, func() {
		So(MySQL.round("AVG(x)", 2), ShouldEqual, "ROUND(AVG(x), 2)")
		So(Postgres.round("AVG(x)", 2), ShouldEqual, "ROUND(CAST(AVG(x) AS NUMERIC), 2)")
	})
}

func TestDataSourceName(t *testing.T) {
	Convey("Given connection settings", t, func() {
		Convey("an explicit DSN wins", func() {
			dsn, err := Config{DSN: "user@tcp(db:3306)/x", Host: "ignored"}.dataSourceName(MySQL)
			So(err, ShouldBeNil)
			So(dsn, ShouldEqual, "user@tcp(db:3306)/x")
		})

		Convey("mysql defaults to local tcp", func() {
			dsn, err := Config{User: "root", Password: "secret", Name: "hospital_performance"}.dataSourceName(MySQL)
			So(err, ShouldBeNil)
			So(dsn, ShouldStartWith, "root:secret@tcp(127.0.0.1:3306)/hospital_performance")
		})

		Convey("mysql prefers the unix socket", func() {
			dsn, err := Config{User: "root", Host: "db", Socket: "/tmp/mysql.sock", Name: "hp"}.dataSourceName(MySQL)
			So(err, ShouldBeNil)
			So(dsn, ShouldStartWith, "root@unix(/tmp/mysql.sock)/hp")
		})

		Convey("postgres is not rendered as a DSN", func() {
			_, err := Config{Host: "db"}.dataSourceName(Postgres)
			So(errors.Is(err, ErrNotConfigured), ShouldBeTrue)
		})

		Convey("sqlite needs a file name", func() {
			_, err := Config{}.dataSourceName(SQLite)
			So(errors.Is(err, ErrNotConfigured), ShouldBeTrue)

			dsn, err := Config{Name: "/tmp/hp.db"}.dataSourceName(SQLite)
			So(err, ShouldBeNil)
			So(dsn, ShouldEqual, "/tmp/hp.db")
		})
	})

	Convey("Redacted never includes the password", t, func() {
		c := Config{User: "root", Password: "hunter2", Host: "db", Name: "hp"}
		So(c.Redacted(), ShouldEqual, "root@db/hp")
		So(c.Redacted(), ShouldNotContainSubstring, "hunter2")
		So(Config{DSN: "root:hunter2@/hp"}.Redacted(), ShouldEqual, "custom dsn")
	})
}

func TestPgxConfig(t *testing.T) {
	Convey("Given postgres connection settings", t, func() {
		Convey("the discrete fields land on the pgx config verbatim", func() {
			pc, err := Config{User: "app", Password: `p'w\d`, Host: "db", Port: 6432, Name: "hp"}.pgxConfig()
			So(err, ShouldBeNil)
			So(pc.Host, ShouldEqual, "db")
			So(pc.Port, ShouldEqual, uint16(6432))
			So(pc.User, ShouldEqual, "app")
			So(pc.Password, ShouldEqual, `p'w\d`)
			So(pc.Database, ShouldEqual, "hp")
			for _, fb := range pc.Fallbacks {
				So(fb.Host, ShouldEqual, "db")
				So(fb.Port, ShouldEqual, uint16(6432))
			}
		})

		Convey("the socket directory is used as host", func() {
			pc, err := Config{Host: "db", Socket: "/var/run/postgresql"}.pgxConfig()
			So(err, ShouldBeNil)
			So(pc.Host, ShouldEqual, "/var/run/postgresql")
			So(pc.Port, ShouldEqual, uint16(5432))
		})

		Convey("empty fields fall back to local defaults", func() {
			pc, err := Config{}.pgxConfig()
			So(err, ShouldBeNil)
			So(pc.Host, ShouldEqual, "127.0.0.1")
			So(pc.Port, ShouldEqual, uint16(5432))
		})

		Convey("ports beyond uint16 are rejected", func() {
			_, err := Config{Port: 65536}.pgxConfig()
			So(errors.Is(err, ErrNotConfigured), ShouldBeTrue)
		})
	})
}
