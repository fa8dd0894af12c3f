package db

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/kuitang/quiz-uitest/internal/config"
)

const (
	// SQLiteDriverName is the project-specific SQLCipher driver used for
	// local runs and in-memory test databases.
	SQLiteDriverName = "sqlite3_quiz_uitest"

	sqliteBusyTimeoutMillis = 5000
	connectTimeout          = 5 * time.Second
)

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if _, err := conn.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", sqliteBusyTimeoutMillis), nil); err != nil {
				return fmt.Errorf("set busy_timeout: %w", err)
			}
			return nil
		},
	})
}

// Dialect identifies the SQL flavour spoken by the connected database.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// DialectFor maps a configured driver onto its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case config.DriverMySQL, "":
		return DialectMySQL, nil
	case config.DriverPostgres:
		return DialectPostgres, nil
	case config.DriverSQLite:
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// sqlDriverName is the name registered with database/sql for the dialect.
func (d Dialect) sqlDriverName() string {
	switch d {
	case DialectPostgres:
		return "pgx"
	case DialectSQLite:
		return SQLiteDriverName
	default:
		return "mysql"
	}
}

// Rebind converts ?-style placeholders into the dialect's native form.
// Queries in this package never contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// BuildDSN returns the connection string for cfg. An explicit DSN wins.
func BuildDSN(cfg config.DBConfig) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return "", err
	}

	switch dialect {
	case DialectMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		mc.DBName = cfg.Name
		mc.ParseTime = true
		mc.Timeout = connectTimeout
		return mc.FormatDSN(), nil

	case DialectPostgres:
		u := url.URL{
			Scheme:   "postgres",
			Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Path:     "/" + cfg.Name,
			RawQuery: "sslmode=disable&connect_timeout=5",
		}
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
		return u.String(), nil

	default:
		// For SQLite the database name is a file path or ":memory:".
		return cfg.Name, nil
	}
}
