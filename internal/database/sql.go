package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL flavour behind a *sql.DB.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Kind classifies a DATABASE_URL.
type Kind string

const (
	KindMemory   Kind = "memory"
	KindPostgres Kind = "postgres"
	KindSQLite   Kind = "sqlite"
	KindMongo    Kind = "mongo"
)

// KindOf returns the backend selected by a connection URL.
func KindOf(url string) (Kind, error) {
	u := strings.TrimSpace(url)
	switch {
	case u == "":
		return KindMemory, nil
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return KindPostgres, nil
	case strings.HasPrefix(u, "sqlite://"):
		return KindSQLite, nil
	case strings.HasPrefix(u, "mongodb://"), strings.HasPrefix(u, "mongodb+srv://"):
		return KindMongo, nil
	}
	return "", fmt.Errorf("unsupported DATABASE_URL scheme: %q", redactURL(u))
}

// OpenSQL opens a pooled SQL handle for postgres:// or sqlite:// URLs and
// verifies it with a ping. The returned handle is safe for concurrent use.
func OpenSQL(ctx context.Context, url string, timeout time.Duration) (*sql.DB, Dialect, error) {
	kind, err := KindOf(url)
	if err != nil {
		return nil, "", err
	}
	var (
		driver  string
		dsn     string
		dialect Dialect
	)
	switch kind {
	case KindPostgres:
		driver, dsn, dialect = "postgres", url, DialectPostgres
	case KindSQLite:
		driver, dialect = "sqlite", DialectSQLite
		dsn = sqliteDSN(strings.TrimPrefix(url, "sqlite://"))
	default:
		return nil, "", fmt.Errorf("%s is not a SQL backend", kind)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", driver, err)
	}
	if dialect == DialectSQLite {
		// a single writer avoids SQLITE_BUSY under concurrent requests
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("%s ping: %w", driver, err)
	}
	return db, dialect, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Rebind converts '?' placeholders to the dialect's bind syntax.
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

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS ai_audits (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		business_description TEXT NOT NULL,
		current_revenue TEXT,
		ai_response TEXT NOT NULL,
		ai_result TEXT,
		mode TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ai_audits_user_created_idx ON ai_audits (user_id, created_at DESC)`,
}

// Migrate creates the users and ai_audits tables when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func redactURL(u string) string {
	if i := strings.Index(u, "@"); i >= 0 {
		if j := strings.Index(u, "://"); j >= 0 && j < i {
			return u[:j+3] + "***" + u[i:]
		}
	}
	return u
}
