// Package database opens the gateway's Postgres pool.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"

	"github.com/XSAM/otelsql"
	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"gatewayapi/internal/config"
)

var sqlOpen = sql.Open

// DSN renders c as a postgres:// URL and checks it with pgx's own parser, so
// a bad sslmode or port fails here rather than on first connect.
//
// application_name, connect_timeout and statement_timeout are carried as
// query parameters; pgx sends the unknown ones as session runtime params.
func DSN(c config.DatabaseConfig) (string, error) {
	if c.Host == "" || c.Port == "" || c.User == "" || c.Name == "" {
		return "", fmt.Errorf("invalid database config: host, port, user, and name are required")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   c.Host + ":" + c.Port,
		Path:   c.Name,
		User:   url.User(c.User),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}

	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if c.ApplicationName != "" {
		q.Set("application_name", c.ApplicationName)
	}
	if secs := int(c.ConnectTimeout.Seconds()); secs > 0 {
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	if ms := c.StatementTimeout.Milliseconds(); ms > 0 {
		q.Set("statement_timeout", strconv.FormatInt(ms, 10))
	}
	u.RawQuery = q.Encode()

	dsn := u.String()
	if _, err := pgx.ParseConfig(dsn); err != nil {
		return "", fmt.Errorf("invalid database config: %w", err)
	}
	return dsn, nil
}

// NewPostgres opens a traced pool on the pgx stdlib driver and pings it.
// The ping is bounded by c.ConnectTimeout.
func NewPostgres(ctx context.Context, c config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := DSN(c)
	if err != nil {
		return nil, err
	}

	driverName, err := otelsql.Register("pgx",
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL, semconv.DBName(c.Name)),
		otelsql.WithSQLCommenter(true),
		otelsql.WithSpanOptions(otelsql.SpanOptions{OmitConnResetSession: true, OmitRows: true}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register otelsql: %w", err)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	configurePool(db, c)

	pingCtx := ctx
	if c.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, c.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func configurePool(db *sql.DB, c config.DatabaseConfig) {
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(c.ConnMaxLifetime)
	}
	if c.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(c.ConnMaxIdleTime)
	}
}

// RegisterPoolMetrics exports db's pool statistics (go_sql_* series) labelled
// with dbName.
func RegisterPoolMetrics(reg prometheus.Registerer, db *sql.DB, dbName string) error {
	if err := reg.Register(collectors.NewDBStatsCollector(db, dbName)); err != nil {
		return fmt.Errorf("register pool metrics: %w", err)
	}
	return nil
}
