package postgres

//nolint:revive
import (
	"braidbook/config"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const driverName = "postgres"

// Connection holds the read and write pools. Tests and single-node deployments share one pool for both.
type Connection struct {
	Read  *sqlx.DB
	Write *sqlx.DB
}

func New(cfg *config.Config) *Connection {
	return &Connection{
		Read:  mustOpen(cfg, "read", cfg.DB.Postgres.Read),
		Write: mustOpen(cfg, "write", cfg.DB.Postgres.Write),
	}
}

func NewFromDB(db *sqlx.DB) *Connection {
	return &Connection{Read: db, Write: db}
}

// WithTx runs fn in a write transaction. fn's error, or a panic, rolls it back.
func (c *Connection) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := c.Write.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()

			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error().Err(rbErr).Msg("failed to rollback transaction")
		}

		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DSN renders a lib/pq connection URL. Credentials are escaped and DB_POSTGRES_PREFIX is prepended to the name.
func DSN(cfg *config.Config, endpoint config.PostgresEndpoint) string {
	query := url.Values{}

	if endpoint.SSLMode != "" {
		query.Set("sslmode", endpoint.SSLMode)
	}

	if endpoint.Timezone != "" {
		query.Set("timezone", endpoint.Timezone)
	}

	dsn := url.URL{
		Scheme:   driverName,
		User:     url.UserPassword(endpoint.Username, endpoint.Password),
		Host:     net.JoinHostPort(endpoint.Host, endpoint.Port),
		Path:     "/" + cfg.DB.Postgres.Prefix + endpoint.Name,
		RawQuery: query.Encode(),
	}

	return dsn.String()
}

func mustOpen(cfg *config.Config, role string, endpoint config.PostgresEndpoint) *sqlx.DB {
	pg := cfg.DB.Postgres
	logger := log.With().Str("role", role).Str("host", endpoint.Host).Str("db", pg.Prefix+endpoint.Name).Logger()

	b := backoff.NewConstantBackOff(time.Duration(max(pg.RetryWaitTime, 1)) * time.Second)

	db, err := backoff.Retry(context.Background(), func() (*sqlx.DB, error) {
		db, err := sqlx.Connect(driverName, DSN(cfg, endpoint))
		if err != nil {
			logger.Error().Err(err).Msg("Failed connecting to database, retrying")
		}

		return db, err //nolint:wrapcheck
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(max(pg.MaxRetry, 1))))
	if err != nil {
		logger.Fatal().Err(err).Int("maxRetry", pg.MaxRetry).Msg("Could not connect to database")
	}

	db.SetMaxOpenConns(pg.MaxOpenConns)
	db.SetMaxIdleConns(pg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(pg.ConnMaxLifeSec) * time.Second)

	logger.Info().Msg("Connected to database")

	return db
}
