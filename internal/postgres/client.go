package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/funduq/funduq/internal/config"
	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/funduq/funduq/internal/logger"
	_ "github.com/lib/pq"
)

// Querier is satisfied by *sql.DB and *sql.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// IClient is what repositories and services need from the database
type IClient interface {
	// Querier returns the transaction in ctx, or the pool
	Querier(ctx context.Context) Querier

	// WithTx runs fn in a transaction. A nested call joins the outer one.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	// WithSavepoint runs fn inside a savepoint of the current transaction. An
	// error from fn rolls back to the savepoint only.
	WithSavepoint(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

type txKey struct{}

// Client wraps the database/sql pool
type Client struct {
	db               *sql.DB
	logger           *logger.Logger
	statementTimeout time.Duration
}

// NewDB opens the pool and checks connectivity
func NewDB(cfg *config.Configuration, log *logger.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid database configuration").
			Mark(ierr.ErrDatabase)
	}

	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetimeMinutes) * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, ierr.WithError(err).
			WithHint("Unable to connect to the database").
			Mark(ierr.ErrDatabase)
	}

	log.Infow("connected to postgres",
		"host", cfg.Postgres.Host,
		"database", cfg.Postgres.DBName)
	return db, nil
}

func NewClient(db *sql.DB, cfg *config.Configuration, log *logger.Logger) IClient {
	return &Client{
		db:               db,
		logger:           log,
		statementTimeout: cfg.Postgres.StatementTimeout,
	}
}

// TxFromContext returns the transaction stored in ctx, or nil
func (c *Client) TxFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

func (c *Client) Querier(ctx context.Context) Querier {
	if tx := c.TxFromContext(ctx); tx != nil {
		return tx
	}
	return c.db
}

func (c *Client) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if c.TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to start database transaction").
			Mark(ierr.ErrDatabase)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				c.logger.WithContext(ctx).Errorw("failed to rollback transaction", "error", rbErr)
			}
		}
	}()

	// Reset by Postgres on commit or rollback
	if c.statementTimeout > 0 {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", c.statementTimeout.Milliseconds())); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to set statement timeout").
				Mark(ierr.ErrDatabase)
		}
	}

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to commit database transaction").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (c *Client) WithSavepoint(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	tx := c.TxFromContext(ctx)
	if tx == nil {
		return ierr.NewError("savepoint must be used inside a transaction").
			Mark(ierr.ErrInternal)
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create savepoint").
			Mark(ierr.ErrDatabase)
	}

	if err := fn(ctx); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			c.logger.WithContext(ctx).Errorw("failed to rollback to savepoint",
				"savepoint", name,
				"error", rbErr)
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to release savepoint").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
