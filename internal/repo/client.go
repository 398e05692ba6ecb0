package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/lib/pq"
)

// Postgres error codes surfaced as repository errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgExclusionViolation  = "23P01"
)

var pg = entsql.Dialect(dialect.Postgres)

// Client is the Postgres Store. Queries are built with the ent SQL builder
// and executed on the ent driver, or on a transaction inside WithTx.
type Client struct {
	drv  *entsql.Driver
	conn dialect.ExecQuerier
	slow time.Duration
}

var _ Store = (*Client)(nil)

type Option func(*Client)

// WithSlowQueryLog logs statements slower than d at warn level.
func WithSlowQueryLog(d time.Duration) Option {
	return func(c *Client) { c.slow = d }
}

func NewClient(drv *entsql.Driver, opts ...Option) *Client {
	c := &Client{drv: drv, conn: drv}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Close() error {
	if c.drv == nil {
		return nil
	}
	return c.drv.Close()
}

// WithTx runs fn in a transaction after taking a transaction-scoped advisory
// lock for every key. Keys are locked in sorted order so concurrent callers
// cannot deadlock on each other.
func (c *Client) WithTx(ctx context.Context, lockKeys []string, fn func(tx Store) error) (err error) {
	keys := slices.Clone(lockKeys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	if c.drv == nil {
		if err := c.lock(ctx, keys); err != nil {
			return err
		}
		return fn(c)
	}

	tx, err := c.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()

	txc := &Client{conn: tx, slow: c.slow}
	if err := txc.lock(ctx, keys); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := fn(txc); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapErr(fmt.Errorf("commit: %w", err))
	}
	return nil
}

func (c *Client) lock(ctx context.Context, keys []string) error {
	for _, k := range keys {
		if err := c.conn.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", []any{k}, nil); err != nil {
			return fmt.Errorf("advisory lock %q: %w", k, err)
		}
	}
	return nil
}

// query runs q and calls each for every returned row.
func (c *Client) query(ctx context.Context, q entsql.Querier, each func(sc entsql.ColumnScanner) error) error {
	query, args := q.Query()
	defer c.observe(ctx, query, time.Now())
	var rows entsql.Rows
	if err := c.conn.Query(ctx, query, args, &rows); err != nil {
		return mapErr(err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := each(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// queryOne is query for a single row; no row yields ErrNotFound.
func (c *Client) queryOne(ctx context.Context, q entsql.Querier, scan func(sc entsql.ColumnScanner) error) error {
	found := false
	err := c.query(ctx, q, func(sc entsql.ColumnScanner) error {
		if found {
			return nil
		}
		found = true
		return scan(sc)
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// exec runs q and returns the number of affected rows.
func (c *Client) exec(ctx context.Context, q entsql.Querier) (int64, error) {
	query, args := q.Query()
	defer c.observe(ctx, query, time.Now())
	var res sql.Result
	if err := c.conn.Exec(ctx, query, args, &res); err != nil {
		return 0, mapErr(err)
	}
	return res.RowsAffected()
}

// execOne is exec for statements addressing exactly one row.
func (c *Client) execOne(ctx context.Context, q entsql.Querier) error {
	n, err := c.exec(ctx, q)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Client) observe(ctx context.Context, query string, start time.Time) {
	if c.slow <= 0 {
		return
	}
	if d := time.Since(start); d >= c.slow {
		slog.WarnContext(ctx, "database: slow query", "duration_ms", d.Milliseconds(), "query", query)
	}
}

func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgExclusionViolation:
			return fmt.Errorf("%w (%s)", ErrConflict, pqErr.Constraint)
		case pgUniqueViolation:
			return fmt.Errorf("%w (%s)", ErrDuplicate, pqErr.Constraint)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w (%s)", ErrNotFound, pqErr.Constraint)
		}
	}
	return err
}
