// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/xataio/tabprep/internal/backoff"
	loglib "github.com/xataio/tabprep/pkg/log"
)

type Conn struct {
	conn *pgx.Conn
}

type ConnOption func(*connOptions)

type connOptions struct {
	logger          loglib.Logger
	backoffProvider backoff.Provider
}

var defaultConnectBackoff = &backoff.Config{
	InitialInterval: 500 * time.Millisecond,
	MaxElapsedTime:  30 * time.Second,
	MaxRetries:      5,
}

// WithConnectBackoff configures the retries for the initial connection. A
// nil config disables them.
func WithConnectBackoff(cfg *backoff.Config) ConnOption {
	return WithBackoffProvider(backoff.NewProvider(cfg))
}

func WithBackoffProvider(p backoff.Provider) ConnOption {
	return func(o *connOptions) {
		o.backoffProvider = p
	}
}

func WithLogger(l loglib.Logger) ConnOption {
	return func(o *connOptions) {
		o.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField: "postgres_conn",
		})
	}
}

// NewConn connects to the postgres url, retrying transient connection
// failures. Invalid connection strings are not retried.
func NewConn(ctx context.Context, url string, opts ...ConnOption) (*Conn, error) {
	o := &connOptions{
		logger:          loglib.NewNoopLogger(),
		backoffProvider: backoff.NewProvider(defaultConnectBackoff),
	}
	for _, opt := range opts {
		opt(o)
	}

	pgCfg, err := ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed parsing postgres connection string: %w", MapError(err))
	}

	configureTCPKeepalive(pgCfg)

	var conn *pgx.Conn
	connect := func() error {
		var err error
		conn, err = pgx.ConnectConfig(ctx, pgCfg)
		if err != nil {
			mapped := MapError(err)
			var permissionErr *ErrPermissionDenied
			if errors.As(mapped, &permissionErr) {
				return fmt.Errorf("%w: %w", backoff.ErrPermanent, mapped)
			}
			return mapped
		}
		return nil
	}
	notify := func(err error, d time.Duration) {
		o.logger.Warn(err, "failed to connect to postgres, retrying", loglib.Fields{"backoff": d.String()})
	}

	if err := o.backoffProvider(ctx).RetryNotify(connect, notify); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &Conn{conn: conn}, nil
}

func (c *Conn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.conn.Query(ctx, query, args...)
	return rows, MapError(err)
}

func (c *Conn) Exec(ctx context.Context, query string, args ...any) (CommandTag, error) {
	tag, err := c.conn.Exec(ctx, query, args...)
	return CommandTag{tag}, MapError(err)
}

func (c *Conn) CopyFrom(ctx context.Context, tableName string, columnNames []string, srcRows [][]any) (int64, error) {
	identifier, err := newIdentifier(tableName)
	if err != nil {
		return -1, err
	}

	// CopyFrom sanitizes the identifiers itself, existing quotes would be
	// doubled
	columns := make([]string, len(columnNames))
	for i, c := range columnNames {
		columns[i] = removeQuotes(c)
	}

	n, err := c.conn.CopyFrom(ctx, identifier, columns, pgx.CopyFromRows(srcRows))
	return n, MapError(err)
}

func (c *Conn) Ping(ctx context.Context) error {
	return MapError(c.conn.Ping(ctx))
}

func (c *Conn) Close(ctx context.Context) error {
	return MapError(c.conn.Close(ctx))
}
