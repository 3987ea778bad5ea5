// Package store provides PostgreSQL persistence for user-owned records.
//
// Every query is scoped by owner_id so one subject can never read or
// mutate another subject's rows. Stores are safe for concurrent use.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound indicates the requested row does not exist for the owner.
var ErrNotFound = errors.New("record not found")

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
