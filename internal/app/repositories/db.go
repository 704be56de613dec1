package repositories

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// psql is the statement builder shared by every repository.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// squirrelNow renders as the database clock inside Set clauses.
var squirrelNow = squirrel.Expr("NOW()")

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
