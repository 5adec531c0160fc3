// Package storage implements the persistence collaborators on Postgres.
//
// Every method checks out its own connection and releases it on return; the
// consumer loops call into this layer from a single long-lived goroutine and
// must not accumulate idle connections.
package storage

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// builder is the shared statement builder with Postgres placeholders.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*sqlx.DB, error) {
	return sqlx.Connect("postgres", dsn)
}
