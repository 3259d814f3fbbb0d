// Package postgres contains the PostgreSQL implementations of the store
// interfaces defined in internal/store. The concurrency-sensitive session and
// achievement operations are pushed down to single SQL statements so that the
// database, not the application, arbitrates races: a partial unique index
// keeps at most one active session per (user, simulation), snapshot appends
// are a single conditional UPDATE on the jsonb column, and duplicate awards
// are absorbed by ON CONFLICT DO NOTHING.
package postgres
