// Package postgres provides PostgreSQL implementations of the store
// interfaces, backed by database/sql with the pgx driver, together with the
// embedded goose migrations that create the schema.
//
// All stores accept a store.DBTX so they run equally against a connection
// pool or inside a transaction.
package postgres
