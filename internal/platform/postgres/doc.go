// Package postgres implements the store interfaces on PostgreSQL through
// database/sql and the pgx driver, and runs the embedded goose migrations.
//
// Every task query is built on ownerScope so that rows of other users are
// never visible.
package postgres
