// Package store defines the persistence interfaces for users and tasks,
// the sentinel errors every driver maps its failures to, and the
// transaction helper used by SQL-backed drivers.
//
// Drivers live under internal/platform (postgres, mongo). Business logic
// depends only on these interfaces.
package store
