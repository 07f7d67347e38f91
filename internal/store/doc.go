// Package store declares the persistence boundary for cards, review files,
// notifications and deck locks, plus the sentinel errors every backend maps
// its failures onto. Services depend on these interfaces; the Postgres and
// in-memory implementations live in platform/postgres and mocks.
package store
