// Package postgres implements the store interfaces and the task store on
// PostgreSQL through the pgx database/sql driver, and embeds the goose
// migrations that create the schema.
package postgres
