// Package logger configures the process-wide slog logger from ServerConfig
// and carries scoped loggers through context.Context, so stores, tasks and
// handlers log with the trace, owner or task fields of their caller.
package logger
