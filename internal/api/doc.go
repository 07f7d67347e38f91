// Package api exposes review generation, review playback feedback and
// notifications over HTTP. Handlers resolve the caller from the owner header
// set by middleware.RequireOwner, decode and validate JSON bodies, and map
// service and store errors onto status codes in errors.go.
package api
