// Package domain holds the entities shared across memorai: cards with their
// SM-2 scheduling state, review files and the status lifecycle they move
// through while audio is produced, and owner notifications.
package domain
