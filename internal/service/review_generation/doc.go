// Package review_generation starts review audio generation for a deck.
//
// A Dispatcher holds a per-deck DeckLock while it selects the deck's
// reviewable cards, partitions them into chunks, persists a pending review
// file per chunk and submits one review_chunk task per file.
package review_generation
