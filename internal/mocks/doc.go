// Package mocks provides centralized mock implementations for testing.
//
// Mocks are structs with one function field per interface method. A nil
// function field falls back to the mock's default return values, so a test
// only sets the behaviour it cares about:
//
//	cards := &mocks.MockCardStore{
//	    ListReviewableFn: func(ctx context.Context, deckID uuid.UUID, today time.Time) ([]*domain.Card, error) {
//	        return dueCards, nil
//	    },
//	}
//
// When adding a new mock to this package:
//  1. Create a new file named after the interface being mocked
//  2. Implement the mock struct with function fields for each interface method
//  3. Add a compile-time assertion against the interface
package mocks
