// Package synthesis defines the boundary to an asynchronous speech
// synthesizer. A synthesis task is accepted immediately, runs in the
// background, writes its output to the object store and, when the request
// names a completion topic, publishes a CompletionEvent there.
package synthesis
