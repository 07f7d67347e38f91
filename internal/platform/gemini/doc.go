// Package gemini provides an implementation of the generation.TextGenerator
// interface backed by Google's Gemini API.
//
// This package is an infrastructure adapter: it translates text requests
// into genai calls, classifies failures into the generation package's
// sentinel errors, and retries transient failures with exponential backoff.
package gemini
