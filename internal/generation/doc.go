// Package generation turns a chunk of flashcards into speech-synthesis
// markup. ContentGenerator runs two text-generation calls, a short story
// built from the cards followed by markup built from the story and the
// original sentences, through a TextGenerator implemented by an LLM
// provider (Gemini or OpenAI) in internal/platform.
package generation
