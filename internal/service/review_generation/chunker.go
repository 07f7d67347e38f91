package review_generation

// Default chunk bounds.
const (
	DefaultMinChunkSize = 5
	DefaultMaxChunkSize = 7
)

// Chunk partitions items into order-preserving groups of between minSize
// and maxSize elements. While at least maxSize+minSize items remain it
// emits a full chunk; after that it emits chunks of up to maxSize while at
// least minSize remain. A trailing remainder smaller than minSize is
// dropped: those items stay eligible and are picked up by a later run.
func Chunk[T any](items []T, minSize, maxSize int) [][]T {
	if minSize < 1 {
		minSize = DefaultMinChunkSize
	}
	if maxSize < minSize {
		maxSize = minSize
	}

	var chunks [][]T
	rest := items
	for len(rest) >= maxSize+minSize {
		chunks = append(chunks, rest[:maxSize:maxSize])
		rest = rest[maxSize:]
	}
	for len(rest) >= minSize {
		n := min(len(rest), maxSize)
		chunks = append(chunks, rest[:n:n])
		rest = rest[n:]
	}
	return chunks
}
