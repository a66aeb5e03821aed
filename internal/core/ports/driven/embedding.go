package driven

import "context"

// EmbeddingProvider maps text to a fixed-dimension vector. It is treated as
// an opaque, externally thread-safe collaborator; the service validates the
// returned vector's length against the library's configured dimension.
//
// Implementations may include a local deterministic provider for tests and
// an HTTP-based provider backed by a real embedding API.
type EmbeddingProvider interface {
	// Embed generates a vector embedding for the given text. Returns
	// domain.ErrProviderUnavailable or domain.ErrRateLimited on failure.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size produced by this
	// provider.
	Dimensions() int
}
