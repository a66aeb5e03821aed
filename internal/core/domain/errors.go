package domain

import "errors"

// Domain errors represent business logic failures surfaced at the service
// boundary. None of these are swallowed internally; every call site either
// returns one unchanged or wraps it with fmt.Errorf's %w so errors.Is still
// matches.
var (
	// Entity lookup errors.

	// ErrNotFound indicates a requested library, document, or chunk id does
	// not resolve in its repository.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates an id collision on insert into an index or
	// repository.
	ErrDuplicate = errors.New("duplicate id")

	// ErrParentMissing indicates a foreign key (document's library,
	// chunk's document) points at an entity that does not exist.
	ErrParentMissing = errors.New("parent entity missing")

	// Vector and parameter validation errors.

	// ErrDimensionMismatch indicates a vector's length does not equal the
	// library's configured embedding dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidParameter indicates a caller-supplied parameter is out of
	// range or otherwise nonsensical (k < 1, unknown index kind, negative
	// LSH table/bit counts).
	ErrInvalidParameter = errors.New("invalid parameter")

	// Embedding provider errors. Surfaced unchanged from the provider.

	// ErrProviderUnavailable indicates the embedding provider could not be
	// reached or returned a server-side failure.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrRateLimited indicates the embedding provider rejected the request
	// due to rate limiting.
	ErrRateLimited = errors.New("embedding provider rate limited")

	// Invariant violations.

	// ErrInternal indicates a broken internal invariant, e.g. the index
	// holds a chunk id that does not resolve in the chunk repository. This
	// is always a bug; rebuild_index is the documented recovery path.
	ErrInternal = errors.New("internal invariant violation")

	// ErrIndexNotBuilt indicates a search was attempted against a library
	// whose index has not been built. None of the current index kinds
	// returns it, since all three index every chunk on insert.
	ErrIndexNotBuilt = errors.New("index not built")
)
