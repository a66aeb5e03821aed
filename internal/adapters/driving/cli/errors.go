package cli

import (
	"errors"

	"github.com/custodia-labs/vectordb/internal/core/domain"
)

// exitCodeFor maps a domain error kind to a process exit code, the CLI
// analogue of the HTTP status translation a driving adapter would perform
// at its edge (404/409/422/503 there, distinct small integers here).
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrParentMissing):
		return 4
	case errors.Is(err, domain.ErrDuplicate):
		return 5
	case errors.Is(err, domain.ErrDimensionMismatch), errors.Is(err, domain.ErrInvalidParameter):
		return 6
	case errors.Is(err, domain.ErrProviderUnavailable), errors.Is(err, domain.ErrRateLimited):
		return 7
	case errors.Is(err, domain.ErrInternal), errors.Is(err, domain.ErrIndexNotBuilt):
		return 8
	default:
		return 1
	}
}
