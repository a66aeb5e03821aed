// Package local provides a deterministic, offline embedding provider: text
// hashes to a fixed-dimension unit vector with no network dependency. It
// backs tests and the default bootstrap configuration.
package local

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/custodia-labs/vectordb/internal/core/domain"
	"github.com/custodia-labs/vectordb/internal/core/ports/driven"
	"github.com/custodia-labs/vectordb/internal/vectormath"
)

var _ driven.EmbeddingProvider = (*Provider)(nil)

// Provider is a hash-based embedding provider. Two calls with the same text
// always produce the same vector; different texts produce vectors that are
// uncorrelated but reproducible, which is enough to exercise ranking and
// filtering without a real model.
type Provider struct {
	dimensions int
}

// New returns a provider that emits vectors of the given dimension.
func New(dimensions int) *Provider {
	return &Provider{dimensions: dimensions}
}

// Embed hashes text with SHA-256, expands the digest into a stream of
// pseudo-random floats via repeated re-hashing, and L2-normalizes the
// result so every embedding has unit norm (matching what a real embedding
// model typically returns).
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vector := make([]float32, p.dimensions)
	block := sha256.Sum256([]byte(text))
	for i := 0; i < p.dimensions; i++ {
		if i > 0 && i%len(block) == 0 {
			block = sha256.Sum256(block[:])
		}
		offset := i % (len(block) - 4)
		bits := binary.BigEndian.Uint32(block[offset : offset+4])
		vector[i] = float32(bits)/float32(1<<32) - 0.5
	}

	norm := vectormath.Norm(vector)
	if norm == 0 {
		return nil, fmt.Errorf("local embed: %w: degenerate hash for empty text", domain.ErrInternal)
	}
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
	return vector, nil
}

// Dimensions returns the configured embedding width.
func (p *Provider) Dimensions() int {
	return p.dimensions
}
