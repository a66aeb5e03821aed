package local

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectordb/internal/vectormath"
)

func TestEmbed_DeterministicForSameText(t *testing.T) {
	p := New(16)
	a, err := p.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	b, err := p.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEmbed_DifferentTextDifferentVector(t *testing.T) {
	p := New(16)
	a, err := p.Embed(context.Background(), "hello")
	require.NoError(t, err)
	b, err := p.Embed(context.Background(), "goodbye")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEmbed_ReturnsUnitNormVectorOfConfiguredDimension(t *testing.T) {
	p := New(32)
	v, err := p.Embed(context.Background(), "some chunk of text")
	require.NoError(t, err)
	assert.Len(t, v, 32)
	assert.InDelta(t, 1.0, vectormath.Norm(v), 1e-5)
	assert.Equal(t, 32, p.Dimensions())
}

func TestEmbed_RespectsCancelledContext(t *testing.T) {
	p := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Embed(ctx, "text")
	require.Error(t, err)
}
