package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedder_UnitLengthAndDeterministic(t *testing.T) {
	// Given: a static embedder
	e := NewStaticEmbedder()
	ctx := context.Background()

	// When: embedding the same text twice
	a, err := e.Embed(ctx, "The cat sat on the mat")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "The cat sat on the mat")
	require.NoError(t, err)

	// Then: vectors are identical and unit length
	assert.Len(t, a, StaticDimensions)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, vectorMagnitude(a), 1e-5)
}

func TestStaticEmbedder_EmptyIsZeroVector(t *testing.T) {
	e := NewStaticEmbedder()

	for _, text := range []string{"", "   \n\t"} {
		vec, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.Len(t, vec, StaticDimensions)
		assert.Zero(t, vectorMagnitude(vec))
	}
}

func TestStaticEmbedder_OverlapScoresHigher(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	base, _ := e.Embed(ctx, "machine learning models")
	near, _ := e.Embed(ctx, "machine learning model")
	far, _ := e.Embed(ctx, "banana bread recipe")

	assert.Greater(t, dot(base, near), dot(base, far))
}

func TestStaticEmbedder_CaseAndPunctuationInsensitive(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	a, _ := e.Embed(ctx, "Hello, World!")
	b, _ := e.Embed(ctx, "hello world")

	assert.InDelta(t, 1.0, dot(a, b), 1e-5)
}

func TestStaticEmbedder_BatchAndClose(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	vecs, err := e.EmbedBatch(ctx, []string{"one", "two", ""})
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
	assert.Equal(t, StaticModelName, e.ModelName())
	assert.True(t, e.Available(ctx))

	require.NoError(t, e.Close())
	assert.False(t, e.Available(ctx))
	_, err = e.Embed(ctx, "x")
	assert.Error(t, err)
}
