package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIEmbedder_EmbedsThroughEndpoint(t *testing.T) {
	// Given: an OpenAI-compatible server
	srv, calls := newFakeOpenAI(t)

	// When: creating the embedder
	e, err := NewOpenAIEmbedder(context.Background(), OpenAIConfig{
		BaseURL: srv.URL + "/v1",
		Model:   "sentence-transformers/all-MiniLM-L6-v2",
	})
	require.NoError(t, err)

	// Then: the dimension probe hit the endpoint
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, StaticDimensions, e.Dimensions())
	assert.Equal(t, "sentence-transformers/all-MiniLM-L6-v2", e.ModelName())

	// And: batches come back normalized and in order
	vecs, err := e.EmbedBatch(context.Background(), []string{"alpha beta", "gamma delta"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	want, _ := NewStaticEmbedder().Embed(context.Background(), "gamma delta")
	assert.InDeltaSlice(t, want, vecs[1], 1e-6)
	assert.InDelta(t, 1.0, vectorMagnitude(vecs[0]), 1e-5)
}

func TestOpenAIEmbedder_RequiresBaseURL(t *testing.T) {
	_, err := NewOpenAIEmbedder(context.Background(), OpenAIConfig{Model: "m"})
	assert.Error(t, err)
}

func TestOpenAIEmbedder_UnreachableFailsAtLoad(t *testing.T) {
	_, err := NewOpenAIEmbedder(context.Background(), OpenAIConfig{
		BaseURL: "http://127.0.0.1:1/v1",
		Model:   "m",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach embeddings endpoint")
}

func TestOpenAIEmbedder_Close(t *testing.T) {
	srv, _ := newFakeOpenAI(t)
	e, err := NewOpenAIEmbedder(context.Background(), OpenAIConfig{BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	require.NoError(t, e.Close())
	assert.False(t, e.Available(context.Background()))
	_, err = e.Embed(context.Background(), "x")
	assert.Error(t, err)
}
