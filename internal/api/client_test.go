package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/simscore/internal/embed"
	simerrors "github.com/Aman-CERP/simscore/internal/errors"
)

func TestClient_CompareTexts(t *testing.T) {
	// Given: a running API
	srv, _ := newTestServer(t, staticHandle(), 0)
	c := NewClient(srv.URL+"/", 0)

	// When: comparing identical texts
	resp, err := c.CompareTexts(context.Background(), "Quantum physics", "quantum physics", "lexical")

	// Then: the server response is decoded
	require.NoError(t, err)
	assert.Equal(t, 1.0, resp.SimilarityScore)
	assert.Equal(t, "TF-IDF", resp.MethodUsed)
	assert.Equal(t, "100.00%", resp.PercentageSimilarity)
}

func TestClient_CompareTextsInvalidMethod(t *testing.T) {
	srv, _ := newTestServer(t, staticHandle(), 0)
	c := NewClient(srv.URL, 0)

	_, err := c.CompareTexts(context.Background(), "a", "b", "fuzzy")

	require.Error(t, err)
	assert.Equal(t, simerrors.ErrCodeInvalidMethod, simerrors.GetCode(err))
	assert.True(t, simerrors.IsClientError(err))
}

func TestClient_CompareTextsModelUnavailable(t *testing.T) {
	handle := embed.NewHandle("all-minilm", func(context.Context) (embed.Embedder, error) {
		return nil, errors.New("connection refused")
	}, time.Minute)
	srv, _ := newTestServer(t, handle, 0)
	c := NewClient(srv.URL, 0)

	_, err := c.CompareTexts(context.Background(), "a", "b", "semantic")

	var se *simerrors.SimError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, simerrors.ErrCodeModelUnavailable, se.Code)
	assert.NotEmpty(t, se.Suggestion)
	assert.NotEmpty(t, se.Details["request_id"])
}

func TestClient_Health(t *testing.T) {
	srv, _ := newTestServer(t, staticHandle(), 0)
	c := NewClient(srv.URL, 0)

	health, err := c.Health(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.True(t, health.SemanticAvailable)
	assert.True(t, health.Encoder.Loaded)
}

func TestClient_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 0)

	_, err := c.CompareTexts(context.Background(), "a", "b", "lexical")

	assert.Equal(t, simerrors.ErrCodeNetworkTimeout, simerrors.GetCode(err))
	assert.ErrorContains(t, err, "failed to reach simscore server")
}
