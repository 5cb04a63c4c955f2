package cmd

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/simscore/internal/api"
	"github.com/Aman-CERP/simscore/internal/config"
	simerrors "github.com/Aman-CERP/simscore/internal/errors"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	setupTestEnv(t)
	cfg := config.NewConfig()
	cfg.Embeddings.Provider = config.ProviderStatic
	cfg.Telemetry.Enabled = false

	a, err := newApp(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestLocalCompare(t *testing.T) {
	// Given: an in-process service
	a := newTestApp(t)
	compare := localCompare(a.svc)

	// When: comparing texts that differ only in case and spacing
	view, err := compare(context.Background(), "Quantum  Physics", "quantum physics", "lexical")

	// Then: the view keeps the raw texts and reports the score
	require.NoError(t, err)
	assert.Equal(t, "Quantum  Physics", view.Text1)
	assert.Equal(t, 1.0, view.Score)
	assert.Equal(t, "TF-IDF", view.Method)
	assert.Equal(t, "100.00%", view.Percentage)
}

func TestLocalCompare_InvalidMethod(t *testing.T) {
	a := newTestApp(t)

	_, err := localCompare(a.svc)(context.Background(), "a", "b", "fuzzy")

	assert.Equal(t, simerrors.ErrCodeInvalidMethod, simerrors.GetCode(err))
}

func TestRemoteCompare(t *testing.T) {
	// Given: the HTTP API backed by the same service
	a := newTestApp(t)
	srv := httptest.NewServer(api.NewRouter(api.NewHandler(a.svc, a.handle, a.metrics, 0)))
	t.Cleanup(srv.Close)
	compare := remoteCompare(api.NewClient(srv.URL, 0))

	// When: comparing through the client
	view, err := compare(context.Background(), "a b c", "a b c", "semantic")

	// Then: the server's answer is shown
	require.NoError(t, err)
	assert.Equal(t, "Semantic (static-hash)", view.Method)
	assert.InDelta(t, 1.0, view.Score, 1e-4)
	assert.Equal(t, "a b c", view.Text2)

	_, err = compare(context.Background(), "a", "b", "fuzzy")
	assert.Equal(t, simerrors.ErrCodeInvalidMethod, simerrors.GetCode(err))
}

func TestTUICmd_Flags(t *testing.T) {
	cmd := newTUICmd()

	assert.NotNil(t, cmd.Flags().Lookup("server"))
	assert.NotNil(t, cmd.Flags().Lookup("no-color"))
}
