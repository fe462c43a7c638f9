//go:build nasa

package neows

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real NeoWs API. NASA_API_KEY defaults to DEMO_KEY,
// which is heavily rate limited.
// Run with: go test -tags=nasa ./internal/adapter/neows/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	key := os.Getenv("NASA_API_KEY")
	if key == "" {
		key = "DEMO_KEY"
	}
	return &Client{
		apiKey:     key,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    DefaultBaseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSmoke_FetchEros(t *testing.T) {
	c := smokeClient(t)

	a, err := c.FetchByID(context.Background(), "2000433")
	require.NoError(t, err)

	assert.Contains(t, a.Name, "Eros")
	assert.Greater(t, a.DiameterM, 10_000.0)
	assert.Greater(t, a.SpeedMps, 0.0)
	assert.Greater(t, a.MassKg, 0.0)
}

func TestSmoke_UnknownID(t *testing.T) {
	c := smokeClient(t)

	_, err := c.FetchByID(context.Background(), "999999999999")
	require.ErrorIs(t, err, domain.ErrAsteroidNotFound)
}

func TestSmoke_CachedProvider(t *testing.T) {
	c := smokeClient(t)
	cached := NewCachedProvider(c, 10, observability.NewMetricsForTesting())

	a1, err := cached.FetchByID(context.Background(), "3542519")
	require.NoError(t, err)
	a2, err := cached.FetchByID(context.Background(), "3542519")
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
}
