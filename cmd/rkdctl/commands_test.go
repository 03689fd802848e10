package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"rkd-client/internal/auth"
	"rkd-client/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubShared struct {
	cleared bool
	stored  *cache.StoredToken
	ttl     time.Duration
	err     error
}

func (s *stubShared) Load(ctx context.Context) (*cache.StoredToken, error) {
	return s.stored, s.err
}

func (s *stubShared) TTL(ctx context.Context) (time.Duration, error) {
	return s.ttl, nil
}

func (s *stubShared) Clear(ctx context.Context) error {
	s.cleared = true
	return s.err
}

func TestJWTCommand(t *testing.T) {
	var out bytes.Buffer
	app := App()
	app.Writer = &out

	err := app.Run([]string{"rkdctl", "--log-level", "ERROR", "jwt", "--subject", "nightly-report", "--ttl", "1h", "--secret", "s3cret"})
	require.NoError(t, err)

	claims, err := auth.ValidateJWT(strings.TrimSpace(out.String()), "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "nightly-report", claims.Subject)
	assert.Equal(t, auth.ScopeToken, claims.Scope)
}

func TestJWTCommandNeedsSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	app := App()
	app.Writer = &bytes.Buffer{}

	err := app.Run([]string{"rkdctl", "jwt", "--subject", "nightly-report"})
	assert.ErrorContains(t, err, "signing secret")
}

func TestPrintShared(t *testing.T) {
	expires := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	var out bytes.Buffer

	err := printShared(context.Background(), &out, &stubShared{
		stored: &cache.StoredToken{Token: "abc123", ExpiresAt: expires, ExpiresUnix: expires.Unix()},
		ttl:    90 * time.Second,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "abc123")
	assert.Contains(t, out.String(), "2023-11-14T22:13:20Z")
	assert.Contains(t, out.String(), "1m30s")

	out.Reset()
	err = printShared(context.Background(), &out, &stubShared{err: cache.ErrTokenNotFound})
	require.NoError(t, err)
	assert.Equal(t, "No token published\n", out.String())
}

func TestClearShared(t *testing.T) {
	var out bytes.Buffer
	store := &stubShared{}

	require.NoError(t, clearShared(context.Background(), &out, store))
	assert.True(t, store.cleared)
	assert.Equal(t, "Shared token removed\n", out.String())

	err := clearShared(context.Background(), &out, &stubShared{err: cache.NewCacheError("del", errors.New("connection refused"), true)})
	assert.ErrorContains(t, err, "connection refused")
}
