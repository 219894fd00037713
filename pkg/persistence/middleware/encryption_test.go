package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"

	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func sealed(t *testing.T, cfg middleware.EncryptionConfig) middleware.Middleware {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	store := sealed(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)

	s := domain.NewSession("s1", "notes/deploy.md")
	s.Line = 7
	s.Context = []string{"Deploy"}
	s.Variables["token"] = "my-secret-sauce"
	require.NoError(t, store.Save(ctx, "s1", s))

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, raw.Variables, "token")
	assert.Contains(t, raw.Variables, middleware.EnvelopeKey)
	assert.Empty(t, raw.Context)
	assert.Equal(t, "notes/deploy.md", raw.DocumentID, "resume fields stay readable")
	assert.Equal(t, 7, raw.Line)

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.Variables["token"])
	assert.Equal(t, []string{"Deploy"}, loaded.Context)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	oldStore := sealed(t, middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	s := domain.NewSession("s1", "deploy.md")
	s.Variables["data"] = "old"
	require.NoError(t, oldStore.Save(ctx, "s1", s))

	newStore := sealed(t, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})(underlying)
	loaded, err := newStore.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "old", loaded.Variables["data"])

	loaded.Variables["data"] = "new"
	require.NoError(t, newStore.Save(ctx, "s1", loaded))

	_, err = oldStore.Load(ctx, "s1")
	assert.Error(t, err, "the old key alone cannot open snapshots sealed with the new one")
}

func TestEncryptionMiddleware_PlainSnapshot(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	require.NoError(t, underlying.Save(ctx, "plain", domain.NewSession("plain", "deploy.md")))

	_, err := sealed(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying).Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.Error(t, err)
}

func TestParseKeys(t *testing.T) {
	active, old := generateKey(t), generateKey(t)
	cfg, err := middleware.ParseKeys(
		base64.StdEncoding.EncodeToString(active),
		base64.StdEncoding.EncodeToString(old),
	)
	require.NoError(t, err)
	assert.Equal(t, active, cfg.ActiveKey)
	assert.Equal(t, [][]byte{old}, cfg.FallbackKeys)

	_, err = middleware.ParseKeys("not base64!")
	assert.Error(t, err)
}
