package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{"password", "^ssn"})
	require.NoError(t, err)
	store := mw(underlying)

	s := domain.NewSession("pii", "deploy.md")
	s.Variables["username"] = "jdoe"
	s.Variables["db_password"] = "secret123"
	s.Variables["ssn_number"] = "999-99-9999"
	require.NoError(t, store.Save(ctx, "pii", s))

	assert.Equal(t, "secret123", s.Variables["db_password"], "caller snapshot is untouched")

	raw, err := underlying.Load(ctx, "pii")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", raw.Variables["username"])
	assert.Equal(t, middleware.Mask, raw.Variables["db_password"])
	assert.Equal(t, middleware.Mask, raw.Variables["ssn_number"])
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain_MasksBeforeSealing(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()

	key := make([]byte, 32)
	seal, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	require.NoError(t, err)
	mask, err := middleware.NewPIIMiddleware([]string{"token"})
	require.NoError(t, err)

	store := middleware.Chain(underlying, mask, seal)
	s := domain.NewSession("c1", "deploy.md")
	s.Variables["token"] = "abc"
	require.NoError(t, store.Save(ctx, "c1", s))

	loaded, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Variables["token"])
}
