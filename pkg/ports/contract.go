package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(sessionID, "notes/checklist.md")
		s.Line = 12
		s.Context = []string{"Release", "Tagging"}
		s.Variables["version"] = "1.2.0"
		s.Prompts = []domain.Prompt{{Name: "approver", Position: 14}}

		err := store.Save(ctx, sessionID, s)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, s.DocumentID, loaded.DocumentID)
		assert.Equal(t, s.Status, loaded.Status)
		assert.Equal(t, 12, loaded.Line)
		assert.Equal(t, s.Context, loaded.Context)
		assert.Equal(t, "1.2.0", loaded.Variables["version"])
		assert.Equal(t, s.Prompts, loaded.Prompts)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewSession(sessionID, "doc.md"))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1, "doc.md"))
		_ = store.Save(ctx, id2, domain.NewSession(id2, "doc.md"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunDocumentStoreContract verifies that a DocumentStore implementation
// round-trips full texts, including blank and trailing lines.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	id := "contract-doc-" + time.Now().Format("20060102150405")
	text := "# Checklist\n\n%%workflow start%%\n- one\n- two\n%%workflow end%%\n"

	t.Run("Write and Read", func(t *testing.T) {
		require.NoError(t, store.Write(ctx, id, text))

		got, err := store.Read(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, text, got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Write(ctx, id, "- replaced"))

		got, err := store.Read(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "- replaced", got)
	})

	t.Run("Read Non-Existent", func(t *testing.T) {
		_, err := store.Read(ctx, "missing-"+id)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("List", func(t *testing.T) {
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id)
	})
}
