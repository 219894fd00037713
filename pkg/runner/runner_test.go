package runner

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deployDoc = strings.Join([]string{
	"%%workflow start%%",
	"# Deploy",
	"- Build",
	"%%workflow get version%%",
	"- Tag",
	"%%workflow if version = 1.0%%",
	"- Announce",
	"- Done",
	"%%workflow end%%",
}, "\n")

func runScript(t *testing.T, inputs ...string) (*MockIOHandler, *memory.Documents, error) {
	t.Helper()
	ctx := context.Background()
	docs := memory.NewDocuments(map[string]string{"deploy.md": deployDoc})
	c := session.NewController(session.NewStoredDocument(docs, "deploy.md", 2))
	_, err := c.Open(ctx)
	require.NoError(t, err)

	mock := &MockIOHandler{Inputs: inputs}
	r := NewRunner(WithInputHandler(mock), WithSignals(false))
	return mock, docs, r.Run(ctx, c)
}

func document(t *testing.T, docs *memory.Documents) string {
	t.Helper()
	text, err := docs.Read(context.Background(), "deploy.md")
	require.NoError(t, err)
	return text
}

func TestRunner_CompletesWorkflow(t *testing.T) {
	mock, docs, err := runScript(t, "version=1.0", "next", "bogus", "n", "n", "done")
	require.NoError(t, err)

	assert.Equal(t, deployDoc, document(t, docs))
	messages := strings.Join(mock.Messages(), "\n")
	assert.Contains(t, messages, "unknown command")
	assert.Contains(t, messages, "workflow complete")
}

func TestRunner_QuitLeavesSessionOpen(t *testing.T) {
	mock, docs, err := runScript(t, "n", "q")
	require.NoError(t, err)

	assert.Contains(t, document(t, docs), "%%workflow here%%")
	assert.Contains(t, mock.Messages(), "session left open")
}

func TestRunner_EndOfInputWarnsAboutUnsavedAnswers(t *testing.T) {
	mock, _, err := runScript(t, "answer version 2.0")
	require.NoError(t, err)

	assert.Contains(t, mock.Messages(), "session left open; unsaved answers were discarded")
}

func TestRunner_CancelAfterConfirmation(t *testing.T) {
	mock, docs, err := runScript(t, "n", "cancel", "y")
	require.NoError(t, err)

	assert.Equal(t, deployDoc, document(t, docs))
	assert.Contains(t, mock.Messages(), "session cancelled")
}

func TestRunner_CancelDenied(t *testing.T) {
	_, docs, err := runScript(t, "n", "cancel", "no")
	require.NoError(t, err)

	assert.Contains(t, document(t, docs), "%%workflow here%%")
}

func TestRunner_ReportsCommandErrors(t *testing.T) {
	mock, _, err := runScript(t, "done", "ghost=1", "help")
	require.NoError(t, err)

	messages := strings.Join(mock.Messages(), "\n")
	assert.Contains(t, messages, "Error: workflow has remaining steps")
	assert.Contains(t, messages, "Error: no pending prompt")
	assert.Contains(t, messages, "commands:")
}

func TestRunner_ReloadOnDocumentChange(t *testing.T) {
	ctx := context.Background()
	docs := memory.NewDocuments(map[string]string{"deploy.md": deployDoc})
	c := session.NewController(session.NewStoredDocument(docs, "deploy.md", 2))
	_, err := c.Open(ctx)
	require.NoError(t, err)

	require.NoError(t, docs.Write(ctx, "deploy.md", deployDoc+"\ntrailer"))

	reload := make(chan struct{}, 1)
	reload <- struct{}{}
	mock := &MockIOHandler{Inputs: []string{waitForCancel, "q"}}
	r := NewRunner(WithInputHandler(mock), WithSignals(false), WithReloadSource(reload), WithHeadless(true))

	require.NoError(t, r.Run(ctx, c))
	assert.Contains(t, mock.Messages(), "document changed on disk; step reloaded")
}

func TestRunner_IgnoresOwnWrites(t *testing.T) {
	ctx := context.Background()
	docs := memory.NewDocuments(map[string]string{"deploy.md": deployDoc})
	c := session.NewController(session.NewStoredDocument(docs, "deploy.md", 2))
	_, err := c.Open(ctx)
	require.NoError(t, err)

	reload := make(chan struct{}, 1)
	reload <- struct{}{}
	mock := &MockIOHandler{Inputs: []string{waitForCancel, "q"}}
	r := NewRunner(WithInputHandler(mock), WithSignals(false), WithReloadSource(reload), WithHeadless(true))

	require.NoError(t, r.Run(ctx, c))
	assert.NotContains(t, mock.Messages(), "document changed on disk; step reloaded")
}

func TestRunner_InterruptedByContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	docs := memory.NewDocuments(map[string]string{"deploy.md": deployDoc})
	c := session.NewController(session.NewStoredDocument(docs, "deploy.md", 2))
	_, err := c.Open(ctx)
	require.NoError(t, err)
	cancel()

	mock := &MockIOHandler{Inputs: []string{waitForCancel}}
	err = NewRunner(WithInputHandler(mock)).Run(ctx, c)
	assert.ErrorIs(t, err, ErrInterrupted)
}
