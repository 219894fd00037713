package session_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deployDoc = strings.Join([]string{
	"# Checklist",
	"%%workflow start%%",
	"# Deploy",
	"- Build",
	"%%workflow get version%%",
	"- Tag",
	"%%workflow if version = 1.0%%",
	"- Announce",
	"- Done",
	"%%workflow end%%",
	"trailer",
}, "\n")

func openDeploy(t *testing.T, opts ...session.ControllerOption) (*session.Controller, *memory.Documents) {
	t.Helper()
	docs := memory.NewDocuments(map[string]string{"deploy.md": deployDoc})
	c := session.NewController(session.NewStoredDocument(docs, "deploy.md", 3), opts...)
	_, err := c.Open(context.Background())
	require.NoError(t, err)
	return c, docs
}

func read(t *testing.T, docs *memory.Documents) []string {
	t.Helper()
	text, err := docs.Read(context.Background(), "deploy.md")
	require.NoError(t, err)
	return strings.Split(text, "\n")
}

func TestController_Open(t *testing.T) {
	c, _ := openDeploy(t)

	step, err := c.Step()
	require.NoError(t, err)
	assert.Equal(t, 3, step.Line)
	assert.Equal(t, []string{"Deploy"}, step.Context)
	assert.Equal(t, []string{"- Build"}, step.Text)
	assert.Equal(t, []domain.Prompt{{Name: "version", Position: 4}}, step.Prompts)
	assert.False(t, step.HasPrevious)
	assert.True(t, step.HasNext)
	assert.NotEmpty(t, c.Session().ID)
}

func TestController_AnswerNextAndCancel(t *testing.T) {
	ctx := context.Background()
	c, docs := openDeploy(t)

	_, err := c.Answer(ctx, "version", "1.0")
	require.NoError(t, err)
	assert.True(t, c.Unsaved())

	// The holding conditional pulls its guarded step into the text inline.
	step, err := c.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"- Tag", "- Announce"}, step.Text)
	assert.Equal(t, map[string]string{"version": "1.0"}, step.Variables)

	lines := read(t, docs)
	assert.Equal(t, "%%workflow got version%%", lines[4])
	assert.Equal(t, "%%workflow set_temp version = 1.0%%", lines[5])
	assert.Equal(t, "%%workflow here%%", lines[6])
	assert.Equal(t, "- Tag", lines[7])
	assert.Equal(t, 7, step.Line)

	step, err = c.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"- Announce"}, step.Text)

	lines = read(t, docs)
	assert.Equal(t, 1, strings.Count(strings.Join(lines, "\n"), "%%workflow here%%"))
	assert.Equal(t, "%%workflow here%%", lines[step.Line-1])

	step, err = c.Previous(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, step.Line)
	assert.Equal(t, "%%workflow here%%", read(t, docs)[6])

	require.NoError(t, c.Cancel(ctx))
	text, err := docs.Read(ctx, "deploy.md")
	require.NoError(t, err)
	assert.Equal(t, deployDoc, text)

	_, err = c.Next(ctx)
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
}

func TestController_ConditionalBranch(t *testing.T) {
	ctx := context.Background()
	c, _ := openDeploy(t)

	_, err := c.Answer(ctx, "version", "2.0")
	require.NoError(t, err)
	_, err = c.Next(ctx)
	require.NoError(t, err)

	step, err := c.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"- Done"}, step.Text)
	assert.True(t, step.Last())
}

func TestController_Complete(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	c, docs := openDeploy(t, session.WithManager(session.NewManager(store)))

	assert.ErrorIs(t, c.Complete(ctx), domain.ErrIncomplete)

	for {
		step, err := c.Step()
		require.NoError(t, err)
		if step.Last() {
			break
		}
		_, err = c.Next(ctx)
		require.NoError(t, err)
	}
	require.NoError(t, c.Complete(ctx))

	text, err := docs.Read(ctx, "deploy.md")
	require.NoError(t, err)
	assert.Equal(t, deployDoc, text)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestController_SaveKeepsPosition(t *testing.T) {
	ctx := context.Background()
	c, docs := openDeploy(t)

	_, err := c.Answer(ctx, "version", "1.0")
	require.NoError(t, err)
	step, err := c.Save(ctx)
	require.NoError(t, err)

	assert.False(t, c.Unsaved())
	assert.Empty(t, step.Prompts)
	assert.Equal(t, 3, step.Line)
	assert.Equal(t, "%%workflow set_temp version = 1.0%%", read(t, docs)[5])
}

func TestController_PreviousDiscardsAnswers(t *testing.T) {
	ctx := context.Background()
	c, docs := openDeploy(t)

	_, err := c.Answer(ctx, "version", "1.0")
	require.NoError(t, err)
	step, err := c.Previous(ctx)
	require.NoError(t, err)

	assert.False(t, c.Unsaved())
	assert.Equal(t, []domain.Prompt{{Name: "version", Position: 5}}, step.Prompts)
	assert.Equal(t, "%%workflow here%%", read(t, docs)[3])
}

func TestController_StalePrompt(t *testing.T) {
	ctx := context.Background()
	c, docs := openDeploy(t)

	_, err := c.Answer(ctx, "version", "1.0")
	require.NoError(t, err)

	lines := read(t, docs)
	lines[4] = "edited elsewhere"
	require.NoError(t, docs.Write(ctx, "deploy.md", strings.Join(lines, "\n")))

	_, err = c.Save(ctx)
	assert.ErrorIs(t, err, domain.ErrStalePrompt)
}

func TestController_InvalidAnswer(t *testing.T) {
	c, _ := openDeploy(t)

	_, err := c.Answer(context.Background(), "version", "a = b")
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)

	_, err = c.Answer(context.Background(), "unknown", "x")
	assert.ErrorIs(t, err, domain.ErrUnknownPrompt)
}

func TestController_OpenErrors(t *testing.T) {
	ctx := context.Background()

	docs := memory.NewDocuments(map[string]string{"broken.md": "%%workflow start%%\n- a"})
	_, err := session.NewController(session.NewStoredDocument(docs, "broken.md", 0)).Open(ctx)
	assert.ErrorIs(t, err, domain.ErrMissingEndMarker)

	_, err = session.NewController(session.NewStoredDocument(docs, "missing.md", 0)).Open(ctx)
	assert.ErrorIs(t, err, domain.ErrNoActiveDocument)

	_, err = session.NewController(nil).Open(ctx)
	assert.ErrorIs(t, err, domain.ErrNoActiveDocument)
}

func TestController_Hooks(t *testing.T) {
	ctx := context.Background()
	var enters, leaves, captures int
	var ended domain.SessionStatus

	hooks := domain.LifecycleHooks{
		OnStepEnter:     func(context.Context, *domain.StepEvent) { enters++ },
		OnStepLeave:     func(context.Context, *domain.StepEvent) { leaves++ },
		OnPromptCapture: func(_ context.Context, e *domain.PromptEvent) { captures++; assert.Equal(t, "version", e.Prompt.Name) },
		OnSessionEnd:    func(_ context.Context, e *domain.SessionEvent) { ended = e.Status },
	}
	c, _ := openDeploy(t, session.WithHooks(hooks))

	_, err := c.Answer(ctx, "version", "1.0")
	require.NoError(t, err)
	_, err = c.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Cancel(ctx))

	assert.Equal(t, 2, enters)
	assert.Equal(t, 2, leaves)
	assert.Equal(t, 1, captures)
	assert.Equal(t, domain.StatusCancelled, ended)
}

func TestController_Reload(t *testing.T) {
	ctx := context.Background()
	c, docs := openDeploy(t)

	_, err := c.Next(ctx)
	require.NoError(t, err)

	lines := read(t, docs)
	lines = append(lines[:2], append([]string{"added intro"}, lines[2:]...)...)
	require.NoError(t, docs.Write(ctx, "deploy.md", strings.Join(lines, "\n")))

	step, err := c.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"- Tag"}, step.Text)
	assert.Equal(t, 7, step.Line)
}

func TestController_Changed(t *testing.T) {
	ctx := context.Background()
	c, docs := openDeploy(t)

	_, err := c.Next(ctx)
	require.NoError(t, err)
	changed, err := c.Changed(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "own writes are not external changes")

	require.NoError(t, docs.Write(ctx, "deploy.md", strings.Join(read(t, docs), "\n")+"\nappended"))
	changed, err = c.Changed(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = c.Reload(ctx)
	require.NoError(t, err)
	changed, err = c.Changed(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
}
