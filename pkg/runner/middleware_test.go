package runner

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitForCancel as a scripted input blocks until the context is done.
const waitForCancel = "\x00wait"

// MockIOHandler replays scripted input and captures everything written.
type MockIOHandler struct {
	CapturedOutput []domain.ActionRequest
	Inputs         []string
}

func (m *MockIOHandler) Output(ctx context.Context, actions []domain.ActionRequest) error {
	m.CapturedOutput = append(m.CapturedOutput, actions...)
	return nil
}

func (m *MockIOHandler) Input(ctx context.Context) (string, error) {
	if len(m.Inputs) == 0 {
		return "", io.EOF
	}
	next := m.Inputs[0]
	m.Inputs = m.Inputs[1:]
	if next == waitForCancel {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return next, nil
}

func (m *MockIOHandler) SystemOutput(ctx context.Context, msg string) error {
	m.CapturedOutput = append(m.CapturedOutput, domain.ActionRequest{Type: domain.ActionSystemMessage, Payload: msg})
	return nil
}

// Messages returns the system messages captured so far.
func (m *MockIOHandler) Messages() []string {
	var out []string
	for _, act := range m.CapturedOutput {
		if act.Type == domain.ActionSystemMessage {
			out = append(out, act.Payload.(string))
		}
	}
	return out
}

func TestConfirmationMiddleware_Allow(t *testing.T) {
	mock := &MockIOHandler{Inputs: []string{"Y"}}

	allowed, err := ConfirmationMiddleware(mock)(context.Background(), Command{Kind: CommandCancel})
	require.NoError(t, err)
	assert.True(t, allowed)
	require.Len(t, mock.Messages(), 1)
	assert.Contains(t, mock.Messages()[0], "Continue? [y/N]")
}

func TestConfirmationMiddleware_Deny(t *testing.T) {
	mock := &MockIOHandler{Inputs: []string{"n"}}

	allowed, err := ConfirmationMiddleware(mock)(context.Background(), Command{Kind: CommandCancel})
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestConfirmationMiddleware_PassesOtherCommands(t *testing.T) {
	mock := &MockIOHandler{}

	allowed, err := ConfirmationMiddleware(mock)(context.Background(), Command{Kind: CommandNext})
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Empty(t, mock.CapturedOutput)
}

func TestMultiInterceptor(t *testing.T) {
	calls := 0
	denyAll := func(ctx context.Context, cmd Command) (bool, error) {
		calls++
		return false, nil
	}

	chain := MultiInterceptor(AutoApproveMiddleware(), denyAll, denyAll)

	allowed, err := chain(context.Background(), Command{Kind: CommandCancel})
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 1, calls, "MultiInterceptor should stop at first denial")
}

func TestMockIOHandler_Messages(t *testing.T) {
	mock := &MockIOHandler{}
	require.NoError(t, mock.SystemOutput(context.Background(), "hello"))
	assert.True(t, strings.HasPrefix(mock.Messages()[0], "hello"))
}
