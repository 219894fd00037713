package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONHandler_Output(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(""), buf)

	step := domain.Step{Text: []string{"- Build"}, Prompts: []domain.Prompt{{Name: "version", Position: 4}}, HasNext: true}
	require.NoError(t, handler.Output(context.Background(), domain.StepActions(step, false)))
	require.NoError(t, handler.SystemOutput(context.Background(), "saved"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var decoded []domain.ActionRequest
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, domain.ActionRenderStep, decoded[0].Type)
	assert.Equal(t, domain.ActionRequestInput, decoded[1].Type)
	assert.Equal(t, domain.ActionOfferButtons, decoded[2].Type)

	assert.Contains(t, lines[1], `"SYSTEM_MESSAGE"`)
}

func TestJSONHandler_Input(t *testing.T) {
	input := strings.Join([]string{
		`"next"`,
		`{"command":"answer","name":"version","value":1.5}`,
		`prev`,
	}, "\n")
	handler := NewJSONHandler(strings.NewReader(input), &bytes.Buffer{})
	ctx := context.Background()

	val, err := handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "next", val)

	val, err = handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "version=1.5", val)

	val, err = handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "prev", val)

	_, err = handler.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)
}
