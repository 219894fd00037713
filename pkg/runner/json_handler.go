package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// JSONHandler implements IOHandler for structured JSON-Lines communication.
// Each Output is one line holding the action array. Input accepts a JSON
// string, a command object ({"command":"answer","name":"v","value":"1"}) or
// plain text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, actions []domain.ActionRequest) error {
	if len(actions) == 0 {
		return nil
	}
	return h.Encoder.Encode(actions)
}

// Input reads one line. It does not honour cancellation while blocked on
// the reader; headless hosts close the stream instead.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return SanitizeInput(val)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err == nil {
		var cmd Command
		if err := mapstructure.WeakDecode(raw, &cmd); err != nil {
			return "", fmt.Errorf("invalid command object: %w", err)
		}
		return SanitizeInput(cmd.String())
	}

	return SanitizeInput(text)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode([]domain.ActionRequest{{Type: domain.ActionSystemMessage, Payload: msg}})
}
