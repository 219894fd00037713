package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/waypoint/internal/presentation/tui"
	"github.com/aretw0/waypoint/pkg/domain"
	"golang.org/x/term"
)

// ContentRenderer transforms step markdown before it is printed.
// This allows for TUI rendering (markdown to ANSI) without coupling the loop to it.
type ContentRenderer func(string) (string, error)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	// Interactive is true when input comes from a terminal; the "> " prompt
	// is only printed then.
	Interactive bool

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithInteractive overrides terminal detection.
func WithInteractive(interactive bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.Interactive = interactive
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader:      bufio.NewReader(r),
		Writer:      w,
		Interactive: IsTerminal(r),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// IsTerminal reports whether v is a file attached to a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honour cancellation.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

// Output prints the step view. System messages embedded in actions are
// printed after it.
func (h *TextHandler) Output(ctx context.Context, actions []domain.ActionRequest) error {
	var (
		step    *domain.Step
		unsaved bool
		notes   []string
	)
	for _, act := range actions {
		switch act.Type {
		case domain.ActionRenderStep:
			if s, ok := act.Payload.(domain.Step); ok {
				step = &s
			}
		case domain.ActionOfferButtons:
			if buttons, ok := act.Payload.([]domain.Button); ok {
				for _, b := range buttons {
					unsaved = unsaved || b == domain.ButtonSave
				}
			}
		case domain.ActionSystemMessage:
			if msg, ok := act.Payload.(string); ok {
				notes = append(notes, msg)
			}
		}
	}

	if step != nil {
		var render tui.RenderFunc
		if h.Renderer != nil {
			render = tui.RenderFunc(h.Renderer)
		}
		if _, err := fmt.Fprint(h.Writer, tui.View(*step, unsaved, render)); err != nil {
			return err
		}
	}
	for _, n := range notes {
		if err := h.SystemOutput(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// Input waits for one sanitized line. Rejected lines are reported and the
// handler keeps waiting.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			if h.Interactive {
				fmt.Fprint(h.Writer, "> ")
			}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[waypoint] %s\n", msg)
	return err
}
