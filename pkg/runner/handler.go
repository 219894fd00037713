package runner

import (
	"context"

	"github.com/aretw0/waypoint/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents the actions for the current step.
	Output(ctx context.Context, actions []domain.ActionRequest) error

	// Input reads one command. It must return promptly once ctx is done.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (errors, confirmations, status).
	// This is distinct from step rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// Stepper is the session surface the runner drives.
// *session.Controller implements it.
type Stepper interface {
	Step() (domain.Step, error)
	Unsaved() bool
	Next(ctx context.Context) (domain.Step, error)
	Previous(ctx context.Context) (domain.Step, error)
	Answer(ctx context.Context, name, value string) (domain.Step, error)
	Save(ctx context.Context) (domain.Step, error)
	Reload(ctx context.Context) (domain.Step, error)
	Changed(ctx context.Context) (bool, error)
	Cancel(ctx context.Context) error
	Complete(ctx context.Context) error
}
