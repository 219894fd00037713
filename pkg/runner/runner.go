package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/pkg/domain"
)

// ErrInterrupted is returned when a signal stops the loop. The session stays open.
var ErrInterrupted = errors.New("interrupted")

// Runner handles the command loop of one session using the provided IO.
type Runner struct {
	Handler      IOHandler
	Interceptor  CommandInterceptor
	Logger       *slog.Logger
	Headless     bool
	ReloadSource <-chan struct{}
	Signals      bool
}

// NewRunner creates a Runner reading from Stdin and writing to Stdout unless
// a handler is configured.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger:  logging.NewNop(),
		Signals: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	if r.Interceptor == nil {
		if r.Headless {
			r.Interceptor = AutoApproveMiddleware()
		} else {
			r.Interceptor = ConfirmationMiddleware(r.Handler)
		}
	}
	return r
}

// Run renders the current step, reads a command and applies it until the
// session is closed or input ends. End of input and quit leave the session
// open and return nil.
func (r *Runner) Run(ctx context.Context, s Stepper) error {
	if r.Signals {
		signals := NewSignalManager(ctx)
		defer signals.Stop()
		ctx = signals.Context()
	}

	var notice string
	for {
		step, err := s.Step()
		if err != nil {
			return err
		}
		actions := domain.StepActions(step, s.Unsaved())
		if notice != "" {
			actions = append(actions, domain.ActionRequest{Type: domain.ActionSystemMessage, Payload: notice})
			notice = ""
		}
		if err := r.Handler.Output(ctx, actions); err != nil {
			return fmt.Errorf("output error: %w", err)
		}

		input, reloaded, err := r.read(ctx)
		if reloaded {
			changed, err := s.Changed(ctx)
			if err != nil {
				return fmt.Errorf("reload failed: %w", err)
			}
			if !changed {
				continue
			}
			r.Logger.Debug("document changed, reloading")
			if _, err := s.Reload(ctx); err != nil {
				return fmt.Errorf("reload failed: %w", err)
			}
			notice = "document changed on disk; step reloaded"
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return r.leave(ctx, s)
			}
			if ctx.Err() != nil {
				r.Logger.Debug("runner interrupted", "err", ctx.Err())
				return ErrInterrupted
			}
			return fmt.Errorf("input error: %w", err)
		}

		cmd, err := ParseCommand(input)
		if err != nil {
			notice = err.Error() + "\n" + Help
			continue
		}
		done, err := r.dispatch(ctx, s, cmd)
		if err != nil {
			if errors.Is(err, domain.ErrSessionClosed) {
				return err
			}
			r.Logger.Debug("command failed", "command", cmd.String(), "err", err)
			notice = "Error: " + err.Error()
			continue
		}
		if done {
			return nil
		}
		if cmd.Kind == CommandHelp {
			notice = Help
		}
	}
}

// read waits for input, abandoning it when the reload source fires.
func (r *Runner) read(ctx context.Context) (string, bool, error) {
	if r.ReloadSource == nil {
		input, err := r.Handler.Input(ctx)
		return input, false, err
	}

	inputCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var reloaded atomic.Bool
	go func() {
		select {
		case _, ok := <-r.ReloadSource:
			if ok {
				reloaded.Store(true)
				cancel()
			}
		case <-inputCtx.Done():
		}
	}()

	input, err := r.Handler.Input(inputCtx)
	if err != nil && reloaded.Load() && ctx.Err() == nil {
		return "", true, nil
	}
	return input, false, err
}

func (r *Runner) dispatch(ctx context.Context, s Stepper, cmd Command) (bool, error) {
	switch cmd.Kind {
	case CommandNext:
		_, err := s.Next(ctx)
		return false, err
	case CommandPrevious:
		_, err := s.Previous(ctx)
		return false, err
	case CommandAnswer:
		_, err := s.Answer(ctx, cmd.Name, cmd.Value)
		return false, err
	case CommandSave:
		_, err := s.Save(ctx)
		return false, err
	case CommandReload:
		_, err := s.Reload(ctx)
		return false, err
	case CommandCancel:
		allowed, err := r.Interceptor(ctx, cmd)
		if err != nil || !allowed {
			return false, err
		}
		if err := s.Cancel(ctx); err != nil {
			return false, err
		}
		return true, r.Handler.SystemOutput(ctx, "session cancelled")
	case CommandComplete:
		if err := s.Complete(ctx); err != nil {
			return false, err
		}
		return true, r.Handler.SystemOutput(ctx, "workflow complete")
	case CommandQuit:
		return true, r.leave(ctx, s)
	case CommandHelp:
		return false, nil
	}
	return false, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Kind)
}

func (r *Runner) leave(ctx context.Context, s Stepper) error {
	msg := "session left open"
	if s.Unsaved() {
		msg += "; unsaved answers were discarded"
	}
	return r.Handler.SystemOutput(ctx, msg)
}
