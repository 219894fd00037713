package cli

import (
	"context"
	"fmt"
	"io"
	"os"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	DocumentID string
	Line       int
	SessionID  string
	Headless   bool
	Watch      bool
	JSON       bool
	// Fresh cancels a stored session with the same ID before starting.
	Fresh bool
	Quiet bool

	In  io.Reader
	Out io.Writer
}

func (o RunOptions) input() io.Reader {
	if o.In == nil {
		return os.Stdin
	}
	return o.In
}

func (o RunOptions) output() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

// Execute handles the run command.
func Execute(ctx context.Context, env *Env, opts RunOptions) error {
	if opts.Watch && (opts.Headless || opts.JSON) {
		return fmt.Errorf("--watch cannot be combined with --headless or --json")
	}
	if opts.Fresh && opts.SessionID != "" {
		if err := env.Discard(ctx, opts.SessionID); err != nil {
			return fmt.Errorf("failed to reset session %s: %w", opts.SessionID, err)
		}
	}
	return RunSession(ctx, env, opts)
}
