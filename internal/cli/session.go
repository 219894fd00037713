package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/waypoint/internal/presentation/tui"
	"github.com/aretw0/waypoint/pkg/runner"
)

// RunSession opens or resumes a session and drives it interactively.
func RunSession(ctx context.Context, env *Env, opts RunOptions) error {
	in, out := opts.input(), opts.output()
	quiet := opts.Quiet || opts.JSON || opts.Headless

	if !quiet && runner.IsTerminal(out) {
		tui.PrintBanner(out)
	}

	c, resumed, err := env.Controller(ctx, opts.DocumentID, opts.Line, opts.SessionID)
	if err != nil {
		return err
	}
	step, err := c.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}

	s := c.Session()
	if resumed {
		env.Logger.Info("session resumed", "session_id", s.ID, "document", s.DocumentID, "line", step.Line)
		if !quiet {
			printSystemMessage(out, "Resuming '%s' at line %d.", s.ID, step.Line)
		}
	} else {
		env.Logger.Info("session created", "session_id", s.ID, "document", s.DocumentID)
		if !quiet {
			printSystemMessage(out, "Session '%s' active.", s.ID)
		}
	}

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(in, out)
	} else {
		handler = runner.NewTextHandler(in, out, runner.WithTextHandlerRenderer(env.Renderer(out)))
	}
	runnerOpts := []runner.Option{
		runner.WithLogger(env.Logger),
		runner.WithHeadless(opts.Headless || opts.JSON),
		runner.WithInputHandler(handler),
		// ctx already carries SIGINT/SIGTERM handling
		runner.WithSignals(false),
	}

	if opts.Watch {
		changes, err := WatchDocument(ctx, env, s.DocumentID)
		if err != nil {
			return err
		}
		runnerOpts = append(runnerOpts, runner.WithReloadSource(changes))
		if !quiet {
			printSystemMessage(out, "Watching '%s' for changes.", s.DocumentID)
		}
	}

	err = runner.NewRunner(runnerOpts...).Run(ctx, c)
	if isInterrupted(err) && !quiet {
		printSystemMessage(out, "Interrupted by %s; session '%s' stays open.", interruptedBy(ctx), s.ID)
	}
	return handleExecutionError(err)
}
