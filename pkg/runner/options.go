package runner

import (
	"log/slog"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithHeadless sets the runner to headless mode: destructive commands are
// not confirmed and no help banner is printed.
func WithHeadless(headless bool) Option {
	return func(r *Runner) {
		r.Headless = headless
	}
}

// WithInterceptor configures the confirmation policy for destructive commands.
func WithInterceptor(interceptor CommandInterceptor) Option {
	return func(r *Runner) {
		r.Interceptor = interceptor
	}
}

// WithReloadSource sets a channel that signals the document changed on disk.
// A pending read is abandoned and the step is re-rendered from the new text.
func WithReloadSource(ch <-chan struct{}) Option {
	return func(r *Runner) {
		r.ReloadSource = ch
	}
}

// WithSignals toggles SIGINT/SIGTERM handling. It is on by default.
func WithSignals(enabled bool) Option {
	return func(r *Runner) {
		r.Signals = enabled
	}
}
