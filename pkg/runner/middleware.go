package runner

import (
	"context"
	"fmt"
	"strings"
)

// CommandInterceptor decides whether a destructive command may run.
// It returns false to block it.
type CommandInterceptor func(ctx context.Context, cmd Command) (bool, error)

// MultiInterceptor chains interceptors; the first refusal wins.
func MultiInterceptor(interceptors ...CommandInterceptor) CommandInterceptor {
	return func(ctx context.Context, cmd Command) (bool, error) {
		for _, interceptor := range interceptors {
			allowed, err := interceptor(ctx, cmd)
			if err != nil || !allowed {
				return false, err
			}
		}
		return true, nil
	}
}

// ConfirmationMiddleware asks the user before cancelling a session.
// Other commands pass through.
func ConfirmationMiddleware(handler IOHandler) CommandInterceptor {
	return func(ctx context.Context, cmd Command) (bool, error) {
		if cmd.Kind != CommandCancel {
			return true, nil
		}
		if err := handler.SystemOutput(ctx, fmt.Sprintf("%s removes every answer from the document. Continue? [y/N]", cmd)); err != nil {
			return false, err
		}
		input, err := handler.Input(ctx)
		if err != nil {
			return false, err
		}
		input = strings.TrimSpace(strings.ToLower(input))
		return input == "y" || input == "yes", nil
	}
}

// AutoApproveMiddleware allows everything.
func AutoApproveMiddleware() CommandInterceptor {
	return func(ctx context.Context, cmd Command) (bool, error) {
		return true, nil
	}
}
