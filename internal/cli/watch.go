package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/waypoint/pkg/ports"
)

// SettleDelay is how long a document must stay unchanged before a reload fires.
var SettleDelay = 100 * time.Millisecond

// WatchDocument signals when documentID changes on its store. Bursts of
// events (editors writing temp files then renaming) collapse into one signal.
func WatchDocument(ctx context.Context, env *Env, documentID string) (<-chan struct{}, error) {
	w, ok := env.Documents.(ports.Watchable)
	if !ok {
		return nil, fmt.Errorf("document backend %q cannot be watched", env.Settings.Documents.Backend)
	}
	events, err := w.Watch(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", documentID, err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		var settle <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				settle = time.After(SettleDelay)
			case <-settle:
				settle = nil
				env.Logger.Info("change detected, reloading", "document", documentID)
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}
