// Package middleware wraps a ports.StateStore with behavior applied to
// every snapshot on its way in or out: masking and encryption.
package middleware

import "github.com/aretw0/waypoint/pkg/ports"

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain wraps store so that the first middleware sees a snapshot first on Save.
func Chain(store ports.StateStore, mws ...Middleware) ports.StateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
