package middleware

import "github.com/pseng/MyH5P-pages/pkg/ports"

// Middleware allows wrapping a PathStore to add behavior.
type Middleware func(ports.PathStore) ports.PathStore

// Chain wraps store with mws; the first middleware is the outermost.
func Chain(store ports.PathStore, mws ...Middleware) ports.PathStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
