// Package middleware decorates checkpoint media with extra behavior.
package middleware

import "github.com/aretw0/storyline/pkg/ports"

// Middleware allows wrapping a Medium to add behavior.
type Middleware func(ports.Medium) ports.Medium

// Apply wraps medium with each middleware in order; the last one is outermost.
func Apply(medium ports.Medium, mws ...Middleware) ports.Medium {
	for _, mw := range mws {
		medium = mw(medium)
	}
	return medium
}
