package shared

import (
	"context"
	"net/http"

	"github.com/assetflow/assetflow/internal/authz"
)

// Principal is the authenticated identity attached to one request.
type Principal struct {
	ID         int64
	Role       authz.Role
	Email      string
	Name       string
	Department string
}

// Resolution is the outcome of resolving a session. The zero value means
// unauthenticated; a nil principal is never used as a signal.
type Resolution struct {
	Principal     Principal
	Authenticated bool
}

// Authenticated wraps a principal in a positive resolution.
func Authenticated(p Principal) Resolution {
	return Resolution{Principal: p, Authenticated: true}
}

// Unauthenticated is the no-session resolution.
func Unauthenticated() Resolution {
	return Resolution{}
}

// Resolver turns an inbound request into a session resolution. Any backend
// failure is reported as Unauthenticated, never as an error to the caller.
type Resolver interface {
	Resolve(ctx context.Context, r *http.Request) Resolution
}
