// Package pipeline chains the security, audit, rate-limit, authentication,
// authorization, and validation stages around terminal handlers.
package pipeline

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/unrolled/secure"

	"github.com/assetflow/assetflow/internal/audit"
	"github.com/assetflow/assetflow/internal/authz"
	authzhttp "github.com/assetflow/assetflow/internal/authz/http"
	"github.com/assetflow/assetflow/internal/platform/httpx"
	"github.com/assetflow/assetflow/internal/ratelimit"
	"github.com/assetflow/assetflow/internal/shared"
	"github.com/assetflow/assetflow/internal/validate"
)

// Config tunes the per-route defaults.
type Config struct {
	// Hardened adds strict transport security; enable in production behind
	// TLS termination.
	Hardened bool
	// RateLimitMax and RateLimitWindow are the default per-key budget.
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// Pipeline builds handler chains in a fixed, load-bearing order:
// security headers wrap everything so they ride on every exit path; audit
// wraps the widest useful scope so every failure is recorded; rate limiting
// rejects abuse before the session lookup is paid for; authentication
// precedes authorization; validation runs last before the handler.
type Pipeline struct {
	logger    *slog.Logger
	matrix    *authz.Matrix
	resolver  shared.Resolver
	store     ratelimit.Store
	recorder  *audit.Recorder
	validator *validator.Validate
	secure    *secure.Secure
	authz     authzhttp.Middleware
	cfg       Config
}

// New constructs a Pipeline.
func New(logger *slog.Logger, matrix *authz.Matrix, resolver shared.Resolver, store ratelimit.Store, recorder *audit.Recorder, cfg Config) *Pipeline {
	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 100
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	opts := secure.Options{
		ContentTypeNosniff: true,
		FrameDeny:          true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		PermissionsPolicy:  "camera=(), microphone=(), geolocation=()",
		IsDevelopment:      !cfg.Hardened,
	}
	if cfg.Hardened {
		opts.STSSeconds = 31536000
		opts.STSIncludeSubdomains = true
		opts.SSLProxyHeaders = map[string]string{"X-Forwarded-Proto": "https"}
	}
	return &Pipeline{
		logger:    logger,
		matrix:    matrix,
		resolver:  resolver,
		store:     store,
		recorder:  recorder,
		validator: validator.New(),
		secure:    secure.New(opts),
		authz:     authzhttp.Middleware{Matrix: matrix, Logger: logger},
		cfg:       cfg,
	}
}

// OwnershipRule gates a route on the resource-ownership evaluator.
type OwnershipRule struct {
	Permission authz.Permission
	Lookup     authzhttp.OwnerLookup
}

// Route declares one protected endpoint.
type Route struct {
	Method      string
	Pattern     string
	Permissions []authz.Permission
	Ownership   *OwnershipRule
	// NewPayload, when set, enables the validation stage. It must return a
	// pointer to a fresh payload struct.
	NewPayload func() any
	// Limit and Window override the pipeline's rate-limit defaults when
	// both are set.
	Limit   int
	Window  time.Duration
	Handler http.HandlerFunc
}

// Base returns the leading stages shared by every protected route:
// security headers, audit, rate limiting, authentication, and the role
// check. Handler groups mounted outside Route declarations use this.
func (p *Pipeline) Base(perms ...authz.Permission) chi.Middlewares {
	return p.base(authz.Permission{}, p.cfg.RateLimitMax, p.cfg.RateLimitWindow, perms)
}

func (p *Pipeline) base(auditPerm authz.Permission, limit int, window time.Duration, perms []authz.Permission) chi.Middlewares {
	if auditPerm == (authz.Permission{}) && len(perms) > 0 {
		auditPerm = perms[0]
	}
	return chi.Middlewares{
		p.secureHeaders,
		p.recorder.Middleware(auditPerm),
		ratelimit.Middleware(p.store, limit, window, ratelimit.KeyByClientIP, p.logger),
		shared.Authenticate(p.resolver),
		p.authz.Require(perms...),
	}
}

// Handler composes the full chain for one route.
func (p *Pipeline) Handler(route Route) http.Handler {
	limit, window := p.cfg.RateLimitMax, p.cfg.RateLimitWindow
	if route.Limit > 0 && route.Window > 0 {
		limit, window = route.Limit, route.Window
	}

	chain := p.base(primaryPermission(route), limit, window, route.Permissions)
	if route.Ownership != nil {
		chain = append(chain, p.authz.RequireOwnership(route.Ownership.Permission, route.Ownership.Lookup))
	}
	if route.NewPayload != nil {
		chain = append(chain, validate.Body(p.validator, route.NewPayload))
	}
	return chi.Chain(chain...).Handler(route.Handler)
}

// Mount registers the routes on a chi router.
func (p *Pipeline) Mount(r chi.Router, routes []Route) {
	for _, route := range routes {
		r.Method(route.Method, route.Pattern, p.Handler(route))
	}
}

// secureHeaders sets the hardening headers before the inner chain runs, so
// they are present however deep the request gets.
func (p *Pipeline) secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := p.secure.Process(w, r); err != nil {
			if p.logger != nil {
				p.logger.Warn("secure headers blocked request", slog.Any("error", err))
			}
			httpx.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func primaryPermission(route Route) authz.Permission {
	if len(route.Permissions) > 0 {
		return route.Permissions[0]
	}
	if route.Ownership != nil {
		return route.Ownership.Permission
	}
	return authz.Permission{}
}
