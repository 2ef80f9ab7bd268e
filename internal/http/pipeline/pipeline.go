// Package pipeline composes per-route request processing: rate limiting,
// parameter/query/body validation, authentication, and authorization run in
// a fixed order in front of a domain handler, with any failure translated
// into the uniform error envelope.
//
// A route declares which stages apply through RouteConfig, built once at
// startup and shared (immutably) by every request to the route. Compose
// reduces the configuration and the handler into a single gin.HandlerFunc:
//
//	RateLimit → ParseParams → ParseQuery → Authenticate → Authorize →
//	ParseBody → Handler → Respond
//
// Unset stages are skipped. The first failure short-circuits straight to
// the error response; no later stage runs, so no partial side effects
// follow a rejection. The composer itself holds no per-request state; the
// rate limiter's counter store is injected, not owned.
package pipeline

import (
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prepnest/go-exam-backend/internal/apperr"
	"github.com/prepnest/go-exam-backend/internal/auth"
	"github.com/prepnest/go-exam-backend/internal/domain"
	"github.com/prepnest/go-exam-backend/internal/http/middleware"
	"github.com/prepnest/go-exam-backend/internal/ratelimit"
	"github.com/prepnest/go-exam-backend/internal/validate"
)

// maxBodyBytes caps how much of a request body the ParseBody stage reads.
// The router additionally applies http.MaxBytesReader globally.
const maxBodyBytes = 1 << 20

// RateLimit configures the quota stage for one route.
type RateLimit struct {
	// Quota is the number of requests allowed per window per client.
	Quota int
	// Window is the length of the counting window.
	Window time.Duration
}

// Validation lists the schemas applied to the three request surfaces. A nil
// schema is an explicit opt-out: that surface passes through unvalidated.
type Validation struct {
	Body   *validate.Schema
	Query  *validate.Schema
	Params *validate.Schema
}

// RouteConfig declares which pipeline stages are active for one route. It
// is constructed once per route at startup, never mutated afterwards, and
// shared across all requests to that route.
type RouteConfig struct {
	// RequireAuth demands a resolved identity.
	RequireAuth bool
	// RequiredRole demands a role at or above the given rank. Implies
	// RequireAuth.
	RequiredRole domain.Role
	// RequiredPermissions must all be held by the identity. Implies
	// RequireAuth. Composes with RequiredRole: all checks must pass.
	RequiredPermissions []string
	// RateLimit, when set, enforces a per-client quota for the route.
	RateLimit *RateLimit
	// Validation holds the optional schemas per request surface.
	Validation Validation
}

// needsAuth reports whether any configuration implies authentication.
func (cfg RouteConfig) needsAuth() bool {
	return cfg.RequireAuth || cfg.RequiredRole != "" || len(cfg.RequiredPermissions) > 0
}

// Meta carries pagination metadata in the success envelope.
type Meta struct {
	Page       int   `json:"page,omitempty"`
	Limit      int   `json:"limit,omitempty"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages,omitempty"`
}

// Response is what a domain handler returns on success. Status defaults to
// 200 when zero.
type Response struct {
	Status int
	Data   any
	Meta   *Meta
}

// OK builds a 200 response.
func OK(data any) *Response { return &Response{Data: data} }

// Created builds a 201 response.
func Created(data any) *Response { return &Response{Status: 201, Data: data} }

// Page builds a 200 list response with pagination metadata.
func Page(data any, meta Meta) *Response { return &Response{Data: data, Meta: &meta} }

// HandlerFunc is a domain handler: it receives the gin context (with parsed
// values and identity attached) and returns either a Response or an error.
// Errors escaping the handler are translated exactly like stage failures.
type HandlerFunc func(c *gin.Context) (*Response, error)

// envelope is the success wire shape.
type envelope struct {
	Success bool  `json:"success"`
	Data    any   `json:"data"`
	Meta    *Meta `json:"meta,omitempty"`
}

// Composer turns route configurations into wrapped handlers. All fields
// are request-independent dependencies; Compose is a pure function of
// (RouteConfig, HandlerFunc).
type Composer struct {
	// Resolver authenticates requests. Required when any route needs auth.
	Resolver *auth.Resolver
	// Limiter enforces quotas. Required when any route sets RateLimit.
	Limiter *ratelimit.Limiter
	// Translator renders errors. Its ExposeInternal flag is deployment
	// configuration.
	Translator apperr.Translator
	// ClientKey derives the rate-limit client identity from a request.
	// Defaults to the client IP.
	ClientKey func(c *gin.Context) string
}

// Compose wraps handler with the stages cfg enables. The returned handler
// is safe for concurrent use.
func (p *Composer) Compose(cfg RouteConfig, handler HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := p.runStages(c, cfg); err != nil {
			p.fail(c, err)
			return
		}

		resp, err := handler(c)
		if err != nil {
			p.fail(c, err)
			return
		}

		status := 200
		var data any
		var meta *Meta
		if resp != nil {
			if resp.Status != 0 {
				status = resp.Status
			}
			data = resp.Data
			meta = resp.Meta
		}
		c.JSON(status, envelope{Success: true, Data: data, Meta: meta})
	}
}

// runStages executes the pre-handler stages in their fixed order, stopping
// at the first failure.
func (p *Composer) runStages(c *gin.Context, cfg RouteConfig) error {
	if cfg.RateLimit != nil {
		if err := p.checkRateLimit(c, cfg.RateLimit); err != nil {
			return err
		}
	}
	if cfg.Validation.Params != nil {
		v, err := cfg.Validation.Params.Parse(validate.Source{Form: paramValues(c)})
		if err != nil {
			return err
		}
		c.Set(ctxKeyParams, v)
	}
	if cfg.Validation.Query != nil {
		v, err := cfg.Validation.Query.Parse(validate.Source{Form: c.Request.URL.Query()})
		if err != nil {
			return err
		}
		c.Set(ctxKeyQuery, v)
	}
	if cfg.needsAuth() {
		id, err := p.authenticate(c)
		if err != nil {
			return err
		}
		if err := authorize(id, cfg); err != nil {
			return err
		}
	}
	if cfg.Validation.Body != nil {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			return apperr.New(apperr.KindValidation, "unreadable request body")
		}
		v, err := cfg.Validation.Body.Parse(validate.Source{Body: body})
		if err != nil {
			return err
		}
		c.Set(ctxKeyBody, v)
	}
	return nil
}

// checkRateLimit runs the quota stage, keying the bucket by client identity
// and route so distinct routes never share a counter.
func (p *Composer) checkRateLimit(c *gin.Context, rl *RateLimit) error {
	clientKey := "ip:" + c.ClientIP()
	if p.ClientKey != nil {
		clientKey = p.ClientKey(c)
	}
	routeKey := c.FullPath()
	if routeKey == "" {
		routeKey = c.Request.URL.Path
	}
	routeKey = c.Request.Method + " " + routeKey
	return p.Limiter.Check(c.Request.Context(), clientKey, routeKey, rl.Quota, rl.Window)
}

// authenticate resolves the caller and attaches the identity to the
// context for the handler.
func (p *Composer) authenticate(c *gin.Context) (*domain.Identity, error) {
	id, err := p.Resolver.RequireAuth(c.Request.Context(), c.Request)
	if err != nil {
		return nil, err
	}
	c.Set(ctxKeyIdentity, id)
	// Expose the user id to the access logger and downstream middleware.
	c.Set("userID", id.ID)
	return id, nil
}

// authorize applies the role and permission requirements to a resolved
// identity. All configured checks must pass.
func authorize(id *domain.Identity, cfg RouteConfig) error {
	if cfg.RequiredRole != "" && !id.Role.AtLeast(cfg.RequiredRole) {
		return apperr.Authorization("requires " + string(cfg.RequiredRole) + " role")
	}
	return auth.RequirePermission(id, cfg.RequiredPermissions...)
}

// fail translates err, writes the error envelope, and aborts the chain.
// Rate-limit rejections additionally carry a Retry-After header.
func (p *Composer) fail(c *gin.Context, err error) {
	tr := p.Translator
	tr.Logger = middleware.LoggerFrom(c)

	status, resp := tr.Translate(err)
	if ae := apperr.From(err); ae != nil && ae.Kind == apperr.KindRateLimited {
		if d, ok := ae.Details.(map[string]int); ok {
			c.Header("Retry-After", strconv.Itoa(d["retryAfterSeconds"]))
		}
	}
	c.AbortWithStatusJSON(status, resp)
}

// paramValues converts gin's path parameters into the url.Values shape the
// validation adapter consumes.
func paramValues(c *gin.Context) url.Values {
	out := make(url.Values, len(c.Params))
	for _, p := range c.Params {
		out.Set(p.Key, p.Value)
	}
	return out
}
