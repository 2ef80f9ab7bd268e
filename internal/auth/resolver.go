// Package auth resolves incoming requests to authenticated identities and
// enforces role and permission requirements.
//
// Resolution is a two-step handshake with external collaborators: the
// session provider maps a request to a session subject, and the user store
// supplies the full account record. Absence of identity is a normal
// outcome, not an error; only RequireAuth and RequireRole turn a missing
// identity into a failure. A session whose subject no longer exists in the
// store also resolves to no identity (stale session).
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prepnest/go-exam-backend/internal/apperr"
	"github.com/prepnest/go-exam-backend/internal/domain"
)

// SessionSubject identifies the principal a session belongs to.
type SessionSubject struct {
	UserID string
}

// SessionProvider resolves a request to a session. A (nil, nil) return
// means no session; errors are reserved for provider malfunctions.
type SessionProvider interface {
	ResolveSession(ctx context.Context, r *http.Request) (*SessionSubject, error)
}

// UserStore is the data-store contract the resolver consumes. FindUserByID
// returns (nil, nil) when no such user exists.
type UserStore interface {
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
}

// Resolver assembles per-request identities from sessions and user records.
// It is stateless and safe for concurrent use.
type Resolver struct {
	Sessions SessionProvider
	Users    UserStore
}

// NewResolver constructs a Resolver over the given collaborators.
func NewResolver(sessions SessionProvider, users UserStore) *Resolver {
	return &Resolver{Sessions: sessions, Users: users}
}

// Resolve maps the request to an Identity, or to nil when the request
// carries no (valid) session. The identity's permission set is the user's
// explicit grant list when present, otherwise derived from the role table.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) (*domain.Identity, error) {
	subject, err := r.Sessions.ResolveSession(ctx, req)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "")
	}
	if subject == nil {
		return nil, nil
	}

	user, err := r.Users.FindUserByID(ctx, subject.UserID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "")
	}
	if user == nil {
		// Stale session: the subject was deleted after the session was
		// issued. Treated as unauthenticated, not as a server error.
		return nil, nil
	}

	perms := domain.PermissionSet(user.Permissions)
	if len(perms) == 0 {
		perms = domain.PermissionsFor(user.Role)
	}
	return &domain.Identity{
		ID:            user.ID,
		Role:          user.Role,
		Status:        user.Status,
		Permissions:   perms,
		EmailVerified: user.EmailVerified,
		PhoneVerified: user.PhoneVerified,
	}, nil
}

// RequireAuth resolves the request and fails with KindAuthentication when
// no identity is present. Suspended accounts authenticate but are refused
// access with KindAuthorization.
func (r *Resolver) RequireAuth(ctx context.Context, req *http.Request) (*domain.Identity, error) {
	id, err := r.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, apperr.Authentication("")
	}
	if id.Status == domain.UserSuspended {
		return nil, apperr.Authorization("account suspended")
	}
	return id, nil
}

// RequireRole resolves the request, requires authentication, and compares
// the identity's role rank against the required role's rank in the fixed
// hierarchy. A lower rank fails with KindAuthorization.
func (r *Resolver) RequireRole(ctx context.Context, req *http.Request, required domain.Role) (*domain.Identity, error) {
	id, err := r.RequireAuth(ctx, req)
	if err != nil {
		return nil, err
	}
	if !id.Role.AtLeast(required) {
		return nil, apperr.Authorization(fmt.Sprintf("requires %s role", required))
	}
	return id, nil
}

// RequirePermission is the authorization gate: a pure set-membership check
// on an already-resolved identity. It composes with RequireRole; a route
// may demand a role and permissions, and all must pass.
func RequirePermission(id *domain.Identity, perms ...string) error {
	for _, p := range perms {
		if !id.HasPermission(p) {
			return apperr.Authorization(fmt.Sprintf("missing permission %q", p))
		}
	}
	return nil
}
