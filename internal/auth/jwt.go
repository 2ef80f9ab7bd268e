// JWT session provider.
//
// Sessions are HS256-signed bearer tokens carried in the Authorization
// header. A missing, malformed, or expired token resolves to no session
// rather than an error: the pipeline decides later whether anonymous access
// is acceptable for the route.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// maxClockSkew tolerates clock drift between the token issuer and this
// process when validating exp/nbf claims.
const maxClockSkew = 30 * time.Second

// JWTSessions implements SessionProvider over HS256 bearer tokens.
type JWTSessions struct {
	secret []byte
	issuer string
}

// NewJWTSessions constructs a provider validating tokens signed with secret
// and issued by issuer.
func NewJWTSessions(secret []byte, issuer string) *JWTSessions {
	return &JWTSessions{secret: secret, issuer: issuer}
}

// ResolveSession implements SessionProvider. Only HS256 is accepted; the
// restriction closes algorithm-confusion attacks.
func (s *JWTSessions) ResolveSession(_ context.Context, r *http.Request) (*SessionSubject, error) {
	tokenStr, ok := bearerToken(r)
	if !ok {
		return nil, nil
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithLeeway(maxClockSkew),
	)
	if err != nil || !token.Valid {
		// Invalid and absent tokens are equivalent: no session.
		log.Debug().AnErr("error", err).Msg("session token rejected")
		return nil, nil
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		log.Debug().Msg("session token missing subject")
		return nil, nil
	}
	return &SessionSubject{UserID: sub}, nil
}

// Issue signs a session token for userID valid for ttl. Used by the login
// flow and by test fixtures.
func (s *JWTSessions) Issue(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("auth: empty user id")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// bearerToken extracts the token from an "Authorization: Bearer <tok>"
// header, tolerating case variation in the scheme.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", false
	}
	return tok, true
}
