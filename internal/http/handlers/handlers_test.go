package handlers

// Shared fixtures for the handler tests: a header-driven session stub, an
// in-memory user store for the auth resolver, and a tiny API harness that
// registers composed routes on a test engine.

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/prepnest/go-exam-backend/internal/auth"
	"github.com/prepnest/go-exam-backend/internal/domain"
	"github.com/prepnest/go-exam-backend/internal/http/pipeline"
	"github.com/prepnest/go-exam-backend/internal/ratelimit"
)

// headerSessions resolves sessions from an X-Test-User header.
type headerSessions struct{}

func (headerSessions) ResolveSession(_ context.Context, r *http.Request) (*auth.SessionSubject, error) {
	uid := r.Header.Get("X-Test-User")
	if uid == "" {
		return nil, nil
	}
	return &auth.SessionSubject{UserID: uid}, nil
}

// mapUsers is an in-memory user store for the resolver.
type mapUsers map[string]*domain.User

func (m mapUsers) FindUserByID(_ context.Context, id string) (*domain.User, error) {
	return m[id], nil
}

// allRoles seeds one active user per role, keyed by a short alias.
func allRoles() mapUsers {
	return mapUsers{
		"stu": {ID: "stu", Role: domain.RoleStudent, Status: domain.UserActive},
		"ins": {ID: "ins", Role: domain.RoleInstructor, Status: domain.UserActive},
		"adm": {ID: "adm", Role: domain.RoleAdmin, Status: domain.UserActive},
		"sup": {ID: "sup", Role: domain.RoleSuperAdmin, Status: domain.UserActive},
	}
}

// api registers composed routes on a gin test engine and performs requests.
type api struct {
	engine *gin.Engine
	comp   *pipeline.Composer
}

func newAPI(t *testing.T, users mapUsers) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return &api{
		engine: gin.New(),
		comp: &pipeline.Composer{
			Resolver: auth.NewResolver(headerSessions{}, users),
			Limiter:  ratelimit.New(ratelimit.NewMemoryStore()),
		},
	}
}

func (a *api) handle(method, path string, cfg pipeline.RouteConfig, h pipeline.HandlerFunc) {
	a.engine.Handle(method, path, a.comp.Compose(cfg, h))
}

// do performs a request as the given user alias ("" for anonymous). A
// non-empty body is sent as JSON.
func (a *api) do(method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

// successEnvelope decodes a success response, failing the test on an error
// envelope or malformed JSON.
type successEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *pipeline.Meta  `json:"meta"`
}

func decodeSuccess(t *testing.T, w *httptest.ResponseRecorder) successEnvelope {
	t.Helper()
	var env successEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("bad envelope %q: %v", w.Body.String(), err)
	}
	if !env.Success {
		t.Fatalf("expected success envelope, got %s", w.Body.String())
	}
	return env
}

// errCode asserts the error envelope shape and returns its code.
func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code       string `json:"code"`
			StatusCode int    `json:"statusCode"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad error envelope %q: %v", w.Body.String(), err)
	}
	if resp.Success {
		t.Fatalf("error envelope has success=true: %s", w.Body.String())
	}
	if resp.Error.StatusCode != w.Code {
		t.Fatalf("statusCode %d != HTTP status %d", resp.Error.StatusCode, w.Code)
	}
	return resp.Error.Code
}
