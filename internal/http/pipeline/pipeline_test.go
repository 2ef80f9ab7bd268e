package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prepnest/go-exam-backend/internal/apperr"
	"github.com/prepnest/go-exam-backend/internal/auth"
	"github.com/prepnest/go-exam-backend/internal/domain"
	"github.com/prepnest/go-exam-backend/internal/ratelimit"
	"github.com/prepnest/go-exam-backend/internal/validate"
)

// headerSessions resolves sessions from an X-Test-User header and counts
// how often it is consulted, so ordering properties can be asserted.
type headerSessions struct {
	calls int
}

func (s *headerSessions) ResolveSession(_ context.Context, r *http.Request) (*auth.SessionSubject, error) {
	s.calls++
	uid := r.Header.Get("X-Test-User")
	if uid == "" {
		return nil, nil
	}
	return &auth.SessionSubject{UserID: uid}, nil
}

// mapUsers is an in-memory user store.
type mapUsers map[string]*domain.User

func (m mapUsers) FindUserByID(_ context.Context, id string) (*domain.User, error) {
	return m[id], nil
}

// countingStore wraps a rate-limit store and counts takes.
type countingStore struct {
	inner ratelimit.Store
	calls int
}

func (s *countingStore) Take(ctx context.Context, key string, quota int, window time.Duration) (bool, int, error) {
	s.calls++
	return s.inner.Take(ctx, key, quota, window)
}

type fixture struct {
	engine   *gin.Engine
	sessions *headerSessions
	store    *countingStore
	handled  int
}

type enrollBody struct {
	Name  string `json:"name"  binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type idParams struct {
	ID string `form:"id" binding:"required,uuid4"`
}

func newFixture(t *testing.T, cfg RouteConfig, users mapUsers) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		sessions: &headerSessions{},
		store:    &countingStore{inner: ratelimit.NewMemoryStore()},
	}
	composer := &Composer{
		Resolver: auth.NewResolver(f.sessions, users),
		Limiter:  ratelimit.New(f.store),
	}

	r := gin.New()
	r.POST("/enrollments", composer.Compose(cfg, func(c *gin.Context) (*Response, error) {
		f.handled++
		if b := Body[enrollBody](c); b != nil {
			return Created(gin.H{"name": b.Name}), nil
		}
		return OK(gin.H{"ok": true}), nil
	}))
	r.GET("/courses/:id", composer.Compose(cfg, func(c *gin.Context) (*Response, error) {
		f.handled++
		if p := Params[idParams](c); p != nil {
			return OK(gin.H{"id": p.ID}), nil
		}
		return OK(gin.H{"ok": true}), nil
	}))
	f.engine = r
	return f
}

func (f *fixture) do(method, path, body string, hdrs map[string]string) *httptest.ResponseRecorder {
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	for k, v := range hdrs {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code       string `json:"code"`
			Message    string `json:"message"`
			StatusCode int    `json:"statusCode"`
			Details    any    `json:"details"`
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

func student() mapUsers {
	return mapUsers{"u1": {
		ID:     "u1",
		Role:   domain.RoleStudent,
		Status: domain.UserActive,
	}}
}

// Stage ordering (property P1): when the rate limiter rejects, neither
// authentication nor the handler runs.
func TestCompose_RateLimitShortCircuitsEverything(t *testing.T) {
	cfg := RouteConfig{
		RequireAuth: true,
		RateLimit:   &RateLimit{Quota: 1, Window: time.Minute},
		Validation:  Validation{Body: validate.JSON[enrollBody]()},
	}
	f := newFixture(t, cfg, student())
	hdrs := map[string]string{"X-Test-User": "u1"}

	if w := f.do(http.MethodPost, "/enrollments", `{"name":"A","email":"a@b.co"}`, hdrs); w.Code != http.StatusCreated {
		t.Fatalf("first request: status %d body %s", w.Code, w.Body.String())
	}
	sessionCalls, handled := f.sessions.calls, f.handled

	w := f.do(http.MethodPost, "/enrollments", `{"name":"A","email":"a@b.co"}`, hdrs)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status %d, want 429", w.Code)
	}
	if code := errCode(t, w); code != "too_many_requests" {
		t.Fatalf("code = %q", code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After header")
	}
	if f.sessions.calls != sessionCalls {
		t.Fatalf("auth ran after rate-limit rejection")
	}
	if f.handled != handled {
		t.Fatalf("handler ran after rate-limit rejection")
	}
}

func TestCompose_ParamsValidateBeforeAuth(t *testing.T) {
	cfg := RouteConfig{
		RequireAuth: true,
		Validation:  Validation{Params: validate.Form[idParams]()},
	}
	f := newFixture(t, cfg, student())

	// Invalid path parameter: rejected before the session provider runs.
	w := f.do(http.MethodGet, "/courses/not-a-uuid", "", map[string]string{"X-Test-User": "u1"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
	if f.sessions.calls != 0 {
		t.Fatalf("session provider consulted despite param failure")
	}

	// Valid parameter and session: handler sees the typed params.
	w = f.do(http.MethodGet, "/courses/0b9fbd6e-3a3e-4f53-9a1e-0a3a5ec7a111", "", map[string]string{"X-Test-User": "u1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}

func TestCompose_BodyValidatesAfterAuth(t *testing.T) {
	cfg := RouteConfig{
		RequireAuth: true,
		Validation:  Validation{Body: validate.JSON[enrollBody]()},
	}
	f := newFixture(t, cfg, student())

	// Anonymous request with a broken body still fails authentication
	// first: the body stage runs after auth.
	w := f.do(http.MethodPost, "/enrollments", `{"name":`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", w.Code)
	}
	if f.handled != 0 {
		t.Fatalf("handler ran without identity")
	}
}

// End-to-end scenario: (a) no session → 401, (b) invalid body → 400 with
// both field errors, (c) valid request → 200 envelope.
func TestCompose_EndToEnd(t *testing.T) {
	cfg := RouteConfig{
		RequireAuth: true,
		Validation:  Validation{Body: validate.JSON[enrollBody]()},
	}
	f := newFixture(t, cfg, student())

	// (a) No session.
	w := f.do(http.MethodPost, "/enrollments", `{"name":"A","email":"a@b.co"}`, nil)
	if w.Code != http.StatusUnauthorized || errCode(t, w) != "unauthorized" {
		t.Fatalf("(a): status %d body %s", w.Code, w.Body.String())
	}

	// (b) Valid session, invalid body: both failures reported.
	w = f.do(http.MethodPost, "/enrollments", `{"name":""}`, map[string]string{"X-Test-User": "u1"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("(b): status %d body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Error struct {
			Details []struct {
				Field string `json:"field"`
				Code  string `json:"code"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("(b): %v", err)
	}
	if len(resp.Error.Details) != 2 {
		t.Fatalf("(b): %d field errors, want 2 (name, email): %s", len(resp.Error.Details), w.Body.String())
	}
	fields := map[string]bool{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = true
	}
	if !fields["name"] || !fields["email"] {
		t.Fatalf("(b): missing field errors: %s", w.Body.String())
	}

	// (c) Valid session and body.
	w = f.do(http.MethodPost, "/enrollments", `{"name":"Asha","email":"asha@example.com"}`, map[string]string{"X-Test-User": "u1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("(c): status %d body %s", w.Code, w.Body.String())
	}
	var success struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &success); err != nil {
		t.Fatalf("(c): %v", err)
	}
	if !success.Success || success.Data["name"] != "Asha" {
		t.Fatalf("(c): envelope wrong: %s", w.Body.String())
	}
}

func TestCompose_RoleAndPermissionGates(t *testing.T) {
	users := mapUsers{
		"stud":  {ID: "stud", Role: domain.RoleStudent, Status: domain.UserActive},
		"inst":  {ID: "inst", Role: domain.RoleInstructor, Status: domain.UserActive},
		"admin": {ID: "admin", Role: domain.RoleAdmin, Status: domain.UserActive},
	}
	cfg := RouteConfig{
		RequiredRole:        domain.RoleInstructor,
		RequiredPermissions: []string{"course:create"},
	}
	f := newFixture(t, cfg, users)

	// Student: role too low.
	w := f.do(http.MethodPost, "/enrollments", "", map[string]string{"X-Test-User": "stud"})
	if w.Code != http.StatusForbidden || errCode(t, w) != "forbidden" {
		t.Fatalf("student: status %d body %s", w.Code, w.Body.String())
	}
	// Instructor: exact role with the permission.
	if w = f.do(http.MethodPost, "/enrollments", "", map[string]string{"X-Test-User": "inst"}); w.Code != http.StatusOK {
		t.Fatalf("instructor: status %d body %s", w.Code, w.Body.String())
	}
	// Admin: higher rank inherits the permission.
	if w = f.do(http.MethodPost, "/enrollments", "", map[string]string{"X-Test-User": "admin"}); w.Code != http.StatusOK {
		t.Fatalf("admin: status %d body %s", w.Code, w.Body.String())
	}
}

func TestCompose_UnsetStagesAreSkipped(t *testing.T) {
	// Fully open route: anonymous request with garbage body succeeds.
	f := newFixture(t, RouteConfig{}, student())
	w := f.do(http.MethodPost, "/enrollments", `{"name":`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	if f.sessions.calls != 0 || f.store.calls != 0 {
		t.Fatalf("disabled stages ran: sessions=%d limiter=%d", f.sessions.calls, f.store.calls)
	}
}

func TestCompose_HandlerErrorsAreTranslated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	composer := &Composer{}
	r := gin.New()
	r.GET("/boom", composer.Compose(RouteConfig{}, func(*gin.Context) (*Response, error) {
		return nil, apperr.Conflict("already enrolled")
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusConflict || errCode(t, w) != "conflict" {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}

func TestCompose_DistinctRoutesHaveDistinctBuckets(t *testing.T) {
	cfg := RouteConfig{RateLimit: &RateLimit{Quota: 1, Window: time.Minute}}
	f := newFixture(t, cfg, student())

	if w := f.do(http.MethodPost, "/enrollments", "", nil); w.Code != http.StatusOK {
		t.Fatalf("warmup: %d", w.Code)
	}
	// Same client, different route: own bucket, still allowed.
	w := f.do(http.MethodGet, "/courses/0b9fbd6e-3a3e-4f53-9a1e-0a3a5ec7a111", "", nil)
	if w.Code == http.StatusTooManyRequests {
		t.Fatalf("routes share a rate-limit bucket")
	}
}

func TestCompose_SuccessMetaInEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	composer := &Composer{}
	r := gin.New()
	r.GET("/list", composer.Compose(RouteConfig{}, func(*gin.Context) (*Response, error) {
		return Page([]string{"a", "b"}, Meta{Page: 1, Limit: 20, Total: 2, TotalPages: 1}), nil
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/list", nil))
	var resp struct {
		Success bool `json:"success"`
		Meta    struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Success || resp.Meta.Total != 2 {
		t.Fatalf("meta lost: %s", w.Body.String())
	}
}
