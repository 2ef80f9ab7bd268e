package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/prepnest/go-exam-backend/internal/domain"
	"github.com/prepnest/go-exam-backend/internal/http/pipeline"
	"github.com/prepnest/go-exam-backend/internal/services"
	"github.com/prepnest/go-exam-backend/internal/validate"
)

type stubUsers struct {
	users map[string]*domain.User
	list  []domain.User
	total int64
	err   error

	lastRole   domain.Role
	lastStatus domain.UserStatus
	lastID     string
}

func (s *stubUsers) Get(_ context.Context, id string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, services.ErrUserNotFound
}

func (s *stubUsers) ListPage(_ context.Context, role domain.Role, orderBy string, page, pageSize int) ([]domain.User, int64, error) {
	s.lastRole = role
	return s.list, s.total, s.err
}

func (s *stubUsers) SetStatus(_ context.Context, id string, status domain.UserStatus) error {
	s.lastID, s.lastStatus = id, status
	return s.err
}

func (s *stubUsers) SetRole(_ context.Context, id string, role domain.Role) error {
	s.lastID, s.lastRole = id, role
	return s.err
}

const userID = "3b241101-e2bb-4255-8caf-4136c566a962"

func newUserAPI(t *testing.T, us *stubUsers) *api {
	t.Helper()
	h := NewUserHandlers(us)
	a := newAPI(t, allRoles())

	a.handle(http.MethodGet, "/me", pipeline.RouteConfig{RequireAuth: true}, h.Me)
	a.handle(http.MethodGet, "/users", pipeline.RouteConfig{
		RequiredPermissions: []string{"user:list"},
		Validation:          pipeline.Validation{Query: validate.Form[ListUsersQuery]()},
	}, h.List)
	a.handle(http.MethodPut, "/users/:id/role", pipeline.RouteConfig{
		RequiredPermissions: []string{"role:assign"},
		Validation:          pipeline.Validation{Params: validate.Form[UserIDParams](), Body: validate.JSON[SetRoleRequest]()},
	}, h.SetRole)
	a.handle(http.MethodPut, "/users/:id/status", pipeline.RouteConfig{
		RequiredPermissions: []string{"user:update"},
		Validation:          pipeline.Validation{Params: validate.Form[UserIDParams](), Body: validate.JSON[SetStatusRequest]()},
	}, h.SetStatus)
	return a
}

func TestMe_ReturnsProfile(t *testing.T) {
	us := &stubUsers{users: map[string]*domain.User{
		"stu": {ID: "stu", Name: "Asha", Email: "asha@example.com", Role: domain.RoleStudent},
	}}
	a := newUserAPI(t, us)

	w := a.do(http.MethodGet, "/me", "stu", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	env := decodeSuccess(t, w)
	var got domain.User
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if got.ID != "stu" || got.Email != "asha@example.com" {
		t.Fatalf("unexpected profile: %+v", got)
	}

	if w := a.do(http.MethodGet, "/me", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous /me: status %d", w.Code)
	}
}

func TestListUsers_PermissionGateAndRoleFilter(t *testing.T) {
	us := &stubUsers{list: []domain.User{{ID: "u1"}}, total: 1}
	a := newUserAPI(t, us)

	if w := a.do(http.MethodGet, "/users", "stu", ""); w.Code != http.StatusForbidden {
		t.Fatalf("student listing: status %d", w.Code)
	}
	w := a.do(http.MethodGet, "/users?role=instructor", "adm", "")
	if w.Code != http.StatusOK {
		t.Fatalf("admin listing: status %d body %s", w.Code, w.Body.String())
	}
	if us.lastRole != domain.RoleInstructor {
		t.Fatalf("role filter %q not forwarded", us.lastRole)
	}
}

func TestListUsers_BadRoleFilterRejected(t *testing.T) {
	a := newUserAPI(t, &stubUsers{})

	w := a.do(http.MethodGet, "/users?role=owner", "adm", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	if code := errCode(t, w); code != "validation_error" {
		t.Fatalf("code %q", code)
	}
}

func TestSetRole_SuperAdminOnly(t *testing.T) {
	us := &stubUsers{}
	a := newUserAPI(t, us)
	body := `{"role":"instructor"}`

	// role:assign is introduced at superadmin rank; admins lack it.
	if w := a.do(http.MethodPut, "/users/"+userID+"/role", "adm", body); w.Code != http.StatusForbidden {
		t.Fatalf("admin role change: status %d", w.Code)
	}
	w := a.do(http.MethodPut, "/users/"+userID+"/role", "sup", body)
	if w.Code != http.StatusOK {
		t.Fatalf("superadmin role change: status %d body %s", w.Code, w.Body.String())
	}
	if us.lastID != userID || us.lastRole != domain.RoleInstructor {
		t.Fatalf("call args id=%q role=%q", us.lastID, us.lastRole)
	}
}

func TestSetStatus_SuspendAndNotFound(t *testing.T) {
	us := &stubUsers{}
	a := newUserAPI(t, us)

	w := a.do(http.MethodPut, "/users/"+userID+"/status", "adm", `{"status":"suspended"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	if us.lastStatus != domain.UserSuspended {
		t.Fatalf("status %q not forwarded", us.lastStatus)
	}

	a = newUserAPI(t, &stubUsers{err: services.ErrUserNotFound})
	w = a.do(http.MethodPut, "/users/"+userID+"/status", "adm", `{"status":"suspended"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}
