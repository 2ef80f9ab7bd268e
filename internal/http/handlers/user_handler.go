package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/prepnest/go-exam-backend/internal/domain"
	"github.com/prepnest/go-exam-backend/internal/http/pipeline"
	"github.com/prepnest/go-exam-backend/internal/utils"
)

// UserService defines account operations consumed by HTTP handlers.
type UserService interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	ListPage(ctx context.Context, role domain.Role, orderBy string, page, pageSize int) ([]domain.User, int64, error)
	SetStatus(ctx context.Context, id string, status domain.UserStatus) error
	SetRole(ctx context.Context, id string, role domain.Role) error
}

// UserIDParams binds the {id} path parameter of a user.
type UserIDParams struct {
	ID string `form:"id" binding:"required,uuid4"`
}

// ListUsersQuery binds the filter parameters of the admin user listing.
type ListUsersQuery struct {
	Role string `form:"role" binding:"omitempty,oneof=student instructor admin superadmin"`
}

// SetRoleRequest is the JSON payload for changing a user's role.
type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student instructor admin superadmin" example:"instructor"`
}

// SetStatusRequest is the JSON payload for changing a user's account status.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active suspended" example:"suspended"`
}

// UserHandlers groups HTTP endpoints for the current profile and admin
// account management.
type UserHandlers struct {
	svc UserService
}

// NewUserHandlers constructs a UserHandlers bound to the service.
func NewUserHandlers(svc UserService) *UserHandlers {
	return &UserHandlers{svc: svc}
}

// Me godoc
// @ID          getCurrentUser
// @Summary     Fetch the current user's profile
// @Tags        Users
// @Produce     json
//
// @Success     200  {object}  pipeline.Response
// @Failure     401  {object}  apperr.Response "Not authenticated"
// @Router      /me [get]
func (h *UserHandlers) Me(c *gin.Context) (*pipeline.Response, error) {
	id := pipeline.Identity(c)

	user, err := h.svc.Get(c.Request.Context(), id.ID)
	if err != nil {
		return nil, mapServiceError(err)
	}
	return pipeline.OK(user), nil
}

// List godoc
// @ID          listUsers
// @Summary     List user accounts (paginated, admin only)
// @Tags        Users
// @Produce     json
//
// @Param       role   query  string  false  "Filter by role"  Enums(student, instructor, admin, superadmin)
// @Param       page   query  int     false  "Page number"     minimum(1) default(1)
// @Param       limit  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  pipeline.Response
// @Failure     403  {object}  apperr.Response "Missing user:list"
// @Router      /users [get]
func (h *UserHandlers) List(c *gin.Context) (*pipeline.Response, error) {
	q := pipeline.Query[ListUsersQuery](c)
	p := utils.ParsePagination(c.Request.URL.Query(), "created_at", "created_at", "name", "email")

	items, total, err := h.svc.ListPage(c.Request.Context(), domain.Role(q.Role), p.OrderBy, p.Page, p.Limit)
	if err != nil {
		return nil, mapServiceError(err)
	}
	return pipeline.Page(items, pipeline.Meta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: utils.TotalPages(total, p.Limit),
	}), nil
}

// SetRole godoc
// @ID          setUserRole
// @Summary     Change a user's role (admin only)
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                   true  "User ID (UUID)"  format(uuid)
// @Param       body  body  handlers.SetRoleRequest  true  "New role"
//
// @Success     200  {object}  pipeline.Response
// @Failure     403  {object}  apperr.Response "Missing role:assign"
// @Failure     404  {object}  apperr.Response "User not found"
// @Router      /users/{id}/role [put]
func (h *UserHandlers) SetRole(c *gin.Context) (*pipeline.Response, error) {
	params := pipeline.Params[UserIDParams](c)
	req := pipeline.Body[SetRoleRequest](c)

	if err := h.svc.SetRole(c.Request.Context(), params.ID, domain.Role(req.Role)); err != nil {
		return nil, mapServiceError(err)
	}
	return pipeline.OK(gin.H{"id": params.ID, "role": req.Role}), nil
}

// SetStatus godoc
// @ID          setUserStatus
// @Summary     Suspend or reactivate a user account (admin only)
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                     true  "User ID (UUID)"  format(uuid)
// @Param       body  body  handlers.SetStatusRequest  true  "New status"
//
// @Success     200  {object}  pipeline.Response
// @Failure     403  {object}  apperr.Response "Missing user:update"
// @Failure     404  {object}  apperr.Response "User not found"
// @Router      /users/{id}/status [put]
func (h *UserHandlers) SetStatus(c *gin.Context) (*pipeline.Response, error) {
	params := pipeline.Params[UserIDParams](c)
	req := pipeline.Body[SetStatusRequest](c)

	if err := h.svc.SetStatus(c.Request.Context(), params.ID, domain.UserStatus(req.Status)); err != nil {
		return nil, mapServiceError(err)
	}
	return pipeline.OK(gin.H{"id": params.ID, "status": req.Status}), nil
}
