package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/prepnest/go-exam-backend/internal/domain"
	"github.com/prepnest/go-exam-backend/internal/http/pipeline"
	"github.com/prepnest/go-exam-backend/internal/utils"
)

// EnrollmentService defines enrollment operations consumed by HTTP handlers.
type EnrollmentService interface {
	Enroll(ctx context.Context, userID, courseID string) (*domain.Enrollment, error)
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Enrollment, int64, error)
	Cancel(ctx context.Context, userID, enrollmentID string) error
}

// EnrollRequest is the JSON payload for enrolling in a course.
type EnrollRequest struct {
	CourseID string `json:"courseId" binding:"required,uuid4" example:"8a9b0c1d-2e3f-4a5b-8c7d-9e0f1a2b3c4d"`
}

// EnrollmentIDParams binds the {id} path parameter of an enrollment.
type EnrollmentIDParams struct {
	ID string `form:"id" binding:"required,uuid4"`
}

// EnrollmentHandlers groups HTTP endpoints for a student's own enrollments.
type EnrollmentHandlers struct {
	svc EnrollmentService
}

// NewEnrollmentHandlers constructs an EnrollmentHandlers bound to the service.
func NewEnrollmentHandlers(svc EnrollmentService) *EnrollmentHandlers {
	return &EnrollmentHandlers{svc: svc}
}

// Enroll godoc
// @ID          createEnrollment
// @Summary     Enroll in a course
// @Description Enrolls the current user in a published course. Enrolling twice in the same course is rejected.
// @Tags        Enrollments
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.EnrollRequest  true  "Enrollment payload"
//
// @Success     201  {object}  pipeline.Response
// @Failure     400  {object}  apperr.Response "Validation failed"
// @Failure     401  {object}  apperr.Response "Not authenticated"
// @Failure     404  {object}  apperr.Response "Course not found"
// @Failure     409  {object}  apperr.Response "Already enrolled or course closed"
// @Router      /enrollments [post]
func (h *EnrollmentHandlers) Enroll(c *gin.Context) (*pipeline.Response, error) {
	req := pipeline.Body[EnrollRequest](c)
	id := pipeline.Identity(c)

	enr, err := h.svc.Enroll(c.Request.Context(), id.ID, req.CourseID)
	if err != nil {
		return nil, mapServiceError(err)
	}
	return pipeline.Created(enr), nil
}

// ListMine godoc
// @ID          listMyEnrollments
// @Summary     List the current user's enrollments (paginated)
// @Tags        Enrollments
// @Produce     json
//
// @Param       page   query  int  false  "Page number"     minimum(1) default(1)
// @Param       limit  query  int  false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  pipeline.Response
// @Failure     401  {object}  apperr.Response "Not authenticated"
// @Router      /enrollments [get]
func (h *EnrollmentHandlers) ListMine(c *gin.Context) (*pipeline.Response, error) {
	id := pipeline.Identity(c)
	p := utils.ParsePagination(c.Request.URL.Query(), "created_at")

	items, total, err := h.svc.ListPage(c.Request.Context(), id.ID, p.Page, p.Limit)
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

// Cancel godoc
// @ID          cancelEnrollment
// @Summary     Cancel one of the current user's enrollments
// @Tags        Enrollments
// @Produce     json
//
// @Param       id  path  string  true  "Enrollment ID (UUID)"  format(uuid)
//
// @Success     200  {object}  pipeline.Response
// @Failure     401  {object}  apperr.Response "Not authenticated"
// @Failure     404  {object}  apperr.Response "Enrollment not found"
// @Router      /enrollments/{id} [delete]
func (h *EnrollmentHandlers) Cancel(c *gin.Context) (*pipeline.Response, error) {
	params := pipeline.Params[EnrollmentIDParams](c)
	id := pipeline.Identity(c)

	if err := h.svc.Cancel(c.Request.Context(), id.ID, params.ID); err != nil {
		return nil, mapServiceError(err)
	}
	return pipeline.OK(gin.H{"cancelled": params.ID}), nil
}
