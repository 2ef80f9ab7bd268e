// Course HTTP handlers.
//
// This file exposes REST endpoints for the course catalog:
//   - GET    /courses              (list, paginated, public)
//   - GET    /courses/{id}         (fetch one)
//   - POST   /courses              (create; instructors and above)
//   - PUT    /courses/{id}         (update; instructors and above)
//   - DELETE /courses/{id}         (delete; admins)
//   - GET    /courses/{id}/series  (list attached test series)
//   - POST   /courses/{id}/series  (attach a test series)
//
// Handlers are transport-thin: parsed input arrives through the request
// pipeline, handlers call application services, and service errors are mapped
// to the shared error taxonomy.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/prepnest/go-exam-backend/internal/domain"
	"github.com/prepnest/go-exam-backend/internal/http/pipeline"
	"github.com/prepnest/go-exam-backend/internal/services"
	"github.com/prepnest/go-exam-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// CourseService defines catalog operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type CourseService interface {
	Create(ctx context.Context, createdBy string, in services.CourseInput) (*domain.Course, error)
	Get(ctx context.Context, id string, includeUnpublished bool) (*domain.Course, error)
	ListPage(ctx context.Context, publishedOnly bool, orderBy string, page, pageSize int) ([]domain.Course, int64, error)
	Update(ctx context.Context, id string, in services.CourseInput) (*domain.Course, error)
	Delete(ctx context.Context, id string) error
}

// TestSeriesService defines test-series operations consumed by HTTP handlers.
type TestSeriesService interface {
	Create(ctx context.Context, courseID, title string, totalTests int) (*domain.TestSeries, error)
	ListByCourse(ctx context.Context, courseID string, includeUnpublished bool) ([]domain.TestSeries, error)
}

//
// DTOs
//

// CourseRequest is the JSON payload for creating or updating a course.
type CourseRequest struct {
	// Title names the course (3-255 chars).
	Title string `json:"title" binding:"required,min=3,max=255" example:"SSC CGL Tier 1 Foundation"`
	// Slug optionally fixes the URL slug; derived from the title when empty.
	Slug string `json:"slug" binding:"omitempty,min=3,max=255" example:"ssc-cgl-tier-1"`
	// Description is the free-form course description.
	Description string `json:"description" binding:"omitempty,max=10000"`
	// Price in the platform currency; zero means free.
	Price float64 `json:"price" binding:"gte=0" example:"999"`
	// Published controls catalog visibility for students.
	Published bool `json:"published"`
}

// CourseIDParams binds the {id} path parameter.
type CourseIDParams struct {
	ID string `form:"id" binding:"required,uuid4"`
}

// SeriesRequest is the JSON payload for attaching a test series to a course.
type SeriesRequest struct {
	Title      string `json:"title" binding:"required,min=3,max=255" example:"Weekly Mock Set A"`
	TotalTests int    `json:"totalTests" binding:"gte=0" example:"12"`
}

//
// Handler wiring
//

// CourseHandlers groups HTTP endpoints for courses and their test series.
type CourseHandlers struct {
	courseSvc CourseService
	seriesSvc TestSeriesService
}

// NewCourseHandlers constructs a CourseHandlers bound to the given services.
func NewCourseHandlers(courseSvc CourseService, seriesSvc TestSeriesService) *CourseHandlers {
	return &CourseHandlers{courseSvc: courseSvc, seriesSvc: seriesSvc}
}

// staffView reports whether the caller may see unpublished catalog entries.
// Anonymous callers and students get the published-only view.
func staffView(c *gin.Context) bool {
	id := pipeline.Identity(c)
	return id != nil && id.Role.AtLeast(domain.RoleInstructor)
}

// List godoc
// @ID          listCourses
// @Summary     List courses (paginated)
// @Description Returns a page of the catalog. Students and anonymous callers see published courses only.
// @Tags        Courses
// @Produce     json
//
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       limit      query  int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Param       sortBy     query  string  false "Sort column"     Enums(created_at, title, price)
// @Param       sortOrder  query  string  false "Sort direction"  Enums(asc, desc)
//
// @Success     200  {object}  pipeline.Response
// @Failure     429  {object}  apperr.Response "Rate limited"
// @Failure     500  {object}  apperr.Response "Internal error"
// @Router      /courses [get]
func (h *CourseHandlers) List(c *gin.Context) (*pipeline.Response, error) {
	p := utils.ParsePagination(c.Request.URL.Query(), "created_at", "created_at", "title", "price")

	items, total, err := h.courseSvc.ListPage(c.Request.Context(), !staffView(c), p.OrderBy, p.Page, p.Limit)
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

// Get godoc
// @ID          getCourse
// @Summary     Fetch a course
// @Tags        Courses
// @Produce     json
//
// @Param       id  path  string  true  "Course ID (UUID)"  format(uuid)
//
// @Success     200  {object}  pipeline.Response
// @Failure     404  {object}  apperr.Response "Course not found"
// @Router      /courses/{id} [get]
func (h *CourseHandlers) Get(c *gin.Context) (*pipeline.Response, error) {
	params := pipeline.Params[CourseIDParams](c)

	course, err := h.courseSvc.Get(c.Request.Context(), params.ID, staffView(c))
	if err != nil {
		return nil, mapServiceError(err)
	}
	return pipeline.OK(course), nil
}

// Create godoc
// @ID          createCourse
// @Summary     Create a course
// @Description Creates a catalog entry authored by the current instructor.
// @Tags        Courses
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CourseRequest  true  "Course payload"
//
// @Success     201  {object}  pipeline.Response
// @Failure     400  {object}  apperr.Response "Validation failed"
// @Failure     401  {object}  apperr.Response "Not authenticated"
// @Failure     403  {object}  apperr.Response "Missing course:create"
// @Failure     409  {object}  apperr.Response "Slug already exists"
// @Router      /courses [post]
func (h *CourseHandlers) Create(c *gin.Context) (*pipeline.Response, error) {
	req := pipeline.Body[CourseRequest](c)
	id := pipeline.Identity(c)

	course, err := h.courseSvc.Create(c.Request.Context(), id.ID, services.CourseInput{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Published:   req.Published,
	})
	if err != nil {
		return nil, mapServiceError(err)
	}
	return pipeline.Created(course), nil
}

// Update godoc
// @ID          updateCourse
// @Summary     Update a course
// @Tags        Courses
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                  true  "Course ID (UUID)"  format(uuid)
// @Param       body  body  handlers.CourseRequest  true  "Course payload"
//
// @Success     200  {object}  pipeline.Response
// @Failure     404  {object}  apperr.Response "Course not found"
// @Failure     409  {object}  apperr.Response "Slug already exists"
// @Router      /courses/{id} [put]
func (h *CourseHandlers) Update(c *gin.Context) (*pipeline.Response, error) {
	params := pipeline.Params[CourseIDParams](c)
	req := pipeline.Body[CourseRequest](c)

	course, err := h.courseSvc.Update(c.Request.Context(), params.ID, services.CourseInput{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Published:   req.Published,
	})
	if err != nil {
		return nil, mapServiceError(err)
	}
	return pipeline.OK(course), nil
}

// Delete godoc
// @ID          deleteCourse
// @Summary     Delete a course
// @Tags        Courses
// @Produce     json
//
// @Param       id  path  string  true  "Course ID (UUID)"  format(uuid)
//
// @Success     200  {object}  pipeline.Response
// @Failure     404  {object}  apperr.Response "Course not found"
// @Router      /courses/{id} [delete]
func (h *CourseHandlers) Delete(c *gin.Context) (*pipeline.Response, error) {
	params := pipeline.Params[CourseIDParams](c)

	if err := h.courseSvc.Delete(c.Request.Context(), params.ID); err != nil {
		return nil, mapServiceError(err)
	}
	return pipeline.OK(gin.H{"deleted": params.ID}), nil
}

// ListSeries godoc
// @ID          listCourseSeries
// @Summary     List the test series of a course
// @Tags        TestSeries
// @Produce     json
//
// @Param       id  path  string  true  "Course ID (UUID)"  format(uuid)
//
// @Success     200  {object}  pipeline.Response
// @Failure     404  {object}  apperr.Response "Course not found"
// @Router      /courses/{id}/series [get]
func (h *CourseHandlers) ListSeries(c *gin.Context) (*pipeline.Response, error) {
	params := pipeline.Params[CourseIDParams](c)

	series, err := h.seriesSvc.ListByCourse(c.Request.Context(), params.ID, staffView(c))
	if err != nil {
		return nil, mapServiceError(err)
	}
	return pipeline.OK(series), nil
}

// CreateSeries godoc
// @ID          createCourseSeries
// @Summary     Attach a test series to a course
// @Tags        TestSeries
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                  true  "Course ID (UUID)"  format(uuid)
// @Param       body  body  handlers.SeriesRequest  true  "Series payload"
//
// @Success     201  {object}  pipeline.Response
// @Failure     404  {object}  apperr.Response "Course not found"
// @Router      /courses/{id}/series [post]
func (h *CourseHandlers) CreateSeries(c *gin.Context) (*pipeline.Response, error) {
	params := pipeline.Params[CourseIDParams](c)
	req := pipeline.Body[SeriesRequest](c)

	series, err := h.seriesSvc.Create(c.Request.Context(), params.ID, req.Title, req.TotalTests)
	if err != nil {
		return nil, mapServiceError(err)
	}
	return pipeline.Created(series), nil
}
