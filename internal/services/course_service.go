// Package services – CourseService
//
// This file implements the CourseService, which manages the course catalog.
// It normalizes titles and slugs, enforces publication visibility (students
// only see published courses), and coordinates repository operations for
// creating, listing (with pagination), updating, and deleting courses.
//
// Service-level errors (e.g., ErrCourseNotFound, ErrDuplicateSlug) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/prepnest/go-exam-backend/internal/domain"
)

// CourseRepo defines the repository contract required by CourseService.
// Implementations are responsible for persistence of course aggregates.
type CourseRepo interface {
	// CreateCourse inserts a new course row.
	CreateCourse(ctx context.Context, db *gorm.DB, c *domain.Course) error

	// GetCourse fetches a course by ID.
	GetCourse(ctx context.Context, db *gorm.DB, id string) (*domain.Course, error)

	// GetCourseBySlug fetches a course by its URL slug.
	GetCourseBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Course, error)

	// CountCourses returns the total number of (optionally published) courses.
	CountCourses(ctx context.Context, db *gorm.DB, publishedOnly bool) (int64, error)

	// ListCoursesPage returns a page of courses.
	ListCoursesPage(ctx context.Context, db *gorm.DB, publishedOnly bool, orderBy string, offset, limit int) ([]domain.Course, error)

	// UpdateCourse applies column updates to a course.
	UpdateCourse(ctx context.Context, db *gorm.DB, id string, updates map[string]any) error

	// DeleteCourse soft-deletes a course.
	DeleteCourse(ctx context.Context, db *gorm.DB, id string) error
}

// CourseService provides catalog-level operations such as creating, listing,
// updating, and deleting courses. It enforces slug rules and publication
// visibility.
type CourseService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the course repository used by this service.
	Repo CourseRepo
}

// NewCourseService constructs a CourseService.
func NewCourseService(db *gorm.DB, r CourseRepo) *CourseService {
	return &CourseService{DB: db, Repo: r}
}

// CourseInput carries the fields a caller may set on a course.
type CourseInput struct {
	Title       string
	Slug        string
	Description string
	Price       float64
	Published   bool
}

// Create inserts a new course authored by createdBy. When the slug is blank
// it is derived from the title. Duplicate slugs map to ErrDuplicateSlug.
func (s *CourseService) Create(ctx context.Context, createdBy string, in CourseInput) (*domain.Course, error) {
	slug := normalizeSlug(in.Slug)
	if slug == "" {
		slug = normalizeSlug(in.Title)
	}
	c := &domain.Course{
		Title:       strings.TrimSpace(in.Title),
		Slug:        slug,
		Description: in.Description,
		Price:       in.Price,
		Published:   in.Published,
		CreatedBy:   createdBy,
	}
	if err := s.Repo.CreateCourse(ctx, s.DB, c); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}
	return c, nil
}

// Get fetches a single course. Unpublished courses are hidden from
// non-staff callers (includeUnpublished=false) and map to ErrCourseNotFound.
func (s *CourseService) Get(ctx context.Context, id string, includeUnpublished bool) (*domain.Course, error) {
	c, err := s.Repo.GetCourse(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if !c.Published && !includeUnpublished {
		return nil, ErrCourseNotFound
	}
	return c, nil
}

// ListPage returns a page of courses plus the total count for pagination
// metadata. Students receive only published courses.
func (s *CourseService) ListPage(ctx context.Context, publishedOnly bool, orderBy string, page, pageSize int) ([]domain.Course, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountCourses(ctx, s.DB, publishedOnly)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Course{}, 0, nil
	}

	items, err := s.Repo.ListCoursesPage(ctx, s.DB, publishedOnly, orderBy, offset, pageSize)
	return items, total, err
}

// Update applies the non-zero fields of in to a course. A blank slug leaves
// the stored slug untouched; a changed slug is re-normalized.
func (s *CourseService) Update(ctx context.Context, id string, in CourseInput) (*domain.Course, error) {
	updates := map[string]any{
		"title":       strings.TrimSpace(in.Title),
		"description": in.Description,
		"price":       in.Price,
		"published":   in.Published,
	}
	if slug := normalizeSlug(in.Slug); slug != "" {
		updates["slug"] = slug
	}
	if err := s.Repo.UpdateCourse(ctx, s.DB, id, updates); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrCourseNotFound
		case isUniqueViolation(err):
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}
	return s.Repo.GetCourse(ctx, s.DB, id)
}

// Delete soft-deletes a course. Missing courses map to ErrCourseNotFound.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.Repo.DeleteCourse(ctx, s.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}
	return nil
}

// normalizeSlug lowercases, collapses runs of non-alphanumerics to single
// hyphens, and trims leading/trailing hyphens.
func normalizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugRE.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// nonSlugRE matches every run of characters not allowed in a slug.
var nonSlugRE = regexp.MustCompile(`[^a-z0-9]+`)

// isUniqueViolation reports whether err looks like a unique-constraint
// failure. SQLite has no typed error for this in the pure-Go driver, so the
// check is textual.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed")
}
