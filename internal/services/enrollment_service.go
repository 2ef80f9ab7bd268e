// Package services – EnrollmentService
//
// This file implements the EnrollmentService, which joins users to courses.
// It enforces publication rules (only published courses accept enrollments),
// maps the unique (user, course) index to ErrDuplicateEnrollment, and retries
// the enrollment write through the shared retry policy so transient SQLite
// lock contention does not surface to callers.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// user and course identifiers so traces line up with access logs.
package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/prepnest/go-exam-backend/internal/domain"
	"github.com/prepnest/go-exam-backend/internal/retry"
)

// EnrollmentRepo defines the repository contract required by EnrollmentService.
type EnrollmentRepo interface {
	// CreateEnrollment inserts a new enrollment row.
	CreateEnrollment(ctx context.Context, db *gorm.DB, e *domain.Enrollment) error

	// GetEnrollment fetches the enrollment of a user in a course.
	GetEnrollment(ctx context.Context, db *gorm.DB, userID, courseID string) (*domain.Enrollment, error)

	// CountEnrollments returns the user's enrollment count for pagination.
	CountEnrollments(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListEnrollmentsPage returns a page of the user's enrollments.
	ListEnrollmentsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Enrollment, error)

	// UpdateEnrollmentStatus transitions an enrollment's status.
	UpdateEnrollmentStatus(ctx context.Context, db *gorm.DB, id, userID string, status domain.EnrollmentStatus) error
}

// EnrollmentService provides enrollment operations: joining a course,
// listing a user's enrollments, and cancelling.
type EnrollmentService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the enrollment repository used by this service.
	Repo EnrollmentRepo
	// Courses resolves the target course (publication check).
	Courses CourseRepo

	// WritePolicy retries transient datastore failures on the enrollment
	// insert. Terminal errors (duplicates, missing course) are never retried.
	WritePolicy retry.Policy
}

// NewEnrollmentService constructs an EnrollmentService with a conservative
// write-retry policy.
func NewEnrollmentService(db *gorm.DB, r EnrollmentRepo, courses CourseRepo) *EnrollmentService {
	return &EnrollmentService{
		DB:      db,
		Repo:    r,
		Courses: courses,
		WritePolicy: retry.Policy{
			MaxRetries: 2,
			BaseDelay:  50 * time.Millisecond,
			Backoff:    retry.Exponential,
		},
	}
}

// Enroll joins userID to courseID. The course must exist and be published.
// A second enrollment in the same course returns ErrDuplicateEnrollment.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, courseID string) (*domain.Enrollment, error) {
	tr := otel.Tracer("services/EnrollmentService")
	ctx, span := tr.Start(ctx, "Enroll",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("course.id", courseID),
		),
	)
	defer span.End()

	course, err := s.Courses.GetCourse(ctx, s.DB, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if !course.Published {
		return nil, ErrCourseUnpublished
	}

	e := &domain.Enrollment{UserID: userID, CourseID: courseID, Status: domain.EnrollmentActive}
	policy := s.WritePolicy
	policy.RetryIf = func(err error) bool { return !isUniqueViolation(err) }
	if err := retry.Run(ctx, policy, func(ctx context.Context) error {
		return s.Repo.CreateEnrollment(ctx, s.DB, e)
	}); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEnrollment
		}
		return nil, err
	}
	return e, nil
}

// ListPage returns a page of the user's enrollments plus the total count.
func (s *EnrollmentService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Enrollment, int64, error) {
	tr := otel.Tracer("services/EnrollmentService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountEnrollments(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Enrollment{}, 0, nil
	}

	items, err := s.Repo.ListEnrollmentsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Cancel transitions the user's enrollment to cancelled. Missing or
// foreign-owned enrollments map to ErrEnrollmentNotFound.
func (s *EnrollmentService) Cancel(ctx context.Context, userID, enrollmentID string) error {
	err := s.Repo.UpdateEnrollmentStatus(ctx, s.DB, enrollmentID, userID, domain.EnrollmentCancelled)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrEnrollmentNotFound
	}
	return err
}
