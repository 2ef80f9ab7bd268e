// Package services – TestSeriesService
//
// Manages the test-series bundles attached to a course. Series inherit the
// visibility of their parent course: students can only list series under a
// published course.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/prepnest/go-exam-backend/internal/domain"
)

// TestSeriesRepo defines the repository contract required by TestSeriesService.
type TestSeriesRepo interface {
	CreateTestSeries(ctx context.Context, db *gorm.DB, ts *domain.TestSeries) error
	GetTestSeries(ctx context.Context, db *gorm.DB, id string) (*domain.TestSeries, error)
	ListTestSeriesByCourse(ctx context.Context, db *gorm.DB, courseID string) ([]domain.TestSeries, error)
	UpdateTestSeries(ctx context.Context, db *gorm.DB, id string, updates map[string]any) error
	DeleteTestSeries(ctx context.Context, db *gorm.DB, id string) error
}

// TestSeriesService provides operations on a course's test series.
type TestSeriesService struct {
	DB      *gorm.DB
	Repo    TestSeriesRepo
	Courses CourseRepo
}

// NewTestSeriesService constructs a TestSeriesService.
func NewTestSeriesService(db *gorm.DB, r TestSeriesRepo, courses CourseRepo) *TestSeriesService {
	return &TestSeriesService{DB: db, Repo: r, Courses: courses}
}

// Create attaches a new series to courseID. The parent course must exist;
// staff may attach series to unpublished courses.
func (s *TestSeriesService) Create(ctx context.Context, courseID, title string, totalTests int) (*domain.TestSeries, error) {
	if _, err := s.Courses.GetCourse(ctx, s.DB, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	ts := &domain.TestSeries{CourseID: courseID, Title: title, TotalTests: totalTests}
	if err := s.Repo.CreateTestSeries(ctx, s.DB, ts); err != nil {
		return nil, err
	}
	return ts, nil
}

// ListByCourse returns the series of a course, enforcing the parent course's
// publication visibility for non-staff callers.
func (s *TestSeriesService) ListByCourse(ctx context.Context, courseID string, includeUnpublished bool) ([]domain.TestSeries, error) {
	course, err := s.Courses.GetCourse(ctx, s.DB, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if !course.Published && !includeUnpublished {
		return nil, ErrCourseNotFound
	}
	return s.Repo.ListTestSeriesByCourse(ctx, s.DB, courseID)
}

// Update applies title/total-test changes to a series.
func (s *TestSeriesService) Update(ctx context.Context, id, title string, totalTests int) (*domain.TestSeries, error) {
	updates := map[string]any{"title": title, "total_tests": totalTests}
	if err := s.Repo.UpdateTestSeries(ctx, s.DB, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSeriesNotFound
		}
		return nil, err
	}
	return s.Repo.GetTestSeries(ctx, s.DB, id)
}

// Delete soft-deletes a series. Missing series map to ErrSeriesNotFound.
func (s *TestSeriesService) Delete(ctx context.Context, id string) error {
	if err := s.Repo.DeleteTestSeries(ctx, s.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSeriesNotFound
		}
		return err
	}
	return nil
}
