// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the TestSeries
// model (bundles of mock tests attached to a course).
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prepnest/go-exam-backend/internal/domain"
)

// CreateTestSeries inserts a new TestSeries row under its parent course.
func CreateTestSeries(ctx context.Context, db *gorm.DB, ts *domain.TestSeries) error {
	if ts.ID == "" {
		ts.ID = uuid.NewString()
	}
	ts.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(ts).Error
}

// GetTestSeries fetches a single test series by ID.
// Returns ErrNotFound when missing.
func GetTestSeries(ctx context.Context, db *gorm.DB, id string) (*domain.TestSeries, error) {
	var ts domain.TestSeries
	if err := db.WithContext(ctx).Where("id = ?", id).First(&ts).Error; err != nil {
		return nil, err
	}
	return &ts, nil
}

// ListTestSeriesByCourse returns all test series attached to courseID,
// oldest first (catalog order).
func ListTestSeriesByCourse(ctx context.Context, db *gorm.DB, courseID string) ([]domain.TestSeries, error) {
	var out []domain.TestSeries
	err := db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// UpdateTestSeries applies the given column updates to a test series.
// If no rows are affected, it returns ErrNotFound.
func UpdateTestSeries(ctx context.Context, db *gorm.DB, id string, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.TestSeries{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteTestSeries soft-deletes a test series by ID. If no rows are affected,
// it returns ErrNotFound.
func DeleteTestSeries(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.TestSeries{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
