// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Enrollment
// model, which links users to the courses they have joined.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prepnest/go-exam-backend/internal/domain"
)

// CreateEnrollment inserts a new Enrollment row for (userID, courseID).
// The unique index ux_enroll_user_course rejects duplicates; the raw gorm
// error is propagated for the service layer to classify as a conflict.
func CreateEnrollment(ctx context.Context, db *gorm.DB, e *domain.Enrollment) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = domain.EnrollmentActive
	}
	e.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(e).Error
}

// GetEnrollment fetches the enrollment of userID in courseID.
// Returns ErrNotFound when the user is not enrolled.
func GetEnrollment(ctx context.Context, db *gorm.DB, userID, courseID string) (*domain.Enrollment, error) {
	var e domain.Enrollment
	err := db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CountEnrollments returns the number of enrollments held by userID.
func CountEnrollments(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Enrollment{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListEnrollmentsPage returns a paginated slice of userID's enrollments,
// most recent first. Use CountEnrollments for pagination metadata.
func ListEnrollmentsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Enrollment, error) {
	var out []domain.Enrollment
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateEnrollmentStatus transitions an enrollment (e.g., to cancelled).
// If no rows are affected, it returns ErrNotFound.
func UpdateEnrollmentStatus(ctx context.Context, db *gorm.DB, id, userID string, status domain.EnrollmentStatus) error {
	res := db.WithContext(ctx).
		Model(&domain.Enrollment{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
