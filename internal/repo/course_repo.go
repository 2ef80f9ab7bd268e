// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Course model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prepnest/go-exam-backend/internal/domain"
)

// CreateCourse inserts a new Course row authored by createdBy. The course ID
// is a randomly generated UUID (string), and CreatedAt is set to UTC.
//
// On success, the persisted Course is returned. Slug uniqueness violations
// surface as the raw gorm error for the service layer to classify.
func CreateCourse(ctx context.Context, db *gorm.DB, c *domain.Course) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(c).Error
}

// GetCourse fetches a single course by its ID. If the record does not exist,
// it returns ErrNotFound. On other DB errors, the raw error is returned.
func GetCourse(ctx context.Context, db *gorm.DB, id string) (*domain.Course, error) {
	var c domain.Course
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCourseBySlug fetches a single course by its URL slug.
// Returns ErrNotFound when no course matches.
func GetCourseBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Course, error) {
	var c domain.Course
	if err := db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CountCourses returns the total number of courses. When publishedOnly is
// true, only published courses are counted.
func CountCourses(ctx context.Context, db *gorm.DB, publishedOnly bool) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Course{})
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListCoursesPage returns a paginated slice of courses in the given order.
// When publishedOnly is true, unpublished courses are excluded (the catalog
// view for students). Use CountCourses for pagination metadata.
func ListCoursesPage(ctx context.Context, db *gorm.DB, publishedOnly bool, orderBy string, offset, limit int) ([]domain.Course, error) {
	q := db.WithContext(ctx).Model(&domain.Course{})
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	var out []domain.Course
	err := q.Order(orderBy).Offset(offset).Limit(limit).Find(&out).Error
	return out, err
}

// UpdateCourse applies the given column updates to a course identified by id.
// If no rows are affected (course missing), it returns ErrNotFound. On DB
// error, the raw error is returned.
func UpdateCourse(ctx context.Context, db *gorm.DB, id string, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Course{}).
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

// DeleteCourse soft-deletes a course by ID. If no rows are affected (course
// missing or already deleted), it returns ErrNotFound.
func DeleteCourse(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Course{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
