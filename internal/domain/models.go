// Package domain defines the persistence models for the exam-preparation
// platform (users, courses, test series, and enrollments) together with the
// role/permission tables and the per-request Identity. The persistence
// types are mapped with GORM.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
	UserPending   UserStatus = "pending"
)

// User is a platform account. The Permissions column, when non-empty,
// overrides the role-derived permission set for this user; when empty, the
// auth resolver derives permissions from Role.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Email: unique login identifier.
//   - Role / Status: closed-set strings (see roles.go, UserStatus).
//   - Permissions: optional explicit grant list, stored as JSON.
//   - EmailVerified / PhoneVerified: contact verification flags.
type User struct {
	ID            string         `json:"id"             gorm:"type:char(36);primaryKey"`
	Name          string         `json:"name"           gorm:"type:varchar(120);not null"`
	Email         string         `json:"email"          gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone         string         `json:"phone,omitempty" gorm:"type:varchar(20)"`
	PasswordHash  string         `json:"-"              gorm:"type:varchar(255);not null"`
	Role          Role           `json:"role"           gorm:"type:varchar(16);not null;default:'student';check:role IN ('student','instructor','admin','superadmin')"`
	Status        UserStatus     `json:"status"         gorm:"type:varchar(16);not null;default:'active';check:status IN ('active','suspended','pending')"`
	Permissions   []string       `json:"permissions,omitempty" gorm:"serializer:json"`
	EmailVerified bool           `json:"email_verified" gorm:"not null;default:false"`
	PhoneVerified bool           `json:"phone_verified" gorm:"not null;default:false"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"              gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Course is a sellable unit of study content (recorded lectures, notes,
// attached test series). Unpublished courses are visible only to staff.
type Course struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	Title       string         `json:"title"       gorm:"type:varchar(255);not null"`
	Slug        string         `json:"slug"        gorm:"type:varchar(255);not null;uniqueIndex"`
	Description string         `json:"description" gorm:"type:text"`
	Price       float64        `json:"price"       gorm:"not null;default:0;check:price >= 0"`
	Published   bool           `json:"published"   gorm:"not null;default:false;index"`
	CreatedBy   string         `json:"created_by"  gorm:"type:char(36);not null;index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for Course.
func (Course) TableName() string { return "courses" }

// TestSeries is a bundle of mock tests attached to a course.
type TestSeries struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	CourseID   string         `json:"course_id"   gorm:"type:char(36);not null;index"`
	Title      string         `json:"title"       gorm:"type:varchar(255);not null"`
	TotalTests int            `json:"total_tests" gorm:"not null;default:0;check:total_tests >= 0"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-"           gorm:"index"`

	// Course is the parent; series are cascade-deleted with it.
	Course Course `json:"-" gorm:"foreignKey:CourseID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for TestSeries.
func (TestSeries) TableName() string { return "test_series" }

// EnrollmentStatus tracks an enrollment through payment and access.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// Enrollment links a user to a course. A user can enroll in a course at
// most once (enforced by the unique index).
type Enrollment struct {
	ID        string           `json:"id"        gorm:"type:char(36);primaryKey"`
	UserID    string           `json:"user_id"   gorm:"type:char(36);not null;index;uniqueIndex:ux_enroll_user_course"`
	CourseID  string           `json:"course_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_enroll_user_course"`
	Status    EnrollmentStatus `json:"status"    gorm:"type:varchar(16);not null;default:'active';check:status IN ('active','pending','cancelled')"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `json:"-"         gorm:"index"`

	// Course association; enrollments are cascade-deleted with the course.
	Course Course `json:"-" gorm:"foreignKey:CourseID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Enrollment.
func (Enrollment) TableName() string { return "enrollments" }
