// Package services defines the business logic for courses, test series,
// enrollments, and user administration. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrCourseNotFound indicates that the requested course does not exist
	// or is not visible to the current user.
	ErrCourseNotFound = errors.New("course not found")

	// ErrDuplicateSlug is returned when creating or renaming a course with a
	// slug that is already taken.
	ErrDuplicateSlug = errors.New("course slug already exists")

	// ErrCourseUnpublished is returned when a student attempts to enroll in a
	// course that has not been published.
	ErrCourseUnpublished = errors.New("course is not published")

	// ErrDuplicateEnrollment is returned when a user attempts to enroll in a
	// course they are already enrolled in.
	ErrDuplicateEnrollment = errors.New("already enrolled in course")

	// ErrEnrollmentNotFound indicates that the requested enrollment does not
	// exist or belongs to another user.
	ErrEnrollmentNotFound = errors.New("enrollment not found")

	// ErrSeriesNotFound indicates that the requested test series does not exist.
	ErrSeriesNotFound = errors.New("test series not found")

	// ErrUserNotFound indicates that the requested user account does not exist.
	ErrUserNotFound = errors.New("user not found")
)
