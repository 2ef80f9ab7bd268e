// Package handlers provides HTTP handler implementations for the public API.
//
// This file maps service-level sentinel errors onto the application error
// taxonomy. Handlers call mapServiceError on every service failure so that
// the response translator emits the right status code and stable error code
// without each handler repeating the classification.
//
// Conventions:
//   - "Not found" sentinels map to the not_found kind (404).
//   - Uniqueness conflicts (slug, duplicate enrollment) map to conflict (409).
//   - Anything unrecognized is wrapped as an internal error; its detail is
//     only exposed when the translator runs with ExposeInternal.
package handlers

import (
	"errors"

	"github.com/prepnest/go-exam-backend/internal/apperr"
	"github.com/prepnest/go-exam-backend/internal/services"
)

// mapServiceError converts service sentinels into typed application errors.
// Errors that already carry a kind pass through unchanged.
func mapServiceError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, services.ErrCourseNotFound):
		return apperr.NotFound("course not found")
	case errors.Is(err, services.ErrSeriesNotFound):
		return apperr.NotFound("test series not found")
	case errors.Is(err, services.ErrEnrollmentNotFound):
		return apperr.NotFound("enrollment not found")
	case errors.Is(err, services.ErrUserNotFound):
		return apperr.NotFound("user not found")
	case errors.Is(err, services.ErrDuplicateSlug):
		return apperr.Conflict("course slug already exists")
	case errors.Is(err, services.ErrDuplicateEnrollment):
		return apperr.Conflict("already enrolled in this course")
	case errors.Is(err, services.ErrCourseUnpublished):
		return apperr.Conflict("course is not open for enrollment")
	}
	return apperr.Internal(err)
}
