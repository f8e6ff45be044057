// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/edulabs/labgate/internal/model"
)

// AttendanceRepository stores per-session attendance records.
type AttendanceRepository interface {
	// Create inserts a new record. Returns errs.ErrAlreadyExists when a record
	// for the same (courseID, experimentID, studentUsername) already exists.
	Create(ctx context.Context, rec *model.AttendanceRecord) error
	// Get loads the record for the triple, or errs.ErrNotFound.
	Get(ctx context.Context, courseID, experimentID int64, studentUsername string) (*model.AttendanceRecord, error)
}

// ClassSessionRepository resolves concrete class-session occurrences.
type ClassSessionRepository interface {
	// GetByClassExperiment loads the session for (classCode, experimentID),
	// or errs.ErrNotFound.
	GetByClassExperiment(ctx context.Context, classCode string, experimentID int64) (*model.ClassSession, error)
}

// EnrollmentRepository exposes students' class memberships.
type EnrollmentRepository interface {
	// ClassCodes returns the classes a student belongs to, ordered by
	// enrollment time ascending; index 0 is the student's primary class.
	// Returns an empty slice when the student is enrolled nowhere.
	ClassCodes(ctx context.Context, studentUsername string) ([]string, error)
}
