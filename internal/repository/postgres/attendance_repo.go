package postgres

import (
	"context"
	"errors"

	"github.com/edulabs/labgate/internal/errs"
	"github.com/edulabs/labgate/internal/model"
)

// AttendanceRepo implements AttendanceRepository using PostgreSQL.
type AttendanceRepo struct{ db *DB }

// NewAttendanceRepo constructs an attendance repository.
func NewAttendanceRepo(db *DB) *AttendanceRepo { return &AttendanceRepo{db: db} }

// Create inserts a new attendance row. The unique index on
// (course_id, experiment_id, student_username) makes the second of two racing
// writers fail; that failure is reported as ErrAlreadyExists so the engine can
// re-fetch and echo the winner's record.
func (r *AttendanceRepo) Create(ctx context.Context, rec *model.AttendanceRecord) error {
	const q = `
INSERT INTO attendance_records (course_id, experiment_id, student_username, status, attended_at, actual_class_code, source_ip)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	err := r.db.Pool.QueryRow(ctx, q,
		rec.CourseID, rec.ExperimentID, rec.StudentUsername,
		string(rec.Status), rec.AttendedAt, rec.ActualClassCode, rec.SourceIP,
	).Scan(&rec.ID)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// Get selects the record for (courseID, experimentID, studentUsername).
func (r *AttendanceRepo) Get(ctx context.Context, courseID, experimentID int64, studentUsername string) (*model.AttendanceRecord, error) {
	const q = `
SELECT id, course_id, experiment_id, student_username, status, attended_at, actual_class_code, source_ip
FROM attendance_records
WHERE course_id=$1 AND experiment_id=$2 AND student_username=$3`
	row := r.db.Pool.QueryRow(ctx, q, courseID, experimentID, studentUsername)
	var rec model.AttendanceRecord
	var status string
	if err := row.Scan(&rec.ID, &rec.CourseID, &rec.ExperimentID, &rec.StudentUsername,
		&status, &rec.AttendedAt, &rec.ActualClassCode, &rec.SourceIP); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	rec.Status = model.AttendanceStatus(status)
	return &rec, nil
}

// ClassSessionRepo implements ClassSessionRepository using PostgreSQL.
type ClassSessionRepo struct{ db *DB }

// NewClassSessionRepo constructs a class-session repository.
func NewClassSessionRepo(db *DB) *ClassSessionRepo { return &ClassSessionRepo{db: db} }

// GetByClassExperiment selects the session for (classCode, experimentID).
func (r *ClassSessionRepo) GetByClassExperiment(ctx context.Context, classCode string, experimentID int64) (*model.ClassSession, error) {
	const q = `
SELECT id, class_code, course_id, experiment_id, starts_at
FROM class_sessions WHERE class_code=$1 AND experiment_id=$2`
	row := r.db.Pool.QueryRow(ctx, q, classCode, experimentID)
	var s model.ClassSession
	if err := row.Scan(&s.ID, &s.ClassCode, &s.CourseID, &s.ExperimentID, &s.StartsAt); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &s, nil
}

// EnrollmentRepo implements EnrollmentRepository using PostgreSQL.
type EnrollmentRepo struct{ db *DB }

// NewEnrollmentRepo constructs an enrollment repository.
func NewEnrollmentRepo(db *DB) *EnrollmentRepo { return &EnrollmentRepo{db: db} }

// ClassCodes selects the student's classes ordered by enrollment time.
func (r *EnrollmentRepo) ClassCodes(ctx context.Context, studentUsername string) ([]string, error) {
	const q = `
SELECT class_code FROM enrollments
WHERE student_username=$1
ORDER BY enrolled_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, studentUsername)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}
