package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edulabs/labgate/internal/crypto"
	"github.com/edulabs/labgate/internal/errs"
	"github.com/edulabs/labgate/internal/model"
	"github.com/edulabs/labgate/internal/repository"
	"github.com/edulabs/labgate/internal/token"
)

const (
	// DefaultSessionDuration is the advertised lifetime of a QR session token;
	// clients refresh their QR code on this cadence.
	DefaultSessionDuration = 10 * time.Second

	// DefaultLateGrace is how long after session start a scan still counts as
	// NORMAL.
	DefaultLateGrace = 15 * time.Minute

	// skewBuffer pads the embedded expiry beyond the advertised duration so a
	// scan sent at the last advertised moment survives clock skew.
	skewBuffer = 2 * time.Second
)

// AttendanceService issues QR session tokens and records student scans.
type AttendanceService interface {
	// OpenSession mints a fresh session token for (classCode, experimentID)
	// and returns it with the advertised duration.
	OpenSession(ctx context.Context, issuer, classCode string, experimentID int64) (string, time.Duration, error)
	// RecordScan validates a scanned token, classifies the scan, and records
	// attendance at most once per (course, experiment, student). A repeated
	// scan is not an error: it echoes the previously stored record.
	RecordScan(ctx context.Context, opaque, studentUsername, sourceIP string) (model.ScanResult, error)
}

type AttendanceServiceImpl struct {
	codec       *crypto.Codec
	records     repository.AttendanceRepository
	sessions    repository.ClassSessionRepository
	enrollments repository.EnrollmentRepository

	sessionDuration time.Duration
	lateGrace       time.Duration
	now             func() time.Time
}

// NewAttendanceService constructs AttendanceService. Non-positive durations
// select the defaults.
func NewAttendanceService(
	codec *crypto.Codec,
	records repository.AttendanceRepository,
	sessions repository.ClassSessionRepository,
	enrollments repository.EnrollmentRepository,
	sessionDuration, lateGrace time.Duration,
) *AttendanceServiceImpl {
	if sessionDuration <= 0 {
		sessionDuration = DefaultSessionDuration
	}
	if lateGrace <= 0 {
		lateGrace = DefaultLateGrace
	}
	return &AttendanceServiceImpl{
		codec:           codec,
		records:         records,
		sessions:        sessions,
		enrollments:     enrollments,
		sessionDuration: sessionDuration,
		lateGrace:       lateGrace,
		now:             time.Now,
	}
}

// OpenSession mints a session token with a fresh nonce. Tokens are never
// reused; each teacher request gets a new one.
func (s *AttendanceServiceImpl) OpenSession(_ context.Context, issuer, classCode string, experimentID int64) (string, time.Duration, error) {
	endsAt := s.now().Add(s.sessionDuration + skewBuffer)
	claims := token.NewSessionClaims(issuer, classCode, experimentID, endsAt)
	tok, err := claims.Encode(s.codec)
	if err != nil {
		return "", 0, err
	}
	return tok, s.sessionDuration, nil
}

// RecordScan runs the scan pipeline: decode, expiry, membership, session
// resolution, idempotency gate, classification, insert. A unique-violation on
// insert means another scan won the race; the winner's record is echoed so the
// at-most-once contract holds.
func (s *AttendanceServiceImpl) RecordScan(ctx context.Context, opaque, studentUsername, sourceIP string) (model.ScanResult, error) {
	claims, err := token.DecodeSession(s.codec, opaque)
	if err != nil {
		return model.ScanResult{}, err
	}

	now := s.now()
	if now.After(claims.EndsAt) {
		return model.ScanResult{}, errs.ErrExpired
	}

	classes, err := s.enrollments.ClassCodes(ctx, studentUsername)
	if err != nil {
		return model.ScanResult{}, fmt.Errorf("load enrollments: %w", err)
	}
	if len(classes) == 0 {
		return model.ScanResult{}, errs.ErrNoEnrollment
	}

	inTargetClass := false
	for _, c := range classes {
		if c == claims.ClassCode {
			inTargetClass = true
			break
		}
	}
	actualClass := claims.ClassCode
	if !inTargetClass {
		actualClass = classes[0]
	}

	sess, err := s.sessions.GetByClassExperiment(ctx, claims.ClassCode, claims.ExperimentID)
	if err != nil {
		return model.ScanResult{}, fmt.Errorf("resolve class session: %w", err)
	}

	// idempotency gate: a second scan echoes the stored record
	if existing, err := s.records.Get(ctx, sess.CourseID, claims.ExperimentID, studentUsername); err == nil {
		return echoResult(existing, sess, true), nil
	}

	status := model.StatusNormal
	switch {
	case !inTargetClass:
		status = model.StatusCrossClass
	case now.After(sess.StartsAt.Add(s.lateGrace)):
		status = model.StatusLate
	}

	rec := &model.AttendanceRecord{
		CourseID:        sess.CourseID,
		ExperimentID:    claims.ExperimentID,
		StudentUsername: studentUsername,
		Status:          status,
		AttendedAt:      now,
		ActualClassCode: actualClass,
		SourceIP:        sourceIP,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			// lost the race; surface the record that actually got stored
			winner, gerr := s.records.Get(ctx, sess.CourseID, claims.ExperimentID, studentUsername)
			if gerr != nil {
				return model.ScanResult{}, fmt.Errorf("re-fetch attendance after race: %w", gerr)
			}
			return echoResult(winner, sess, true), nil
		}
		return model.ScanResult{}, fmt.Errorf("record attendance: %w", err)
	}
	return echoResult(rec, sess, false), nil
}

func echoResult(rec *model.AttendanceRecord, sess *model.ClassSession, already bool) model.ScanResult {
	return model.ScanResult{
		Status:          rec.Status,
		AttendedAt:      rec.AttendedAt,
		ClassCode:       sess.ClassCode,
		ExperimentID:    rec.ExperimentID,
		CourseID:        rec.CourseID,
		AlreadyRecorded: already,
	}
}
