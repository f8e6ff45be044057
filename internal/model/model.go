// Package model defines domain entities used by services and repositories.
package model

import "time"

// AttendanceStatus classifies a recorded scan.
type AttendanceStatus string

const (
	StatusNormal     AttendanceStatus = "NORMAL"
	StatusLate       AttendanceStatus = "LATE"
	StatusCrossClass AttendanceStatus = "CROSS_CLASS"
	// StatusMakeup is reachable only through teacher correction, never through
	// a scan.
	StatusMakeup AttendanceStatus = "MAKEUP"
)

// AttendanceRecord is one student's attendance for one experiment session.
// At most one row exists per (CourseID, ExperimentID, StudentUsername); the
// database enforces this with a unique constraint.
type AttendanceRecord struct {
	ID              int64
	CourseID        int64
	ExperimentID    int64
	StudentUsername string
	Status          AttendanceStatus
	AttendedAt      time.Time
	// ActualClassCode is the class the student actually belongs to, which for
	// CROSS_CLASS scans differs from the session's class.
	ActualClassCode string
	SourceIP        string
}

// ClassSession is the concrete (class, experiment) occurrence a scan resolves to.
type ClassSession struct {
	ID           int64
	ClassCode    string
	CourseID     int64
	ExperimentID int64
	StartsAt     time.Time
}

// ScanResult is returned to the scanning student. AlreadyRecorded is true when
// the scan was a no-op echoing a previously stored record.
type ScanResult struct {
	Status          AttendanceStatus
	AttendedAt      time.Time
	ClassCode       string
	ExperimentID    int64
	CourseID        int64
	AlreadyRecorded bool
}

// StepType distinguishes the kinds of procedure steps.
type StepType string

const (
	StepVideo          StepType = "VIDEO"
	StepDataCollection StepType = "DATA_COLLECTION"
	StepQuiz           StepType = "QUIZ"
)

// ProcedureStep is one ordered unit of an experiment. Number is unique within
// the experiment and ordering is fully linear.
type ProcedureStep struct {
	ID           int64
	ExperimentID int64
	Number       int
	Type         StepType
	Skippable    bool
	ScoreWeight  float64
}

// StepWindow is the configured access window for a step within a class
// session. StartsAt < EndsAt is validated at write time by the caller.
type StepWindow struct {
	ClassSessionID int64
	StepID         int64
	StartsAt       time.Time
	EndsAt         time.Time
}

// StepCompletion marks a student's finished step. A non-blank Answer denotes
// completion; for VIDEO steps the answer is the watched sentinel.
type StepCompletion struct {
	StudentUsername string
	ClassCode       string
	StepID          int64
	Answer          string
	CreatedAt       time.Time
}

// AccessDecision is the outcome of a step accessibility check. The non-
// Accessible values are workflow outcomes the caller branches on, not errors.
type AccessDecision string

const (
	AccessAccessible         AccessDecision = "ACCESSIBLE"
	AccessNotStarted         AccessDecision = "NOT_STARTED"
	AccessExpired            AccessDecision = "EXPIRED"
	AccessPreviousIncomplete AccessDecision = "PREVIOUS_INCOMPLETE"
)

// ResourceKind tags the entity class a download key grants access to.
type ResourceKind string

const (
	KindVideo          ResourceKind = "VIDEO"
	KindSubmissionFile ResourceKind = "SUBMISSION_FILE"
	KindAttachment     ResourceKind = "ATTACHMENT"
)

// StoredFile is the persisted location of any downloadable resource.
type StoredFile struct {
	ID          int64
	FilePath    string
	DisplayName string
}

// ResourceLocation is the resolved on-disk coordinates returned to a
// download handler.
type ResourceLocation struct {
	FilePath    string
	DisplayName string
	SizeBytes   int64
}

// PlaybackInfo is the resolved target of a verified playback key.
type PlaybackInfo struct {
	VideoID   int64
	Owner     string
	Location  ResourceLocation
	ExpiresAt time.Time
}
