package repository

import (
	"context"

	"github.com/edulabs/labgate/internal/model"
)

// StepRepository provides read access to experiment procedure steps.
type StepRepository interface {
	// GetStep loads a step by ID, or errs.ErrNotFound.
	GetStep(ctx context.Context, stepID int64) (*model.ProcedureStep, error)
	// ListByExperiment returns all steps of an experiment ordered by number ASC.
	ListByExperiment(ctx context.Context, experimentID int64) ([]model.ProcedureStep, error)
}

// WindowRepository provides read access to per-session step time windows.
type WindowRepository interface {
	// Get loads the window for (classSessionID, stepID), or errs.ErrNotFound
	// when none is configured.
	Get(ctx context.Context, classSessionID, stepID int64) (*model.StepWindow, error)
}

// CompletionRepository stores students' step completions.
type CompletionRepository interface {
	// Get loads the completion for (studentUsername, classCode, stepID), or
	// errs.ErrNotFound.
	Get(ctx context.Context, studentUsername, classCode string, stepID int64) (*model.StepCompletion, error)
	// Create inserts a completion. Returns errs.ErrAlreadyExists when the
	// student already has one for this step; completions are never upserted.
	Create(ctx context.Context, c *model.StepCompletion) error
}
