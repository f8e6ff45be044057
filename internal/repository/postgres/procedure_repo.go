package postgres

import (
	"context"
	"errors"

	"github.com/edulabs/labgate/internal/errs"
	"github.com/edulabs/labgate/internal/model"
)

// StepRepo implements StepRepository using PostgreSQL.
type StepRepo struct{ db *DB }

// NewStepRepo constructs a step repository.
func NewStepRepo(db *DB) *StepRepo { return &StepRepo{db: db} }

// GetStep selects a step by ID.
func (r *StepRepo) GetStep(ctx context.Context, stepID int64) (*model.ProcedureStep, error) {
	const q = `
SELECT id, experiment_id, number, type, skippable, score_weight
FROM procedure_steps WHERE id=$1`
	row := r.db.Pool.QueryRow(ctx, q, stepID)
	var s model.ProcedureStep
	var typ string
	if err := row.Scan(&s.ID, &s.ExperimentID, &s.Number, &typ, &s.Skippable, &s.ScoreWeight); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	s.Type = model.StepType(typ)
	return &s, nil
}

// ListByExperiment selects all steps of an experiment ordered by number.
func (r *StepRepo) ListByExperiment(ctx context.Context, experimentID int64) ([]model.ProcedureStep, error) {
	const q = `
SELECT id, experiment_id, number, type, skippable, score_weight
FROM procedure_steps WHERE experiment_id=$1
ORDER BY number ASC`
	rows, err := r.db.Pool.Query(ctx, q, experimentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []model.ProcedureStep
	for rows.Next() {
		var s model.ProcedureStep
		var typ string
		if err := rows.Scan(&s.ID, &s.ExperimentID, &s.Number, &typ, &s.Skippable, &s.ScoreWeight); err != nil {
			return nil, err
		}
		s.Type = model.StepType(typ)
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// WindowRepo implements WindowRepository using PostgreSQL.
type WindowRepo struct{ db *DB }

// NewWindowRepo constructs a window repository.
func NewWindowRepo(db *DB) *WindowRepo { return &WindowRepo{db: db} }

// Get selects the window for (classSessionID, stepID).
func (r *WindowRepo) Get(ctx context.Context, classSessionID, stepID int64) (*model.StepWindow, error) {
	const q = `
SELECT class_session_id, step_id, starts_at, ends_at
FROM step_windows WHERE class_session_id=$1 AND step_id=$2`
	row := r.db.Pool.QueryRow(ctx, q, classSessionID, stepID)
	var w model.StepWindow
	if err := row.Scan(&w.ClassSessionID, &w.StepID, &w.StartsAt, &w.EndsAt); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &w, nil
}

// CompletionRepo implements CompletionRepository using PostgreSQL.
type CompletionRepo struct{ db *DB }

// NewCompletionRepo constructs a completion repository.
func NewCompletionRepo(db *DB) *CompletionRepo { return &CompletionRepo{db: db} }

// Get selects the completion for (studentUsername, classCode, stepID).
func (r *CompletionRepo) Get(ctx context.Context, studentUsername, classCode string, stepID int64) (*model.StepCompletion, error) {
	const q = `
SELECT student_username, class_code, step_id, answer, created_at
FROM step_completions
WHERE student_username=$1 AND class_code=$2 AND step_id=$3`
	row := r.db.Pool.QueryRow(ctx, q, studentUsername, classCode, stepID)
	var c model.StepCompletion
	if err := row.Scan(&c.StudentUsername, &c.ClassCode, &c.StepID, &c.Answer, &c.CreatedAt); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &c, nil
}

// Create inserts a completion row. The primary key on
// (student_username, class_code, step_id) rejects duplicates.
func (r *CompletionRepo) Create(ctx context.Context, c *model.StepCompletion) error {
	const q = `
INSERT INTO step_completions (student_username, class_code, step_id, answer, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, c.StudentUsername, c.ClassCode, c.StepID, c.Answer, c.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}
