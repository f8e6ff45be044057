package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edulabs/labgate/internal/errs"
	"github.com/edulabs/labgate/internal/model"
	"github.com/edulabs/labgate/internal/repository"
)

// WatchedSentinel is the answer payload recorded when a student acknowledges
// watching a VIDEO step.
const WatchedSentinel = "WATCHED"

// ProcedureService evaluates step accessibility and records video watches.
type ProcedureService interface {
	// CheckAccessible decides whether the student may currently interact with
	// the step. Pure read; never mutates state. A missing time window is a
	// configuration error, not a NotStarted outcome.
	CheckAccessible(ctx context.Context, classSessionID int64, classCode, studentUsername string, step model.ProcedureStep) (model.AccessDecision, error)
	// MarkVideoWatched records the watched sentinel for a VIDEO step.
	// One-shot: a second call fails with ErrAlreadyExists. Unlike attendance
	// this is deliberately not idempotent.
	MarkVideoWatched(ctx context.Context, studentUsername, classCode string, stepID int64) error
}

type ProcedureServiceImpl struct {
	steps       repository.StepRepository
	windows     repository.WindowRepository
	completions repository.CompletionRepository
	now         func() time.Time
}

// NewProcedureService constructs ProcedureService with required dependencies.
func NewProcedureService(steps repository.StepRepository, windows repository.WindowRepository, completions repository.CompletionRepository) *ProcedureServiceImpl {
	return &ProcedureServiceImpl{
		steps:       steps,
		windows:     windows,
		completions: completions,
		now:         time.Now,
	}
}

// CheckAccessible gates the step on its own window first, then scans
// predecessors in ascending number order. A non-skippable, incomplete
// predecessor blocks only while its own window is still open; once that window
// expires the predecessor stops blocking.
func (s *ProcedureServiceImpl) CheckAccessible(ctx context.Context, classSessionID int64, classCode, studentUsername string, step model.ProcedureStep) (model.AccessDecision, error) {
	window, err := s.window(ctx, classSessionID, step.ID)
	if err != nil {
		return "", err
	}

	now := s.now()
	if now.Before(window.StartsAt) {
		return model.AccessNotStarted, nil
	}
	if now.After(window.EndsAt) {
		return model.AccessExpired, nil
	}

	// the first step has no predecessor; skippable steps never block on
	// anything and are never themselves blocking predecessors
	if step.Number == 1 || step.Skippable {
		return model.AccessAccessible, nil
	}

	all, err := s.steps.ListByExperiment(ctx, step.ExperimentID)
	if err != nil {
		return "", fmt.Errorf("list steps: %w", err)
	}
	for _, prev := range all {
		if prev.Number >= step.Number {
			break
		}
		if prev.Skippable {
			continue
		}
		done, err := s.completed(ctx, studentUsername, classCode, prev.ID)
		if err != nil {
			return "", err
		}
		if done {
			continue
		}
		prevWindow, err := s.window(ctx, classSessionID, prev.ID)
		if err != nil {
			return "", err
		}
		if now.After(prevWindow.EndsAt) {
			// the chance to complete it has passed; it no longer blocks
			continue
		}
		return model.AccessPreviousIncomplete, nil
	}
	return model.AccessAccessible, nil
}

// MarkVideoWatched records the watched sentinel once. The completion row's
// uniqueness makes the second of two racing calls fail.
func (s *ProcedureServiceImpl) MarkVideoWatched(ctx context.Context, studentUsername, classCode string, stepID int64) error {
	step, err := s.steps.GetStep(ctx, stepID)
	if err != nil {
		return err
	}
	if step.Type != model.StepVideo {
		return fmt.Errorf("step %d is %s, not a video", stepID, step.Type)
	}
	return s.completions.Create(ctx, &model.StepCompletion{
		StudentUsername: studentUsername,
		ClassCode:       classCode,
		StepID:          stepID,
		Answer:          WatchedSentinel,
		CreatedAt:       s.now(),
	})
}

// window loads a step's time window, mapping an unconfigured window to a
// loud configuration error so operators fix it instead of students seeing a
// misleading "not yet open".
func (s *ProcedureServiceImpl) window(ctx context.Context, classSessionID, stepID int64) (*model.StepWindow, error) {
	w, err := s.windows.Get(ctx, classSessionID, stepID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("%w: no time window for step %d in session %d", errs.ErrConfiguration, stepID, classSessionID)
		}
		return nil, fmt.Errorf("load window: %w", err)
	}
	return w, nil
}

// completed reports whether a step completion with a non-blank answer exists.
func (s *ProcedureServiceImpl) completed(ctx context.Context, studentUsername, classCode string, stepID int64) (bool, error) {
	c, err := s.completions.Get(ctx, studentUsername, classCode, stepID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load completion: %w", err)
	}
	return strings.TrimSpace(c.Answer) != "", nil
}
