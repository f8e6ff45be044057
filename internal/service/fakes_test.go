package service

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/edulabs/labgate/internal/errs"
	"github.com/edulabs/labgate/internal/model"
	"github.com/edulabs/labgate/internal/repository"
)

// --- resources ---

type fakeResources struct {
	videos      map[int64]*model.StoredFile
	submissions map[int64]*model.StoredFile
	attachments map[int64]*model.StoredFile

	calls int
}

var _ repository.ResourceRepository = (*fakeResources)(nil)

func (f *fakeResources) get(m map[int64]*model.StoredFile, id int64) (*model.StoredFile, error) {
	f.calls++
	if file, ok := m[id]; ok {
		cpy := *file
		return &cpy, nil
	}
	return nil, errs.ErrNotFound
}

func (f *fakeResources) GetVideo(_ context.Context, id int64) (*model.StoredFile, error) {
	return f.get(f.videos, id)
}
func (f *fakeResources) GetSubmissionFile(_ context.Context, id int64) (*model.StoredFile, error) {
	return f.get(f.submissions, id)
}
func (f *fakeResources) GetAttachment(_ context.Context, id int64) (*model.StoredFile, error) {
	return f.get(f.attachments, id)
}

// fakeFileInfo backs the injected stat function.
type fakeFileInfo struct {
	name string
	size int64
}

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return f.size }
func (f fakeFileInfo) Mode() fs.FileMode  { return 0 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return false }
func (f fakeFileInfo) Sys() any           { return nil }

// --- attendance ---

type fakeAttendance struct {
	records   map[string]*model.AttendanceRecord // key: course|experiment|student
	createErr error
}

var _ repository.AttendanceRepository = (*fakeAttendance)(nil)

func attKey(courseID, experimentID int64, student string) string {
	return fmt.Sprintf("%d/%d/%s", courseID, experimentID, student)
}

func (f *fakeAttendance) Create(_ context.Context, rec *model.AttendanceRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.records == nil {
		f.records = map[string]*model.AttendanceRecord{}
	}
	k := attKey(rec.CourseID, rec.ExperimentID, rec.StudentUsername)
	if _, exists := f.records[k]; exists {
		return errs.ErrAlreadyExists
	}
	cpy := *rec
	f.records[k] = &cpy
	return nil
}

func (f *fakeAttendance) Get(_ context.Context, courseID, experimentID int64, student string) (*model.AttendanceRecord, error) {
	if rec, ok := f.records[attKey(courseID, experimentID, student)]; ok {
		cpy := *rec
		return &cpy, nil
	}
	return nil, errs.ErrNotFound
}

type fakeSessions struct {
	sessions []*model.ClassSession
}

var _ repository.ClassSessionRepository = (*fakeSessions)(nil)

func (f *fakeSessions) GetByClassExperiment(_ context.Context, classCode string, experimentID int64) (*model.ClassSession, error) {
	for _, s := range f.sessions {
		if s.ClassCode == classCode && s.ExperimentID == experimentID {
			cpy := *s
			return &cpy, nil
		}
	}
	return nil, errs.ErrNotFound
}

type fakeEnrollments struct {
	byStudent map[string][]string
}

var _ repository.EnrollmentRepository = (*fakeEnrollments)(nil)

func (f *fakeEnrollments) ClassCodes(_ context.Context, student string) ([]string, error) {
	return f.byStudent[student], nil
}

// --- procedure ---

type fakeSteps struct {
	steps []model.ProcedureStep
}

var _ repository.StepRepository = (*fakeSteps)(nil)

func (f *fakeSteps) GetStep(_ context.Context, stepID int64) (*model.ProcedureStep, error) {
	for _, s := range f.steps {
		if s.ID == stepID {
			cpy := s
			return &cpy, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeSteps) ListByExperiment(_ context.Context, experimentID int64) ([]model.ProcedureStep, error) {
	var out []model.ProcedureStep
	for _, s := range f.steps {
		if s.ExperimentID == experimentID {
			out = append(out, s)
		}
	}
	return out, nil
}

type windowKey struct{ session, step int64 }

type fakeWindows struct {
	windows map[windowKey]model.StepWindow
}

var _ repository.WindowRepository = (*fakeWindows)(nil)

func (f *fakeWindows) Get(_ context.Context, classSessionID, stepID int64) (*model.StepWindow, error) {
	if w, ok := f.windows[windowKey{classSessionID, stepID}]; ok {
		return &w, nil
	}
	return nil, errs.ErrNotFound
}

type completionKey struct {
	student, class string
	step           int64
}

type fakeCompletions struct {
	done map[completionKey]model.StepCompletion
}

var _ repository.CompletionRepository = (*fakeCompletions)(nil)

func (f *fakeCompletions) Get(_ context.Context, student, class string, stepID int64) (*model.StepCompletion, error) {
	if c, ok := f.done[completionKey{student, class, stepID}]; ok {
		return &c, nil
	}
	return nil, errs.ErrNotFound
}

func (f *fakeCompletions) Create(_ context.Context, c *model.StepCompletion) error {
	if f.done == nil {
		f.done = map[completionKey]model.StepCompletion{}
	}
	k := completionKey{c.StudentUsername, c.ClassCode, c.StepID}
	if _, exists := f.done[k]; exists {
		return errs.ErrAlreadyExists
	}
	f.done[k] = *c
	return nil
}
