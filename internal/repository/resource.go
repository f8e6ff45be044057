package repository

import (
	"context"

	"github.com/edulabs/labgate/internal/model"
)

// ResourceRepository resolves downloadable resources to their stored files.
// All lookups return errs.ErrNotFound when the row is missing.
type ResourceRepository interface {
	// GetVideo loads a video's stored file by ID.
	GetVideo(ctx context.Context, id int64) (*model.StoredFile, error)
	// GetSubmissionFile loads a student submission's stored file by ID.
	GetSubmissionFile(ctx context.Context, id int64) (*model.StoredFile, error)
	// GetAttachment loads an experiment attachment's stored file by ID.
	GetAttachment(ctx context.Context, id int64) (*model.StoredFile, error)
}
