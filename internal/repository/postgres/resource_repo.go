package postgres

import (
	"context"
	"errors"

	"github.com/edulabs/labgate/internal/errs"
	"github.com/edulabs/labgate/internal/model"
)

// ResourceRepo implements ResourceRepository using PostgreSQL.
type ResourceRepo struct{ db *DB }

// NewResourceRepo constructs a resource repository.
func NewResourceRepo(db *DB) *ResourceRepo { return &ResourceRepo{db: db} }

func (r *ResourceRepo) getFile(ctx context.Context, table string, id int64) (*model.StoredFile, error) {
	// table comes from a fixed internal set, never from input
	q := `SELECT id, file_path, display_name FROM ` + table + ` WHERE id=$1`
	row := r.db.Pool.QueryRow(ctx, q, id)
	var f model.StoredFile
	if err := row.Scan(&f.ID, &f.FilePath, &f.DisplayName); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &f, nil
}

// GetVideo selects a video row by ID.
func (r *ResourceRepo) GetVideo(ctx context.Context, id int64) (*model.StoredFile, error) {
	return r.getFile(ctx, "videos", id)
}

// GetSubmissionFile selects a submission file row by ID.
func (r *ResourceRepo) GetSubmissionFile(ctx context.Context, id int64) (*model.StoredFile, error) {
	return r.getFile(ctx, "submission_files", id)
}

// GetAttachment selects an attachment row by ID.
func (r *ResourceRepo) GetAttachment(ctx context.Context, id int64) (*model.StoredFile, error) {
	return r.getFile(ctx, "attachments", id)
}
