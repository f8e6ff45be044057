// Package service contains the lab-access application services: resource
// keys, attendance, and procedure gating.
package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/edulabs/labgate/internal/crypto"
	"github.com/edulabs/labgate/internal/errs"
	"github.com/edulabs/labgate/internal/model"
	"github.com/edulabs/labgate/internal/repository"
	"github.com/edulabs/labgate/internal/token"
)

// DefaultPlaybackTTL applies when a caller issues a playback key without an
// explicit TTL.
const DefaultPlaybackTTL = 30 * time.Minute

// ResourceKeyService mints and resolves opaque resource access keys.
type ResourceKeyService interface {
	// IssueDownloadKey mints a one-shot download key bound to a resource and
	// owner. Download keys carry no expiry; callers are expected to use them
	// immediately after issuance.
	IssueDownloadKey(ctx context.Context, kind model.ResourceKind, resourceID int64, owner string) (string, error)
	// IssuePlaybackKey mints a signed, expiring key for video streaming.
	// ttl <= 0 selects DefaultPlaybackTTL.
	IssuePlaybackKey(ctx context.Context, videoID int64, owner string, ttl time.Duration) (string, error)
	// ResolveDownloadKey decodes a download key and resolves it to on-disk
	// coordinates.
	ResolveDownloadKey(ctx context.Context, key string) (model.ResourceLocation, error)
	// ResolvePlaybackKey verifies a playback key (expiry, then signature) and
	// resolves the video. Both checks pass before any resource lookup runs.
	ResolvePlaybackKey(ctx context.Context, key string) (model.PlaybackInfo, error)
}

type ResourceKeyServiceImpl struct {
	codec     *crypto.Codec
	signer    *crypto.Signer
	resources repository.ResourceRepository
	stat      func(string) (os.FileInfo, error)
	now       func() time.Time
}

// NewResourceKeyService constructs ResourceKeyService with required dependencies.
func NewResourceKeyService(codec *crypto.Codec, signer *crypto.Signer, resources repository.ResourceRepository) *ResourceKeyServiceImpl {
	return &ResourceKeyServiceImpl{
		codec:     codec,
		signer:    signer,
		resources: resources,
		stat:      os.Stat,
		now:       time.Now,
	}
}

// IssueDownloadKey builds a capability token for the resource and encrypts it.
func (s *ResourceKeyServiceImpl) IssueDownloadKey(_ context.Context, kind model.ResourceKind, resourceID int64, owner string) (string, error) {
	switch kind {
	case model.KindVideo, model.KindSubmissionFile, model.KindAttachment:
	default:
		return "", fmt.Errorf("unknown resource kind %q", kind)
	}
	return token.NewDownloadClaims(kind, resourceID, owner).Encode(s.codec)
}

// IssuePlaybackKey signs and encrypts a playback claim expiring at now+ttl.
func (s *ResourceKeyServiceImpl) IssuePlaybackKey(_ context.Context, videoID int64, owner string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultPlaybackTTL
	}
	claims := token.PlaybackClaims{
		VideoID:   videoID,
		Owner:     owner,
		ExpiresAt: s.now().Add(ttl),
	}
	return claims.Encode(s.codec, s.signer)
}

// ResolveDownloadKey decodes the key, dispatches on kind, and checks the
// backing file still exists.
func (s *ResourceKeyServiceImpl) ResolveDownloadKey(ctx context.Context, key string) (model.ResourceLocation, error) {
	claims, err := token.DecodeDownload(s.codec, key)
	if err != nil {
		return model.ResourceLocation{}, err
	}

	var file *model.StoredFile
	switch claims.Kind {
	case model.KindVideo:
		file, err = s.resources.GetVideo(ctx, claims.ResourceID)
	case model.KindSubmissionFile:
		file, err = s.resources.GetSubmissionFile(ctx, claims.ResourceID)
	case model.KindAttachment:
		file, err = s.resources.GetAttachment(ctx, claims.ResourceID)
	default:
		return model.ResourceLocation{}, errs.ErrMalformedToken
	}
	if err != nil {
		return model.ResourceLocation{}, err
	}
	return s.locate(file)
}

// ResolvePlaybackKey verifies the key and resolves the video file.
func (s *ResourceKeyServiceImpl) ResolvePlaybackKey(ctx context.Context, key string) (model.PlaybackInfo, error) {
	claims, err := token.DecodePlayback(s.codec, s.signer, key, s.now())
	if err != nil {
		return model.PlaybackInfo{}, err
	}
	file, err := s.resources.GetVideo(ctx, claims.VideoID)
	if err != nil {
		return model.PlaybackInfo{}, err
	}
	loc, err := s.locate(file)
	if err != nil {
		return model.PlaybackInfo{}, err
	}
	return model.PlaybackInfo{
		VideoID:   claims.VideoID,
		Owner:     claims.Owner,
		Location:  loc,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// locate stats the stored file; a vanished file is ErrNotFound, same as a
// missing row.
func (s *ResourceKeyServiceImpl) locate(file *model.StoredFile) (model.ResourceLocation, error) {
	info, err := s.stat(file.FilePath)
	if err != nil {
		return model.ResourceLocation{}, errs.ErrNotFound
	}
	return model.ResourceLocation{
		FilePath:    file.FilePath,
		DisplayName: file.DisplayName,
		SizeBytes:   info.Size(),
	}, nil
}
