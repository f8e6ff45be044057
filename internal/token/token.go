// Package token defines the payload formats carried inside opaque capability
// tokens: download keys, playback keys, and attendance session tokens.
//
// Payloads are delimiter-joined field strings encrypted by crypto.Codec. The
// pipe-delimited layout is the stable wire format: a token issued by one
// process must stay decodable by any process sharing the same keys, so fields
// are only ever appended, never reordered.
package token

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/edulabs/labgate/internal/crypto"
	"github.com/edulabs/labgate/internal/errs"
	"github.com/edulabs/labgate/internal/model"
)

// Delim separates payload fields. Field values must not contain it.
const Delim = "|"

const (
	downloadFieldCount = 4
	playbackFieldCount = 4
	sessionFieldCount  = 5
)

// joinFields validates and joins payload fields. A field containing the
// delimiter would corrupt the split at decode time, so it is rejected here.
func joinFields(fields ...string) (string, error) {
	for _, f := range fields {
		if strings.Contains(f, Delim) {
			return "", fmt.Errorf("token field %q contains delimiter", f)
		}
	}
	return strings.Join(fields, Delim), nil
}

// DownloadClaims is the payload of a download key. No expiry is embedded:
// download keys are meant for immediate one-shot use after issuance and rely
// on the opaque string's unguessability. The nonce only prevents incidental
// collisions, it does not prevent replay.
type DownloadClaims struct {
	Kind       model.ResourceKind
	ResourceID int64
	Owner      string
	Nonce      string
}

// NewDownloadClaims builds claims with a fresh nonce.
func NewDownloadClaims(kind model.ResourceKind, resourceID int64, owner string) DownloadClaims {
	return DownloadClaims{
		Kind:       kind,
		ResourceID: resourceID,
		Owner:      owner,
		Nonce:      uuid.Must(uuid.NewV4()).String(),
	}
}

// Encode encrypts the claims into an opaque key.
func (c DownloadClaims) Encode(codec *crypto.Codec) (string, error) {
	payload, err := joinFields(string(c.Kind), strconv.FormatInt(c.ResourceID, 10), c.Owner, c.Nonce)
	if err != nil {
		return "", err
	}
	return codec.Encode(payload)
}

// DecodeDownload decrypts and splits an opaque download key.
func DecodeDownload(codec *crypto.Codec, opaque string) (DownloadClaims, error) {
	payload, err := codec.Decode(opaque)
	if err != nil {
		return DownloadClaims{}, err
	}
	fields := strings.Split(payload, Delim)
	if len(fields) != downloadFieldCount {
		return DownloadClaims{}, errs.ErrMalformedToken
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return DownloadClaims{}, errs.ErrMalformedToken
	}
	return DownloadClaims{
		Kind:       model.ResourceKind(fields[0]),
		ResourceID: id,
		Owner:      fields[2],
		Nonce:      fields[3],
	}, nil
}

// PlaybackClaims is the payload of a playback key: resource binding plus an
// embedded expiry, protected by an HMAC over the first three fields.
type PlaybackClaims struct {
	VideoID   int64
	Owner     string
	ExpiresAt time.Time
}

// Encode signs the message fields and encrypts message+signature into an
// opaque key.
func (c PlaybackClaims) Encode(codec *crypto.Codec, signer *crypto.Signer) (string, error) {
	msg, err := joinFields(
		strconv.FormatInt(c.VideoID, 10),
		c.Owner,
		strconv.FormatInt(c.ExpiresAt.UnixMilli(), 10),
	)
	if err != nil {
		return "", err
	}
	// the signature is base64url and cannot contain the delimiter
	return codec.Encode(msg + Delim + signer.Sign(msg))
}

// DecodePlayback decrypts an opaque playback key and verifies it. Checks run
// in a fixed order: decode, field count, expiry, signature. Both expiry and
// signature are verified before the caller may touch any resource, so invalid
// callers learn nothing about resource existence.
func DecodePlayback(codec *crypto.Codec, signer *crypto.Signer, opaque string, now time.Time) (PlaybackClaims, error) {
	payload, err := codec.Decode(opaque)
	if err != nil {
		return PlaybackClaims{}, err
	}
	fields := strings.Split(payload, Delim)
	if len(fields) != playbackFieldCount {
		return PlaybackClaims{}, errs.ErrMalformedToken
	}
	expMillis, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return PlaybackClaims{}, errs.ErrMalformedToken
	}
	expiresAt := time.UnixMilli(expMillis)
	if now.After(expiresAt) {
		return PlaybackClaims{}, errs.ErrExpired
	}
	msg := strings.Join(fields[:3], Delim)
	if !signer.Verify(msg, fields[3]) {
		return PlaybackClaims{}, errs.ErrInvalidSignature
	}
	videoID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return PlaybackClaims{}, errs.ErrMalformedToken
	}
	return PlaybackClaims{VideoID: videoID, Owner: fields[1], ExpiresAt: expiresAt}, nil
}

// SessionClaims is the payload of an attendance session token shown as a QR
// code. Regenerated with a fresh nonce on every teacher request, never reused.
type SessionClaims struct {
	Issuer       string
	ClassCode    string
	ExperimentID int64
	EndsAt       time.Time
	Nonce        string
}

// NewSessionClaims builds claims with a fresh nonce.
func NewSessionClaims(issuer, classCode string, experimentID int64, endsAt time.Time) SessionClaims {
	return SessionClaims{
		Issuer:       issuer,
		ClassCode:    classCode,
		ExperimentID: experimentID,
		EndsAt:       endsAt,
		Nonce:        uuid.Must(uuid.NewV4()).String(),
	}
}

// Encode encrypts the claims into an opaque session token.
func (c SessionClaims) Encode(codec *crypto.Codec) (string, error) {
	payload, err := joinFields(
		c.Issuer,
		c.ClassCode,
		strconv.FormatInt(c.ExperimentID, 10),
		strconv.FormatInt(c.EndsAt.UnixMilli(), 10),
		c.Nonce,
	)
	if err != nil {
		return "", err
	}
	return codec.Encode(payload)
}

// DecodeSession decrypts and splits an opaque session token. Expiry is parsed
// but not checked here; the attendance engine owns that decision.
func DecodeSession(codec *crypto.Codec, opaque string) (SessionClaims, error) {
	payload, err := codec.Decode(opaque)
	if err != nil {
		return SessionClaims{}, err
	}
	fields := strings.Split(payload, Delim)
	if len(fields) != sessionFieldCount {
		return SessionClaims{}, errs.ErrMalformedToken
	}
	experimentID, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return SessionClaims{}, errs.ErrMalformedToken
	}
	endMillis, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return SessionClaims{}, errs.ErrMalformedToken
	}
	return SessionClaims{
		Issuer:       fields[0],
		ClassCode:    fields[1],
		ExperimentID: experimentID,
		EndsAt:       time.UnixMilli(endMillis),
		Nonce:        fields[4],
	}, nil
}
