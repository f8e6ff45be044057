package token

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edulabs/labgate/internal/crypto"
	"github.com/edulabs/labgate/internal/errs"
	"github.com/edulabs/labgate/internal/model"
)

func newCodec(t *testing.T) *crypto.Codec {
	t.Helper()
	c, err := crypto.NewCodec([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return c
}

func TestDownloadClaims_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := newCodec(t)
	claims := NewDownloadClaims(model.KindSubmissionFile, 77, "jdoe")
	require.NotEmpty(t, claims.Nonce)

	key, err := claims.Encode(codec)
	require.NoError(t, err)

	got, err := DecodeDownload(codec, key)
	require.NoError(t, err)
	require.Equal(t, claims, got)
}

func TestDownloadClaims_FreshNoncePerIssue(t *testing.T) {
	t.Parallel()

	a := NewDownloadClaims(model.KindVideo, 1, "jdoe")
	b := NewDownloadClaims(model.KindVideo, 1, "jdoe")
	require.NotEqual(t, a.Nonce, b.Nonce)
}

func TestDecodeDownload_Malformed(t *testing.T) {
	t.Parallel()

	codec := newCodec(t)

	_, err := DecodeDownload(codec, "garbage")
	require.ErrorIs(t, err, errs.ErrInvalidToken)

	// valid ciphertext, wrong field count
	opaque, err := codec.Encode("VIDEO|1|jdoe")
	require.NoError(t, err)
	_, err = DecodeDownload(codec, opaque)
	require.ErrorIs(t, err, errs.ErrMalformedToken)

	// non-numeric resource id
	opaque, err = codec.Encode("VIDEO|abc|jdoe|n")
	require.NoError(t, err)
	_, err = DecodeDownload(codec, opaque)
	require.ErrorIs(t, err, errs.ErrMalformedToken)
}

func TestEncode_RejectsDelimiterInFields(t *testing.T) {
	t.Parallel()

	codec := newCodec(t)
	claims := DownloadClaims{Kind: model.KindVideo, ResourceID: 1, Owner: "j|doe", Nonce: "n"}
	_, err := claims.Encode(codec)
	require.Error(t, err)
}

func TestPlaybackClaims_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := newCodec(t)
	signer := crypto.NewSigner([]byte("mac-key"))
	now := time.Now()

	claims := PlaybackClaims{VideoID: 42, Owner: "jdoe", ExpiresAt: now.Add(30 * time.Minute)}
	key, err := claims.Encode(codec, signer)
	require.NoError(t, err)

	got, err := DecodePlayback(codec, signer, key, now)
	require.NoError(t, err)
	require.Equal(t, claims.VideoID, got.VideoID)
	require.Equal(t, claims.Owner, got.Owner)
	require.Equal(t, claims.ExpiresAt.UnixMilli(), got.ExpiresAt.UnixMilli())
}

func TestDecodePlayback_Expired(t *testing.T) {
	t.Parallel()

	codec := newCodec(t)
	signer := crypto.NewSigner([]byte("mac-key"))
	issued := time.Now()

	claims := PlaybackClaims{VideoID: 42, Owner: "jdoe", ExpiresAt: issued.Add(time.Minute)}
	key, err := claims.Encode(codec, signer)
	require.NoError(t, err)

	// still valid right before expiry
	_, err = DecodePlayback(codec, signer, key, issued.Add(time.Minute-time.Second))
	require.NoError(t, err)

	_, err = DecodePlayback(codec, signer, key, issued.Add(2*time.Minute))
	require.ErrorIs(t, err, errs.ErrExpired)
}

func TestDecodePlayback_InvalidSignature(t *testing.T) {
	t.Parallel()

	codec := newCodec(t)
	signer := crypto.NewSigner([]byte("mac-key"))
	now := time.Now()
	exp := now.Add(time.Hour)

	// re-encrypt a message whose signature was computed over different fields
	msg := "42|jdoe|" + itoa(exp.UnixMilli())
	forged := "43|jdoe|" + itoa(exp.UnixMilli()) + Delim + signer.Sign(msg)
	opaque, err := codec.Encode(forged)
	require.NoError(t, err)

	_, err = DecodePlayback(codec, signer, opaque, now)
	require.ErrorIs(t, err, errs.ErrInvalidSignature)

	// signature from a different key
	other := crypto.NewSigner([]byte("other-key"))
	opaque, err = codec.Encode(msg + Delim + other.Sign(msg))
	require.NoError(t, err)
	_, err = DecodePlayback(codec, signer, opaque, now)
	require.ErrorIs(t, err, errs.ErrInvalidSignature)
}

func TestDecodePlayback_ExpiryCheckedBeforeSignature(t *testing.T) {
	t.Parallel()

	codec := newCodec(t)
	signer := crypto.NewSigner([]byte("mac-key"))
	now := time.Now()

	// expired AND badly signed: expiry must win
	msg := "42|jdoe|" + itoa(now.Add(-time.Hour).UnixMilli())
	opaque, err := codec.Encode(msg + Delim + "bogus-signature")
	require.NoError(t, err)

	_, err = DecodePlayback(codec, signer, opaque, now)
	require.ErrorIs(t, err, errs.ErrExpired)
}

func TestSessionClaims_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := newCodec(t)
	ends := time.Now().Add(10 * time.Second)

	claims := NewSessionClaims("prof", "CS101-A", 9, ends)
	tok, err := claims.Encode(codec)
	require.NoError(t, err)

	got, err := DecodeSession(codec, tok)
	require.NoError(t, err)
	require.Equal(t, "prof", got.Issuer)
	require.Equal(t, "CS101-A", got.ClassCode)
	require.EqualValues(t, 9, got.ExperimentID)
	require.Equal(t, ends.UnixMilli(), got.EndsAt.UnixMilli())
	require.Equal(t, claims.Nonce, got.Nonce)
}

func TestDecodeSession_Malformed(t *testing.T) {
	t.Parallel()

	codec := newCodec(t)

	_, err := DecodeSession(codec, "not-a-token")
	require.ErrorIs(t, err, errs.ErrInvalidToken)

	opaque, err := codec.Encode(strings.Join([]string{"prof", "CS101-A", "9"}, Delim))
	require.NoError(t, err)
	_, err = DecodeSession(codec, opaque)
	require.ErrorIs(t, err, errs.ErrMalformedToken)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
