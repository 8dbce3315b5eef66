package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/monocle-dev/devboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testUser() *models.User {
	u := &models.User{Username: "alice", Email: "a@x.com"}
	u.ID = "3f1c0d2e-0000-4000-8000-000000000001"
	return u
}

func TestAccessTokenRoundTrip(t *testing.T) {
	j, err := NewJWT("access-secret", "refresh-secret", 15*time.Minute, time.Hour)
	require.NoError(t, err)

	token, err := j.IssueAccessToken(testUser())
	require.NoError(t, err)

	claims, err := j.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "3f1c0d2e-0000-4000-8000-000000000001", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "alice", claims.Username)
}

func TestTokensAreBoundToTheirSecret(t *testing.T) {
	j, err := NewJWT("access-secret", "refresh-secret", 15*time.Minute, time.Hour)
	require.NoError(t, err)

	access, err := j.IssueAccessToken(testUser())
	require.NoError(t, err)
	refresh, err := j.IssueRefreshToken(testUser())
	require.NoError(t, err)

	_, err = j.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = j.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	subject, err := j.VerifyRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, testUser().ID, subject)
}

func TestRefreshTokensAreUniqueUnderFrozenClock(t *testing.T) {
	j, err := NewJWT("access-secret", "refresh-secret", time.Minute, time.Hour)
	require.NoError(t, err)

	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return issued }

	first, err := j.IssueRefreshToken(testUser())
	require.NoError(t, err)
	second, err := j.IssueRefreshToken(testUser())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestExpiredAccessTokenIsRejected(t *testing.T) {
	j, err := NewJWT("access-secret", "refresh-secret", time.Minute, time.Hour)
	require.NoError(t, err)

	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return issued }
	token, err := j.IssueAccessToken(testUser())
	require.NoError(t, err)

	j.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = j.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNoneAlgorithmIsRejected(t *testing.T) {
	j, err := NewJWT("access-secret", "refresh-secret", time.Minute, time.Hour)
	require.NoError(t, err)

	claims := AccessClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "someone",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = j.VerifyAccessToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTRequiresSecrets(t *testing.T) {
	_, err := NewJWT("", "refresh", time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	digest, err := h.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", digest)

	ok, err := h.Verify("s3cret-pass", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", digest)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Verify("anything", "not-a-bcrypt-hash")
	assert.Error(t, err)
}

func TestOneTimeTokens(t *testing.T) {
	o := NewOneTimeTokens(20 * time.Minute)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return fixed }

	first, err := o.Generate()
	require.NoError(t, err)
	second, err := o.Generate()
	require.NoError(t, err)

	assert.Len(t, first.Token, 40)
	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, o.Derive(first.Token), first.Hash)
	assert.NotEqual(t, first.Token, first.Hash)
	assert.Equal(t, fixed.Add(20*time.Minute), first.Expiry)
}
