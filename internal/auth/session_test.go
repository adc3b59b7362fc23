package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanbastic/pixel-mosaic/internal/pixel"
)

func TestSessions_IssueVerify(t *testing.T) {
	s := NewSessions("secret", time.Hour)

	tok, err := s.Issue("user-1", "a@example.com")
	require.NoError(t, err)

	claims, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestSessions_Expired(t *testing.T) {
	s := NewSessions("secret", time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	s.now = func() time.Time { return issued }
	tok, err := s.Issue("user-1", "a@example.com")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, pixel.ErrUnauthenticated)
}

func TestSessions_WrongSecret(t *testing.T) {
	tok, err := NewSessions("secret", time.Hour).Issue("user-1", "")
	require.NoError(t, err)

	_, err = NewSessions("other", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, pixel.ErrUnauthenticated)
}

func TestSessions_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewSessions("secret", time.Hour).Verify(unsigned)
	assert.ErrorIs(t, err, pixel.ErrUnauthenticated)
}

func TestSessions_RequiresSubject(t *testing.T) {
	tok, err := NewSessions("secret", time.Hour).Issue("", "")
	require.NoError(t, err)

	_, err = NewSessions("secret", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, pixel.ErrUnauthenticated)
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	tok, err = BearerToken("bearer   xyz ")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic abc", "abc"} {
		_, err := BearerToken(header)
		assert.ErrorIs(t, err, pixel.ErrUnauthenticated, header)
	}
}
