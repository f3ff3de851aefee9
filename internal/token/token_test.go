package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func testClaims() Claims {
	return Claims{
		UserID:   "64f1a2b3c4d5e6f708192a3b",
		Email:    "a@x.com",
		Name:     "Alice Example",
		Username: "aliceexample123",
		Role:     "user",
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	signed, err := Sign(testClaims(), time.Hour, testSecret)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := Verify(signed, testSecret)
	require.NoError(t, err)

	assert.Equal(t, "64f1a2b3c4d5e6f708192a3b", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "Alice Example", claims.Name)
	assert.Equal(t, "aliceexample123", claims.Username)
	assert.Equal(t, "user", claims.Role)
	require.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerifyFailures(t *testing.T) {
	signed, err := Sign(testClaims(), time.Hour, testSecret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", signed, "other-secret"},
		{"tampered", signed + "x", testSecret},
		{"malformed", "not.a.jwt", testSecret},
		{"empty", "", testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := Verify(tt.token, tt.secret)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestExpiryBoundary(t *testing.T) {
	signed, err := Sign(testClaims(), time.Second, testSecret)
	require.NoError(t, err)

	require.NotNil(t, SafeVerify(signed, testSecret))
	assert.False(t, IsExpired(signed))

	time.Sleep(1200 * time.Millisecond)

	assert.Nil(t, SafeVerify(signed, testSecret))
	assert.True(t, IsExpired(signed))
	assert.Equal(t, time.Duration(0), Remaining(signed))
}

func TestSafeVerifyNeverPanics(t *testing.T) {
	assert.Nil(t, SafeVerify("", testSecret))
	assert.Nil(t, SafeVerify("garbage", testSecret))
}

func TestDecodeWithoutSecret(t *testing.T) {
	signed, err := Sign(testClaims(), time.Hour, testSecret)
	require.NoError(t, err)

	claims := Decode(signed)
	require.NotNil(t, claims)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "aliceexample123", claims.Username)

	assert.Nil(t, Decode("garbage"))
}

func TestNewPair(t *testing.T) {
	pair, err := NewPair(testClaims(), time.Hour, 7*24*time.Hour, testSecret)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	access, err := Verify(pair.AccessToken, testSecret)
	require.NoError(t, err)
	refresh, err := Verify(pair.RefreshToken, testSecret)
	require.NoError(t, err)

	assert.Equal(t, access.UserID, refresh.UserID)
	assert.True(t, refresh.ExpiresAt.Time.After(access.ExpiresAt.Time),
		"refresh token must outlive access token")
}

func TestRemaining(t *testing.T) {
	signed, err := Sign(testClaims(), time.Hour, testSecret)
	require.NoError(t, err)

	left := Remaining(signed)
	assert.Greater(t, left, 59*time.Minute)
	assert.LessOrEqual(t, left, time.Hour)
}
