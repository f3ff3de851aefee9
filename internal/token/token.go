// Package token is the bearer-token codec: signing, verification and
// non-authoritative decoding of the JWTs used as access and refresh
// credentials. It is a pure function of the secret and the claims; it
// knows nothing about sessions or storage.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSigning      = errors.New("token signing failed")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the principal payload carried by both tokens of a pair.
// It never includes the password or its hash.
type Claims struct {
	UserID   string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Pair is the result of one issuance: the same claims signed twice
// with different lifetimes and a single shared secret.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Sign stamps iat/exp onto a copy of claims and signs it. Any iat/exp
// already present on the input is overwritten, which is what lets the
// refresh flow resign a verified payload with a fresh lifetime.
func Sign(claims Claims, ttl time.Duration, secret string) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, nil
}

// Verify checks signature, structure and expiry. All failures collapse
// into ErrInvalidToken; callers never branch on the parse detail.
func Verify(tokenStr string, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SafeVerify is Verify with failures converted to nil. Used at
// admission-control boundaries where a bad token must not raise.
func SafeVerify(tokenStr string, secret string) *Claims {
	claims, err := Verify(tokenStr, secret)
	if err != nil {
		return nil
	}
	return claims
}

// Decode extracts claims without checking the signature. Only for
// non-authoritative inspection such as remaining-lifetime display,
// never for authorization decisions.
func Decode(tokenStr string) *Claims {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil
	}
	return claims
}

// NewPair signs the same claims twice: a short-lived access token and
// a long-lived refresh token sharing one secret.
func NewPair(claims Claims, accessTTL, refreshTTL time.Duration, secret string) (Pair, error) {
	access, err := Sign(claims, accessTTL, secret)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := Sign(claims, refreshTTL, secret)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Remaining reports the time until expiry based on unverified claims.
// Zero means expired, malformed or missing exp.
func Remaining(tokenStr string) time.Duration {
	claims := Decode(tokenStr)
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	left := time.Until(claims.ExpiresAt.Time)
	if left < 0 {
		return 0
	}
	return left
}

// IsExpired reports whether the token's exp claim has passed.
func IsExpired(tokenStr string) bool {
	claims := Decode(tokenStr)
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Time.Before(time.Now())
}
