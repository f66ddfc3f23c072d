package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access token payload: {id, name, email, sub: id, role}.
type Claims struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type JWTSignerOption func(*JWTSigner)

type JWTSigner struct {
	secret []byte
	now    func() time.Time
}

func NewJWTSigner(secret string, opts ...JWTSignerOption) (*JWTSigner, error) {
	if secret == "" {
		return nil, errors.New("jwt signing secret is empty")
	}
	s := &JWTSigner{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// WithClock overrides the time source used for iat/exp and for validation.
func WithClock(now func() time.Time) JWTSignerOption {
	return func(s *JWTSigner) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *JWTSigner) Sign(claims Claims, ttl time.Duration) (string, error) {
	now := s.now()
	claims.Subject = strconv.FormatUint(claims.ID, 10)
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString(s.secret)
}

// Verify checks signature and expiry. Any failure is ErrInvalidToken.
func (s *JWTSigner) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Decode reads the claims without checking the signature. Only call it on a
// token that Verify has already accepted in the same request.
func (s *JWTSigner) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseBearer extracts the token from an "Authorization: Bearer <token>"
// value. A missing header or another scheme is ErrTokenNotFound.
func ParseBearer(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrTokenNotFound
	}
	return parts[1], nil
}
