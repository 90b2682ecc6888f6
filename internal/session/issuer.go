// Package session issues and verifies the HS256 session tokens.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/traffic-tacos/movie-api/internal/models"
)

var (
	ErrExpiredToken = errors.New("session: token expired")
	ErrInvalidToken = errors.New("session: token invalid")
)

// Claims carried by a session token. Subject is the account id.
type Claims struct {
	AccountID string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with a single HMAC key.
type Issuer struct {
	key    []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

func NewIssuer(key []byte, expiry time.Duration, issuer string) (*Issuer, error) {
	if len(key) == 0 {
		return nil, errors.New("session: signing key is empty")
	}
	if expiry <= 0 {
		return nil, fmt.Errorf("session: invalid expiry %s", expiry)
	}
	return &Issuer{key: key, expiry: expiry, issuer: issuer, now: time.Now}, nil
}

// Issue returns a signed token for the account and its expiry time.
func (i *Issuer) Issue(account *models.Account) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.expiry)

	claims := Claims{
		AccountID: account.ID,
		Username:  account.Username,
		Email:     account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   account.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Verify checks signature, algorithm, issuer and expiry. Expired tokens
// yield ErrExpiredToken and every other failure ErrInvalidToken.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.AccountID == "" {
		return nil, fmt.Errorf("%w: missing account id", ErrInvalidToken)
	}
	return claims, nil
}
