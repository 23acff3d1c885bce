// Package auth issues and verifies guest identities.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aaronzipp/coup-online/internal/apperr"
)

const issuer = "coup-online"

// Guest is a logged-in guest.
type Guest struct {
	ID        string    `json:"session_id"`
	Tag       string    `json:"guest_tag"`
	Nickname  string    `json:"nickname"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

type guestClaims struct {
	jwt.RegisteredClaims
	Nickname string `json:"nickname"`
}

// Issuer signs guest tokens with a shared HS256 secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an issuer. now may be nil.
func NewIssuer(secret string, ttl time.Duration, now func() time.Time) (*Issuer, error) {
	if len(secret) < 16 {
		return nil, errors.New("token secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: now}, nil
}

// IssueGuest creates a new guest identity for nickname.
func (i *Issuer) IssueGuest(nickname string) (*Guest, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, apperr.New(apperr.InvalidAction, "nickname is required")
	}
	if len(nickname) > 24 {
		return nil, apperr.New(apperr.InvalidAction, "nickname is too long")
	}

	now := i.now().UTC()
	g := &Guest{
		ID:        uuid.NewString(),
		Tag:       "guest_" + nickname,
		Nickname:  nickname,
		ExpiresAt: now.Add(i.ttl),
	}
	claims := guestClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   g.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(g.ExpiresAt),
		},
		Nickname: nickname,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "sign guest token", err)
	}
	g.Token = token
	return g, nil
}

// Verify checks a token and returns the guest it names.
func (i *Issuer) Verify(token string) (*Guest, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.ErrUnauthorized
	}
	var claims guestClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.Unauthorized, "session expired, log in again", err)
		}
		return nil, apperr.Wrap(apperr.Unauthorized, "invalid session token", err)
	}
	if claims.Subject == "" {
		return nil, apperr.New(apperr.Unauthorized, "invalid session token")
	}
	return &Guest{
		ID:        claims.Subject,
		Tag:       "guest_" + claims.Nickname,
		Nickname:  claims.Nickname,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
