package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/precocerto-backend/internal/modules/user"
	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
)

var errInvalidCredentials = apperr.New(apperr.KindUnauthorized, "invalid credentials")

type service struct {
	userRepo user.Repository
	jwtKey   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewService creates a new auth service signing HS256 session tokens.
func NewService(userRepo user.Repository, secret string, ttl time.Duration) Service {
	return &service{userRepo: userRepo, jwtKey: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", errInvalidCredentials
		}
		return "", err
	}
	if u.PasswordHash == "" {
		return "", errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", errInvalidCredentials
	}
	return s.IssueToken(u.ID)
}

func (s *service) IssueToken(userID uuid.UUID) (string, error) {
	now := s.now()
	claims := &jwt.StandardClaims{
		Subject:   userID.String(),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtKey)
}

func (s *service) ParseToken(tokenString string) (uuid.UUID, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtKey, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, apperr.New(apperr.KindUnauthorized, "invalid or expired session")
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, apperr.New(apperr.KindUnauthorized, "invalid session subject")
	}
	return id, nil
}
