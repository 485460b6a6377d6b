package sessions

import (
	"context"
	"errors"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrInvalidRefresh is returned for unknown, expired or revoked refresh tokens.
var ErrInvalidRefresh = errors.New("invalid refresh token")

const refreshTokenLen = 43

// Service wraps repository operations with business logic
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(r Repository) *Service { return &Service{repo: r, now: time.Now} }

// CreateSession stores a new refresh session and returns the refresh token
func (s *Service) CreateSession(ctx context.Context, sub string, ttl time.Duration) (string, error) {
	token, err := gonanoid.New(refreshTokenLen)
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	sess := &Session{
		RefreshToken: token,
		Sub:          sub,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return "", err
	}
	return token, nil
}

// ValidateRefresh returns the session if refresh token is valid and not expired
func (s *Service) ValidateRefresh(ctx context.Context, refresh string) (*Session, error) {
	sess, err := s.repo.GetByRefresh(ctx, refresh)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrInvalidRefresh
	}
	if sess.Expired(s.now().UTC()) {
		_ = s.repo.DeleteByRefresh(ctx, refresh)
		return nil, ErrInvalidRefresh
	}
	return sess, nil
}

// Rotate swaps a valid refresh token for a new one bound to the same
// subject. The old token is redeemed atomically and stops working, also
// when two refreshes race.
func (s *Service) Rotate(ctx context.Context, refresh string, ttl time.Duration) (*Session, string, error) {
	sess, err := s.repo.TakeByRefresh(ctx, refresh)
	if err != nil {
		return nil, "", err
	}
	if sess == nil || sess.Expired(s.now().UTC()) {
		return nil, "", ErrInvalidRefresh
	}
	next, err := s.CreateSession(ctx, sess.Sub, ttl)
	if err != nil {
		return nil, "", err
	}
	return sess, next, nil
}

func (s *Service) DeleteRefresh(ctx context.Context, refresh string) error {
	return s.repo.DeleteByRefresh(ctx, refresh)
}
