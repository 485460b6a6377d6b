package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/folio-cms/folio/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var ErrBadPassword = errors.New("email or password mismatch")

// dummyHash keeps the timing of unknown-email sign-ins close to that of a
// wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("folio-dummy-password"), bcrypt.DefaultCost)

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// OwnerSub is the subject of the password-based site owner.
func OwnerSub(email string) string { return "local|" + normalizeEmail(email) }

// EnsureOwner creates or updates the owner account. hash, when set, must
// be a bcrypt hash and is used instead of password.
func (s *Service) EnsureOwner(ctx context.Context, email, name, password, hash string) (*models.User, error) {
	if email == "" {
		return nil, fmt.Errorf("owner email is required")
	}
	if hash == "" {
		if password == "" {
			return nil, fmt.Errorf("owner password is required")
		}
		b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(b)
	} else if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("owner password hash: %w", err)
	}
	return s.repo.UpsertBySub(ctx, &models.User{Sub: OwnerSub(email), Email: email, Name: name, PasswordHash: hash})
}

// Authenticate checks an email/password pair. Unknown email and wrong
// password both return ErrBadPassword.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || u.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrBadPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadPassword
	}
	return u, nil
}

// UpsertFromClaims creates or updates a user using OIDC claims map
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if sub == "" {
		return nil, nil
	}
	return s.repo.UpsertBySub(ctx, &models.User{Sub: sub, Email: email, Name: name})
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.GetBySub(ctx, sub)
}
