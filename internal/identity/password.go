package identity

import (
	"context"
	"errors"
	"sync"

	"github.com/folio-cms/folio/pkg/logger"
)

// ErrInvalidCredentials is the only sign-in failure callers ever see.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator verifies an email/password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*Identity, error)
}

type AuthenticatorFunc func(ctx context.Context, email, password string) (*Identity, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, email, password string) (*Identity, error) {
	return f(ctx, email, password)
}

// PasswordSource is a Source signed into with email and password.
type PasswordSource struct {
	auth Authenticator

	mu      sync.Mutex
	current *Identity
	next    int
	fns     map[int]func(*Identity)
}

var _ Source = (*PasswordSource)(nil)

func NewPasswordSource(auth Authenticator) *PasswordSource {
	return &PasswordSource{auth: auth, fns: make(map[int]func(*Identity))}
}

// Watch reports the current state right away.
func (s *PasswordSource) Watch(fn func(*Identity)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.fns[id] = fn
	cur := s.current
	s.mu.Unlock()
	fn(cur)
	return func() {
		s.mu.Lock()
		delete(s.fns, id)
		s.mu.Unlock()
	}
}

// SignIn returns ErrInvalidCredentials for any failure, without saying
// whether the user or the password was wrong.
func (s *PasswordSource) SignIn(ctx context.Context, email, password string) error {
	id, err := s.auth.Authenticate(ctx, email, password)
	if err != nil || id == nil {
		logger.Debugf("identity: sign-in failed: %v", err)
		return ErrInvalidCredentials
	}
	s.set(id)
	return nil
}

func (s *PasswordSource) SignOut(ctx context.Context) error {
	s.set(nil)
	return nil
}

func (s *PasswordSource) set(id *Identity) {
	s.mu.Lock()
	s.current = id
	fns := make([]func(*Identity), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(id)
	}
}
