package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/folio-cms/folio/pkg/middleware"
)

// ErrNotOwner is returned for valid ID tokens of someone other than the owner.
var ErrNotOwner = errors.New("identity is not the site owner")

// Verifier accepts ID tokens from an external provider (Keycloak) for the
// configured owner emails only.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
	owners   map[string]bool
}

// IssuerURL builds the Keycloak realm issuer.
func IssuerURL(base, realm string) string {
	return strings.TrimRight(base, "/") + "/realms/" + realm
}

// NewVerifier discovers the provider at issuer. owners lists the emails
// allowed to edit; empty allows nobody.
func NewVerifier(ctx context.Context, issuer, clientID string, owners ...string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return newVerifier(provider.Verifier(&oidc.Config{ClientID: clientID}), owners), nil
}

func newVerifier(v *oidc.IDTokenVerifier, owners []string) *Verifier {
	m := make(map[string]bool, len(owners))
	for _, o := range owners {
		m[strings.ToLower(strings.TrimSpace(o))] = true
	}
	return &Verifier{verifier: v, owners: m}
}

// Verify implements middleware.Verifier.
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	var claims struct {
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return nil, ErrNotOwner
	}
	if !v.owners[strings.ToLower(claims.Email)] {
		return nil, ErrNotOwner
	}
	return idToken, nil
}
