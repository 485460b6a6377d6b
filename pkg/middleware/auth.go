package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenCookie carries the access token for browser page requests.
const TokenCookie = "folio_token"

// Context keys set by the auth middlewares.
const (
	ClaimsKey = "claims"
	TokenKey  = "token"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// Revocations reports access tokens revoked before their expiry.
type Revocations interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware rejects requests without a valid, unrevoked Bearer token.
func AuthMiddleware(ver Verifier, revoked Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		token, ok := bearer(auth)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}
		claims, status, msg := authenticate(c.Request.Context(), ver, revoked, token)
		if status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// OptionalAuth sets claims when a valid token is presented in the
// Authorization header or the TokenCookie, and lets every request through.
func OptionalAuth(ver Verifier, revoked Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			token, _ = c.Cookie(TokenCookie)
		}
		if token != "" {
			if claims, status, _ := authenticate(c.Request.Context(), ver, revoked, token); status == 0 {
				c.Set(ClaimsKey, claims)
				c.Set(TokenKey, token)
			}
		}
		c.Next()
	}
}

// Subject returns the authenticated subject or "".
func Subject(c *gin.Context) string {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return ""
	}
	cm, _ := v.(map[string]interface{})
	sub, _ := cm["sub"].(string)
	return sub
}

func bearer(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != "" && !strings.ContainsAny(token, " \t")
}

func authenticate(ctx context.Context, ver Verifier, revoked Revocations, token string) (map[string]interface{}, int, string) {
	if revoked != nil {
		gone, err := revoked.IsRevoked(ctx, token)
		if err != nil {
			return nil, http.StatusServiceUnavailable, "token check failed"
		}
		if gone {
			return nil, http.StatusUnauthorized, "token revoked"
		}
	}
	if ver == nil {
		return nil, http.StatusUnauthorized, "invalid token"
	}
	idToken, err := ver.Verify(ctx, token)
	if err != nil {
		return nil, http.StatusUnauthorized, "invalid token"
	}
	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, http.StatusUnauthorized, "failed to parse claims"
	}
	return claims, 0, ""
}
