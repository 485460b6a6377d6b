package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// fakeToken implements Token
type fakeToken struct {
	data map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.data
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

// fakeVerifier implements Verifier
type fakeVerifier struct{}

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	if raw == "goodtoken" || raw == "black-token" {
		return &fakeToken{data: map[string]interface{}{"sub": "user1", "email": "test@example.com"}}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

type fakeRevocations struct {
	revoked map[string]bool
	err     error
}

func (f fakeRevocations) IsRevoked(ctx context.Context, token string) (bool, error) {
	return f.revoked[token], f.err
}

func serve(g *gin.Engine, header, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: cookie})
	}
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	return rw
}

func TestAuthMiddleware_NoHeader(t *testing.T) {
	g := gin.New()
	g.GET("/", AuthMiddleware(&fakeVerifier{}, nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	require.Equal(t, http.StatusUnauthorized, serve(g, "", "").Code)
}

func TestAuthMiddleware_InvalidHeader(t *testing.T) {
	g := gin.New()
	g.GET("/", AuthMiddleware(&fakeVerifier{}, nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	require.Equal(t, http.StatusUnauthorized, serve(g, "BadHeader", "").Code)
	require.Equal(t, http.StatusUnauthorized, serve(g, "Bearer ", "").Code)
	require.Equal(t, http.StatusUnauthorized, serve(g, "Bearer wrong", "").Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	g := gin.New()
	g.GET("/", AuthMiddleware(&fakeVerifier{}, nil), func(c *gin.Context) {
		require.Equal(t, "user1", Subject(c))
		require.Equal(t, "goodtoken", c.GetString(TokenKey))
		claims, _ := c.Get(ClaimsKey)
		c.JSON(http.StatusOK, gin.H{"claims": claims})
	})
	rw := serve(g, "Bearer goodtoken", "")

	require.Equal(t, http.StatusOK, rw.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Contains(t, got, "claims")
}

func TestAuthMiddleware_RejectsBlacklistedToken(t *testing.T) {
	revoked := fakeRevocations{revoked: map[string]bool{"black-token": true}}
	g := gin.New()
	g.GET("/", AuthMiddleware(&fakeVerifier{}, revoked), func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusUnauthorized, serve(g, "Bearer black-token", "").Code)
	require.Equal(t, http.StatusOK, serve(g, "Bearer goodtoken", "").Code)
}

func TestAuthMiddleware_RevocationCheckFails(t *testing.T) {
	g := gin.New()
	g.GET("/", AuthMiddleware(&fakeVerifier{}, fakeRevocations{err: errors.New("redis down")}), func(c *gin.Context) { c.Status(http.StatusOK) })
	require.Equal(t, http.StatusServiceUnavailable, serve(g, "Bearer goodtoken", "").Code)
}

func TestOptionalAuth(t *testing.T) {
	g := gin.New()
	g.GET("/", OptionalAuth(&fakeVerifier{}, fakeRevocations{revoked: map[string]bool{"black-token": true}}), func(c *gin.Context) {
		c.String(http.StatusOK, Subject(c))
	})

	cases := []struct {
		name, header, cookie, want string
	}{
		{"anonymous", "", "", ""},
		{"header", "Bearer goodtoken", "", "user1"},
		{"cookie", "", "goodtoken", "user1"},
		{"bad token", "Bearer nope", "", ""},
		{"revoked", "", "black-token", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rw := serve(g, tc.header, tc.cookie)
			require.Equal(t, http.StatusOK, rw.Code)
			require.Equal(t, tc.want, rw.Body.String())
		})
	}
}
