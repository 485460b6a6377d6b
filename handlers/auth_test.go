package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/folio-cms/folio/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestLoginRejectsWithOneAnswer(t *testing.T) {
	e := newEnv(t, nil, nil)
	cases := []struct {
		name string
		body interface{}
	}{
		{"wrong password", gin.H{"email": ownerEmail, "password": "nope"}},
		{"unknown email", gin.H{"email": "who@folio.dev", "password": ownerPassword}},
		{"missing password", gin.H{"email": ownerEmail}},
		{"empty body", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/auth/login", "", tc.body)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			require.JSONEq(t, `{"error":"invalid credentials"}`, w.Body.String())
			require.Empty(t, w.Result().Cookies())
		})
	}
}

func TestLoginAndMe(t *testing.T) {
	e := newEnv(t, nil, nil)

	w := e.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ME@folio.dev", "password": ownerPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    int    `json:"expiresIn"`
		User         struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, ownerEmail, body.User.Email)
	require.Equal(t, int(e.cfg.JWT.AccessTokenTTL.Seconds()), body.ExpiresIn)
	require.NotContains(t, w.Body.String(), "passwordHash")

	var cookie *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == middleware.TokenCookie {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	require.Equal(t, body.AccessToken, cookie.Value)
	require.True(t, cookie.HttpOnly)

	require.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/api/v1/me", "", nil).Code)
	w = e.do(http.MethodGet, "/api/v1/me", body.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), ownerEmail)
}

func TestRefreshRotates(t *testing.T) {
	e := newEnv(t, nil, nil)
	lr := e.login()

	w := e.do(http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": lr.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var next loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &next))
	require.NotEmpty(t, next.AccessToken)
	require.NotEqual(t, lr.RefreshToken, next.RefreshToken)

	// the old refresh token is spent
	w = e.do(http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": lr.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/auth/refresh", "", gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusOK, e.do(http.MethodGet, "/api/v1/me", next.AccessToken, nil).Code)
}

func TestLogoutRevokes(t *testing.T) {
	e := newEnv(t, nil, nil)
	lr := e.login()
	require.Equal(t, http.StatusOK, e.do(http.MethodGet, "/api/v1/me", lr.AccessToken, nil).Code)

	w := e.do(http.MethodPost, "/auth/logout", lr.AccessToken, gin.H{"refreshToken": lr.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/api/v1/me", lr.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "token revoked", decode(t, w)["error"])

	w = e.do(http.MethodPatch, "/api/content/hero", lr.AccessToken, gin.H{"field": "title", "value": "x"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": lr.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// twice is fine
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/auth/logout", "", nil).Code)
}

func TestLogoutWithCookie(t *testing.T) {
	e := newEnv(t, nil, nil)
	lr := e.login()

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: lr.AccessToken})
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	cleared := false
	for _, ck := range w.Result().Cookies() {
		if ck.Name == middleware.TokenCookie && ck.MaxAge < 0 {
			cleared = true
		}
	}
	require.True(t, cleared)
	require.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/api/v1/me", lr.AccessToken, nil).Code)
}
