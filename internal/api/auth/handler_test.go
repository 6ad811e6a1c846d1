package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"artline-cms/internal/app/http/middleware"
	"artline-cms/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const secret = "test-secret"

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&users.User{}))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email, password, role string) users.User {
	t.Helper()
	u := users.User{Name: "Test", Email: email, Role: role}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		require.NoError(t, err)
		h := string(hash)
		u.Password = &h
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func router(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/auth/login", h.Login)
	r.GET("/api/auth/google", h.GoogleStart)
	r.GET("/api/auth/google/callback", h.GoogleCallback)
	authed := r.Group("/api/auth", middleware.AuthMiddleware(secret))
	authed.GET("/me", h.Me)
	authed.POST("/change-password", h.ChangePassword)
	return r
}

func postJSON(r http.Handler, path, token string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r http.Handler, email, password string) string {
	t.Helper()
	w := postJSON(r, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestLoginAndMe(t *testing.T) {
	db := setupDB(t)
	createUser(t, db, "editor@artline.kz", "secret123", users.RoleEditor)
	r := router(NewHandler(db, secret, nil))

	token := login(t, r, "editor@artline.kz", "secret123")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var me users.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "editor@artline.kz", me.Email)
	assert.Equal(t, users.RoleEditor, me.Role)
	assert.NotContains(t, w.Body.String(), "password")

	var stored users.User
	require.NoError(t, db.First(&stored, me.ID).Error)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLoginFailures(t *testing.T) {
	db := setupDB(t)
	createUser(t, db, "editor@artline.kz", "secret123", users.RoleEditor)
	createUser(t, db, "google@artline.kz", "", users.RoleEditor)
	r := router(NewHandler(db, secret, nil))

	assert.Equal(t, http.StatusUnauthorized, postJSON(r, "/api/auth/login", "", gin.H{"email": "editor@artline.kz", "password": "wrong"}).Code)
	assert.Equal(t, http.StatusUnauthorized, postJSON(r, "/api/auth/login", "", gin.H{"email": "nobody@artline.kz", "password": "secret123"}).Code)

	w := postJSON(r, "/api/auth/login", "", gin.H{"email": "google@artline.kz", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Google")

	assert.Equal(t, http.StatusBadRequest, postJSON(r, "/api/auth/login", "", gin.H{"email": "not-an-email"}).Code)
}

func TestChangePassword(t *testing.T) {
	db := setupDB(t)
	createUser(t, db, "admin@artline.kz", "secret123", users.RoleAdmin)
	r := router(NewHandler(db, secret, nil))
	token := login(t, r, "admin@artline.kz", "secret123")

	w := postJSON(r, "/api/auth/change-password", token, gin.H{"old_password": "secret123", "new_password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/api/auth/change-password", token, gin.H{"old_password": "nope", "new_password": "newpass456"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(r, "/api/auth/change-password", token, gin.H{"old_password": "secret123", "new_password": "newpass456"})
	require.Equal(t, http.StatusOK, w.Code)

	login(t, r, "admin@artline.kz", "newpass456")
}

func TestLinkGoogleUser(t *testing.T) {
	db := setupDB(t)
	existing := createUser(t, db, "owner@artline.kz", "", users.RoleAdmin)

	_, err := linkGoogleUser(db, &googleIDClaims{Sub: "g-1", Email: "stranger@gmail.com", EmailVerified: true})
	assert.ErrorIs(t, err, errNoAccount)

	_, err = linkGoogleUser(db, &googleIDClaims{Sub: "g-2", Email: "owner@artline.kz", EmailVerified: false})
	assert.ErrorIs(t, err, errNoAccount)

	user, err := linkGoogleUser(db, &googleIDClaims{Sub: "g-3", Email: "Owner@artline.kz", EmailVerified: true})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)

	var stored users.User
	require.NoError(t, db.First(&stored, existing.ID).Error)
	require.NotNil(t, stored.GoogleSub)
	assert.Equal(t, "g-3", *stored.GoogleSub)

	// later sign-ins match by sub even if the Google email changed
	user, err = linkGoogleUser(db, &googleIDClaims{Sub: "g-3", Email: "renamed@gmail.com"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
}

type stubVerifier struct {
	claims *googleIDClaims
}

func (s stubVerifier) verify(context.Context, string) (*googleIDClaims, error) {
	return s.claims, nil
}

func TestGoogleStartAndCallbackGuards(t *testing.T) {
	db := setupDB(t)

	r := router(NewHandler(db, secret, nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/google", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	g := NewGoogle(GoogleConfig{ClientID: "cid", ClientSecret: "cs", RedirectURL: "http://localhost:8080/api/auth/google/callback"})
	r = router(NewHandler(db, secret, g))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/google", nil))
	require.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "https://accounts.google.com/"))
	assert.Contains(t, w.Header().Get("Set-Cookie"), "oauth_state=")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=x&state=y", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompleteGoogleLogin(t *testing.T) {
	db := setupDB(t)
	createUser(t, db, "owner@artline.kz", "", users.RoleAdmin)

	g := NewGoogle(GoogleConfig{FrontendRedirect: "http://localhost:5173/admin/callback"})
	g.verifier = stubVerifier{}
	h := NewHandler(db, secret, g)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/auth/google/callback", nil)
	h.completeGoogleLogin(c, &googleIDClaims{Sub: "g-1", Email: "owner@artline.kz", EmailVerified: true})
	require.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "http://localhost:5173/admin/callback?token="))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/auth/google/callback", nil)
	h.completeGoogleLogin(c, &googleIDClaims{Sub: "g-9", Email: "stranger@gmail.com", EmailVerified: true})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
