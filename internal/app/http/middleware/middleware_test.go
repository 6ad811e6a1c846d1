package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(roles ...string) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware(testSecret)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		id := ActorID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": *id, "role": c.GetString("role")})
	})
	r.GET("/protected", handlers...)
	return r
}

func doGet(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	valid, err := IssueToken(testSecret, 7, "editor@artline.kz", "editor")
	require.NoError(t, err)

	wrongKey, err := IssueToken("other-secret", 7, "editor@artline.kz", "editor")
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 7, "role": "editor", "exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	r := protectedRouter()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Token " + valid, http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(r, tt.header)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w := doGet(r, "Bearer "+valid)
	assert.JSONEq(t, `{"user_id":7,"role":"editor"}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	editor, _ := IssueToken(testSecret, 1, "e@artline.kz", "editor")
	admin, _ := IssueToken(testSecret, 2, "a@artline.kz", "admin")
	viewer, _ := IssueToken(testSecret, 3, "v@artline.kz", "viewer")

	editors := protectedRouter("admin", "editor")
	assert.Equal(t, http.StatusOK, doGet(editors, "Bearer "+editor).Code)
	assert.Equal(t, http.StatusOK, doGet(editors, "Bearer "+admin).Code)
	assert.Equal(t, http.StatusForbidden, doGet(editors, "Bearer "+viewer).Code)

	admins := protectedRouter("admin")
	assert.Equal(t, http.StatusForbidden, doGet(admins, "Bearer "+editor).Code)
	assert.Equal(t, http.StatusOK, doGet(admins, "Bearer "+admin).Code)
}

func TestSanitizeAndCleanInputMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(SanitizeAndCleanInputMiddleware())
	r.POST("/echo", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.Data(http.StatusOK, "application/json", body)
	})

	req := httptest.NewRequest(http.MethodPost, "/echo",
		strings.NewReader(`{"name":"<script>alert(1)</script>Aigerim","extra":{"note":"<b>hi</b>"},"tags":["<i>x</i>"],"n":3}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"Aigerim","extra":{"note":"hi"},"tags":["x"],"n":3}`, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{broken`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestLoggerAndRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(), Recovery())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Contains(t, w.Body.String(), "Internal server error")
}

func TestRequestLogger_ReplacesUntrustedRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, incoming := range []string{
		strings.Repeat("a", 65),
		"id with spaces",
		"evil\"}{\"level\":\"error",
		"<script>",
	} {
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set(RequestIDHeader, incoming)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		got := w.Header().Get(RequestIDHeader)
		assert.NotEqual(t, incoming, got)
		_, err := uuid.Parse(got)
		assert.NoError(t, err, incoming)
	}

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("b", 64))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, strings.Repeat("b", 64), w.Header().Get(RequestIDHeader))
}
