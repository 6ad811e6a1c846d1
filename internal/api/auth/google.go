package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"artline-cms/internal/domain/users"
	"artline-cms/internal/logger"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

var errNoAccount = errors.New("no CMS account for this Google email")

type GoogleConfig struct {
	ClientID         string
	ClientSecret     string
	RedirectURL      string
	FrontendRedirect string
	SecureCookie     bool
}

type googleIDClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

type idTokenVerifier interface {
	verify(ctx context.Context, rawIDToken string) (*googleIDClaims, error)
}

// oidcVerifier discovers Google's keys on first use.
type oidcVerifier struct {
	clientID string

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

func (v *oidcVerifier) verify(ctx context.Context, rawIDToken string) (*googleIDClaims, error) {
	v.mu.Lock()
	if v.verifier == nil {
		provider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
		if err != nil {
			v.mu.Unlock()
			return nil, errors.New("failed to init google oidc provider")
		}
		v.verifier = provider.Verifier(&oidc.Config{ClientID: v.clientID})
	}
	verifier := v.verifier
	v.mu.Unlock()

	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.New("invalid id_token")
	}

	var claims googleIDClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.New("failed to decode token claims")
	}
	if claims.Email == "" || claims.Sub == "" {
		return nil, errors.New("token missing required claims")
	}
	return &claims, nil
}

// Google signs existing CMS users in with their Google account.
type Google struct {
	oauth    *oauth2.Config
	verifier idTokenVerifier
	cfg      GoogleConfig
}

func NewGoogle(cfg GoogleConfig) *Google {
	return &Google{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		verifier: &oidcVerifier{clientID: cfg.ClientID},
		cfg:      cfg,
	}
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GET /api/auth/google
func (h *Handler) GoogleStart(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign-in is not configured"})
		return
	}
	state, err := randomState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate state"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("oauth_state", state, 300, "/", "", h.google.cfg.SecureCookie, true)
	c.Redirect(http.StatusFound, h.google.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GET /api/auth/google/callback
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign-in is not configured"})
		return
	}
	state := c.Query("state")
	code := c.Query("code")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code/state"})
		return
	}

	cookieState, err := c.Cookie("oauth_state")
	if err != nil || cookieState != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}

	ctx := c.Request.Context()
	tok, err := h.google.oauth.Exchange(ctx, code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "failed to exchange code"})
		return
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing id_token"})
		return
	}

	claims, err := h.google.verifier.verify(ctx, rawIDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	h.completeGoogleLogin(c, claims)
}

func (h *Handler) completeGoogleLogin(c *gin.Context, claims *googleIDClaims) {
	user, err := linkGoogleUser(h.db.WithContext(c.Request.Context()), claims)
	if errors.Is(err, errNoAccount) {
		l := logger.FromContext(c.Request.Context())
		l.Warn().Str("email", claims.Email).Msg("google sign-in rejected: unknown email")
		c.JSON(http.StatusForbidden, gin.H{"error": "No CMS account is registered for this Google email"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign in"})
		return
	}

	tokenString, err := h.issueToken(c, user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create token"})
		return
	}

	redirect := h.google.cfg.FrontendRedirect
	if redirect == "" {
		c.JSON(http.StatusOK, gin.H{"token": tokenString})
		return
	}
	c.Redirect(http.StatusFound, redirect+"?token="+url.QueryEscape(tokenString))
}

// linkGoogleUser finds the CMS user for a verified Google identity. Accounts
// are matched by google_sub, then by email; there is no self-registration.
func linkGoogleUser(db *gorm.DB, gc *googleIDClaims) (*users.User, error) {
	var user users.User
	if err := db.Where("google_sub = ?", gc.Sub).First(&user).Error; err == nil {
		return &user, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if !gc.EmailVerified {
		return nil, errNoAccount
	}
	err := db.Where("email = ?", strings.ToLower(gc.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errNoAccount
	}
	if err != nil {
		return nil, err
	}

	if user.GoogleSub == nil {
		sub := gc.Sub
		user.GoogleSub = &sub
		if err := db.Model(&user).Update("google_sub", sub).Error; err != nil {
			return nil, err
		}
	}
	return &user, nil
}
