package routes

import (
	"net/http"

	adminapi "artline-cms/internal/api/admin"
	authapi "artline-cms/internal/api/auth"
	contactapi "artline-cms/internal/api/contact"
	contentapi "artline-cms/internal/api/content"
	mediaapi "artline-cms/internal/api/media"
	revisionsapi "artline-cms/internal/api/revisions"
	"artline-cms/internal/app/http/middleware"
	"artline-cms/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth      *authapi.Handler
	Content   *contentapi.Handler
	Revisions *revisionsapi.Handler
	Contact   *contactapi.Handler
	Media     *mediaapi.Handler
	Admin     *adminapi.Handler
}

type Deps struct {
	JWTSecret string
	Handlers  Handlers
	// UploadDir is served under UploadURL when media lives on local disk.
	UploadDir string
	UploadURL string
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	h := deps.Handlers

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.UploadDir != "" && deps.UploadURL != "" {
		r.Group("/", uploadHeaders()).Static(deps.UploadURL, deps.UploadDir)
	}

	api := r.Group("/api")

	// Public
	api.GET("/content", h.Content.Get)
	api.GET("/media", h.Media.List)
	api.POST("/contact", middleware.SanitizeAndCleanInputMiddleware(), h.Contact.Create)

	api.POST("/auth/login", h.Auth.Login)
	api.GET("/auth/google", h.Auth.GoogleStart)
	api.GET("/auth/google/callback", h.Auth.GoogleCallback)

	// Authenticated
	auth := api.Group("/")
	auth.Use(middleware.AuthMiddleware(deps.JWTSecret))
	auth.GET("/auth/me", h.Auth.Me)
	auth.POST("/auth/change-password", h.Auth.ChangePassword)

	// Editors
	editor := auth.Group("/")
	editor.Use(middleware.RequireRole(users.RoleAdmin, users.RoleEditor))
	editor.POST("/content", h.Content.Save)
	editor.GET("/revisions", h.Revisions.List)
	editor.POST("/revisions/restore/:revisionId", h.Revisions.Restore)
	editor.GET("/contact", h.Contact.List)
	editor.PATCH("/contact/:id", h.Contact.Update)
	editor.POST("/media", h.Media.Upload)
	editor.DELETE("/media/:id", h.Media.Delete)

	// Admin routes
	admin := auth.Group("/admin")
	admin.Use(middleware.RequireRole(users.RoleAdmin))
	admin.GET("/dashboard", h.Admin.Dashboard)
}

// uploadHeaders keeps user uploads inert when opened from the API origin.
func uploadHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Security-Policy", "default-src 'none'; img-src 'self'; style-src 'unsafe-inline'; sandbox")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}
