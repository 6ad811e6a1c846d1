package contact

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"artline-cms/internal/api/apierr"
	"artline-cms/internal/domain/contact"
	"artline-cms/internal/infra/notify"
	"artline-cms/internal/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Notifier interface {
	Enqueue(msg notify.Message) bool
}

type Handler struct {
	db       *gorm.DB
	notifier Notifier
	notifyTo []string
}

func NewHandler(db *gorm.DB, notifier Notifier, notifyTo []string) *Handler {
	return &Handler{db: db, notifier: notifier, notifyTo: notifyTo}
}

type createRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Phone    string `json:"phone" binding:"required,max=50"`
	Email    string `json:"email" binding:"omitempty,email,max=200"`
	Company  string `json:"company" binding:"max=200"`
	Service  string `json:"service" binding:"max=200"`
	Message  string `json:"message" binding:"max=5000"`
	Language string `json:"language" binding:"omitempty,oneof=ru kz en"`
}

// Create stores a lead from the public form. The body has already been
// through the sanitize middleware.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BindError(c, err)
		return
	}

	sub := contact.Submission{
		Name:     strings.TrimSpace(req.Name),
		Phone:    strings.TrimSpace(req.Phone),
		Email:    strings.TrimSpace(req.Email),
		Company:  strings.TrimSpace(req.Company),
		Service:  strings.TrimSpace(req.Service),
		Message:  strings.TrimSpace(req.Message),
		Language: req.Language,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&sub).Error; err != nil {
		apierr.Respond(c, err)
		return
	}

	if h.notifier != nil {
		if !h.notifier.Enqueue(notification(sub, h.notifyTo)) {
			l := logger.FromContext(c.Request.Context())
			l.Warn().Uint("submission_id", sub.ID).Msg("contact notification not queued")
		}
	}

	c.JSON(http.StatusCreated, sub)
}

func notification(sub contact.Submission, to []string) notify.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", sub.Name)
	fmt.Fprintf(&b, "Phone: %s\n", sub.Phone)
	if sub.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", sub.Email)
	}
	if sub.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", sub.Company)
	}
	if sub.Service != "" {
		fmt.Fprintf(&b, "Service: %s\n", sub.Service)
	}
	if sub.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", sub.Message)
	}
	return notify.Message{
		To:      to,
		Subject: fmt.Sprintf("New contact request #%d from %s", sub.ID, sub.Name),
		Text:    b.String(),
	}
}

// List returns submissions newest first, optionally filtered by ?processed=.
func (h *Handler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Order("created_at DESC").Order("id DESC")
	if raw := c.Query("processed"); raw != "" {
		processed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "processed must be true or false"})
			return
		}
		q = q.Where("processed = ?", processed)
	}

	subs := []contact.Submission{}
	if err := q.Find(&subs).Error; err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

type updateRequest struct {
	Processed *bool `json:"processed" binding:"required"`
}

func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BindError(c, err)
		return
	}

	db := h.db.WithContext(c.Request.Context())
	var sub contact.Submission
	if err := db.First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Respond(c, apierr.ErrNotFound)
			return
		}
		apierr.Respond(c, err)
		return
	}

	if err := db.Model(&sub).Update("processed", *req.Processed).Error; err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}
