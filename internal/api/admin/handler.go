package admin

import (
	"net/http"

	"artline-cms/internal/api/apierr"
	"artline-cms/internal/domain/contact"
	"artline-cms/internal/domain/content"
	"artline-cms/internal/domain/media"
	"artline-cms/internal/domain/users"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Stats struct {
	ContentPerLanguage map[content.Language]int64 `json:"contentPerLanguage"`
	TotalContent       int64                      `json:"totalContent"`
	TotalRevisions     int64                      `json:"totalRevisions"`
	UnprocessedLeads   int64                      `json:"unprocessedLeads"`
	TotalLeads         int64                      `json:"totalLeads"`
	MediaFiles         int64                      `json:"mediaFiles"`
	Users              int64                      `json:"users"`
}

type Handler struct {
	db    *gorm.DB
	store *content.Store
}

func NewHandler(db *gorm.DB, store *content.Store) *Handler {
	return &Handler{db: db, store: store}
}

// GET /api/admin/dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	db := h.db.WithContext(ctx)

	counts, err := h.store.CountByLanguage(ctx)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	stats := Stats{ContentPerLanguage: map[content.Language]int64{}}
	for _, lang := range content.Languages {
		stats.ContentPerLanguage[lang] = 0
	}
	for _, row := range counts {
		stats.ContentPerLanguage[row.Language] = row.Count
		stats.TotalContent += row.Count
	}

	if stats.TotalRevisions, err = h.store.CountRevisions(ctx); err != nil {
		apierr.Respond(c, err)
		return
	}

	queries := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.UnprocessedLeads, db.Model(&contact.Submission{}).Where("processed = ?", false)},
		{&stats.TotalLeads, db.Model(&contact.Submission{})},
		{&stats.MediaFiles, db.Model(&media.File{})},
		{&stats.Users, db.Model(&users.User{})},
	}
	for _, q := range queries {
		if err := q.query.Count(q.dest).Error; err != nil {
			apierr.Respond(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, stats)
}
