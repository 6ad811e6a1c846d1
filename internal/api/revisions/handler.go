package revisions

import (
	"net/http"
	"strconv"

	"artline-cms/internal/api/apierr"
	"artline-cms/internal/app/http/middleware"
	"artline-cms/internal/domain/content"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *content.Service
}

func NewHandler(svc *content.Service) *Handler {
	return &Handler{svc: svc}
}

type listQuery struct {
	SectionType string `form:"sectionType" binding:"required"`
	SectionKey  string `form:"sectionKey" binding:"required"`
	Language    string `form:"language" binding:"required,oneof=ru kz en"`
}

// List returns the revisions of one item, newest first.
func (h *Handler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		apierr.BindError(c, err)
		return
	}

	revs, err := h.svc.ListRevisions(c.Request.Context(), q.SectionType, q.SectionKey, content.Language(q.Language))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, revs)
}

func (h *Handler) Restore(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("revisionId"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid revision id"})
		return
	}

	item, err := h.svc.Restore(c.Request.Context(), uint(id), middleware.ActorID(c))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
