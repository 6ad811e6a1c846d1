package content

import (
	"encoding/json"
	"net/http"

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

type saveRequest struct {
	SectionType   string          `json:"sectionType" binding:"required,max=64"`
	SectionKey    string          `json:"sectionKey" binding:"required,max=128"`
	Language      string          `json:"language" binding:"required,oneof=ru kz en"`
	Content       json.RawMessage `json:"content" binding:"required"`
	AutoTranslate bool            `json:"autoTranslate"`
}

type translatedResponse struct {
	Original            *content.ContentItem         `json:"original"`
	TranslationsCreated int                          `json:"translationsCreated"`
	Languages           []content.TranslationOutcome `json:"languages"`
}

// Get serves three shapes depending on the query:
// type+key+language returns one item, type+key returns content per
// language, type alone returns every item of that type.
func (h *Handler) Get(c *gin.Context) {
	sectionType := c.Query("sectionType")
	sectionKey := c.Query("sectionKey")
	language := c.Query("language")

	if sectionType == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Validation failed",
			"fields": map[string]string{"sectionType": "is required"},
		})
		return
	}

	ctx := c.Request.Context()
	switch {
	case sectionKey != "" && language != "":
		item, err := h.svc.Get(ctx, sectionType, sectionKey, content.Language(language))
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, item)

	case sectionKey != "":
		section, err := h.svc.GetSection(ctx, sectionType, sectionKey)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, section)

	default:
		var lang content.Language
		if language != "" {
			var err error
			if lang, err = content.ParseLanguage(language); err != nil {
				apierr.Respond(c, err)
				return
			}
		}
		items, err := h.svc.ListByType(ctx, sectionType)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		if lang != "" {
			filtered := make([]content.ContentItem, 0, len(items))
			for _, it := range items {
				if it.Language == lang {
					filtered = append(filtered, it)
				}
			}
			items = filtered
		}
		c.JSON(http.StatusOK, items)
	}
}

func (h *Handler) Save(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BindError(c, err)
		return
	}

	res, err := h.svc.SaveWithTranslation(c.Request.Context(), content.SaveInput{
		SectionType: req.SectionType,
		SectionKey:  req.SectionKey,
		Language:    content.Language(req.Language),
		Content:     req.Content,
		ActorID:     middleware.ActorID(c),
	}, req.AutoTranslate)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	if !res.FanOut {
		c.JSON(http.StatusOK, res.Item)
		return
	}
	c.JSON(http.StatusOK, translatedResponse{
		Original:            res.Item,
		TranslationsCreated: res.TranslationsCreated(),
		Languages:           res.Outcomes,
	})
}
