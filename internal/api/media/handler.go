package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"artline-cms/internal/api/apierr"
	"artline-cms/internal/app/http/middleware"
	"artline-cms/internal/domain/media"
	"artline-cms/internal/infra/storage"
	"artline-cms/internal/logger"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// allowed upload types and the extension each one is stored under.
// Nothing that can carry script (svg, html) is accepted.
var allowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

var categoryPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

type Handler struct {
	db       *gorm.DB
	store    storage.Storage
	maxBytes int64
	now      func() time.Time
}

func NewHandler(db *gorm.DB, store storage.Storage, maxBytes int64) *Handler {
	return &Handler{db: db, store: store, maxBytes: maxBytes, now: time.Now}
}

func (h *Handler) Upload(c *gin.Context) {
	// leave room for the multipart envelope
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("File too large (max %d bytes)", h.maxBytes)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}
	if fh.Size > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("File too large (max %d bytes)", h.maxBytes)})
		return
	}

	category := strings.ToLower(strings.TrimSpace(c.DefaultPostForm("category", media.DefaultCategory)))
	if category == "" {
		category = media.DefaultCategory
	}
	if !categoryPattern.MatchString(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": map[string]string{"category": "is invalid"}})
		return
	}

	src, err := fh.Open()
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	mtype := mimetype.Detect(data)
	mime := baseMime(mtype.String())
	ext, ok := allowedTypes[mime]
	if !ok {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Unsupported file type: " + mime})
		return
	}

	ctx := c.Request.Context()
	l := logger.FromContext(ctx)

	key := storage.GenerateKey(category, "upload"+ext, h.now())
	if err := h.store.Put(ctx, key, bytes.NewReader(data), mime, int64(len(data))); err != nil {
		apierr.Respond(c, err)
		return
	}

	file := media.File{
		Category:     category,
		OriginalName: path.Base(fh.Filename),
		MimeType:     mime,
		Size:         int64(len(data)),
		Key:          key,
		URL:          h.store.URL(key),
		UploadedBy:   middleware.ActorID(c),
	}

	if thumb, err := makeThumbnail(data, mime); err != nil {
		l.Warn().Err(err).Str("key", key).Msg("thumbnail generation failed")
	} else if thumb != nil {
		file.Width, file.Height = &thumb.width, &thumb.height
		thumbKey := storage.ThumbnailKey(key)
		if err := h.store.Put(ctx, thumbKey, bytes.NewReader(thumb.data), mime, int64(len(thumb.data))); err != nil {
			l.Warn().Err(err).Str("key", thumbKey).Msg("thumbnail upload failed")
		} else {
			thumbURL := h.store.URL(thumbKey)
			file.ThumbKey, file.ThumbURL = &thumbKey, &thumbURL
		}
	}

	if err := h.db.WithContext(ctx).Create(&file).Error; err != nil {
		h.removeObjects(c, file)
		apierr.Respond(c, err)
		return
	}

	l.Info().Str("key", key).Int64("size", file.Size).Str("mime", mime).Msg("media uploaded")
	c.JSON(http.StatusCreated, file)
}

func (h *Handler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Order("created_at DESC").Order("id DESC")
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}

	files := []media.File{}
	if err := q.Find(&files).Error; err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

// Delete removes the stored objects first, then the row.
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	db := h.db.WithContext(c.Request.Context())
	var file media.File
	if err := db.First(&file, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Respond(c, apierr.ErrNotFound)
			return
		}
		apierr.Respond(c, err)
		return
	}

	if err := h.store.Delete(c.Request.Context(), file.Key); err != nil {
		apierr.Respond(c, err)
		return
	}
	h.removeObjects(c, media.File{ThumbKey: file.ThumbKey})

	if err := db.Delete(&file).Error; err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) removeObjects(c *gin.Context, file media.File) {
	l := logger.FromContext(c.Request.Context())
	for _, key := range []string{file.Key, deref(file.ThumbKey)} {
		if key == "" {
			continue
		}
		if err := h.store.Delete(c.Request.Context(), key); err != nil {
			l.Warn().Err(err).Str("key", key).Msg("failed to remove stored object")
		}
	}
}

func baseMime(m string) string {
	if i := strings.Index(m, ";"); i >= 0 {
		return strings.TrimSpace(m[:i])
	}
	return m
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
