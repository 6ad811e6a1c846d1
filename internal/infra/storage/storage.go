package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage holds uploaded media objects.
type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string, size int64) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// GenerateKey builds <category>/<yyyy>/<mm>/<uuid><ext>.
func GenerateKey(category, filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%04d/%02d/%s%s", category, now.Year(), int(now.Month()), uuid.NewString(), ext)
}

// ThumbnailKey places the thumbnail next to the original with a thumb_ prefix.
func ThumbnailKey(key string) string {
	dir, file := path.Split(key)
	return dir + "thumb_" + file
}
