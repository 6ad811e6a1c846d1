package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"artline-cms/internal/domain/content"
	"artline-cms/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var ErrNotFound = errors.New("not found")

// BindError answers 400 for a failed ShouldBind*, listing field messages
// when the validator produced them.
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[jsonName(fe)] = fieldMessage(fe)
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": fields})
		return
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Malformed JSON"})
	case errors.As(err, &typeErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  "Validation failed",
			"fields": map[string]string{typeErr.Field: "has the wrong type"},
		})
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
	}
}

// Respond maps domain errors to HTTP statuses. Anything unrecognised is a
// 500 and gets logged with the request id.
func Respond(c *gin.Context, err error) {
	var verr *content.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  "Validation failed",
			"fields": map[string]string{verr.Field: verr.Message},
		})
	case errors.Is(err, content.ErrNotFound),
		errors.Is(err, content.ErrRevisionNotFound),
		errors.Is(err, ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": notFoundMessage(err)})
	default:
		l := logger.FromContext(c.Request.Context())
		l.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, content.ErrRevisionNotFound):
		return "Revision not found"
	case errors.Is(err, content.ErrNotFound):
		return "Content not found"
	default:
		return "Not found"
	}
}

func jsonName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return fe.StructField()
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	default:
		return "is invalid"
	}
}
