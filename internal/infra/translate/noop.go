package translate

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("translate: no provider configured")

// Noop is used when TRANSLATE_API_KEY is empty. Every call fails, so
// auto-translated copies keep the source text and report fallback fields.
type Noop struct{}

func (Noop) Translate(context.Context, string, string, string) (string, error) {
	return "", ErrNotConfigured
}
