package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Translator turns text from one site language into another.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// translateDocument returns doc with every allowlisted field translated.
// Fields that could not be translated keep their source value and are
// reported in fallbacks.
func translateDocument(ctx context.Context, tr Translator, sectionType string, doc []byte, source, target Language) (json.RawMessage, []string, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(doc, &fields); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}

	var fallbacks []string
	for _, name := range TranslatableFields(sectionType) {
		value, ok := fields[name]
		if !ok {
			continue
		}
		translated, ok := translateValue(ctx, tr, value, source, target)
		if !ok {
			fallbacks = append(fallbacks, name)
			continue
		}
		fields[name] = translated
	}

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, nil, err
	}
	return out, fallbacks, nil
}

// translateValue reports false when the provider failed or returned
// something that does not parse back into the same JSON kind.
func translateValue(ctx context.Context, tr Translator, value json.RawMessage, source, target Language) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 {
		return value, true
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return value, false
		}
		if strings.TrimSpace(text) == "" {
			return value, true
		}
		out, err := tr.Translate(ctx, text, string(source), string(target))
		if err != nil {
			return value, false
		}
		encoded, err := json.Marshal(out)
		if err != nil {
			return value, false
		}
		return encoded, true

	case '{', '[':
		out, err := tr.Translate(ctx, string(trimmed), string(source), string(target))
		if err != nil {
			return value, false
		}
		parsed := bytes.TrimSpace([]byte(out))
		if len(parsed) == 0 || parsed[0] != trimmed[0] || !json.Valid(parsed) {
			return value, false
		}
		return json.RawMessage(parsed), true
	}

	// numbers, booleans and null
	return value, true
}
