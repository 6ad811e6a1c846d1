package content

// Fields eligible for machine translation, per section type. Anything not
// listed (image URLs, links, ids, sort order) is copied untouched.
var translatableFields = map[string][]string{
	"hero":      {"title", "subtitle", "description", "buttonText"},
	"about":     {"title", "description", "content"},
	"services":  {"title", "description", "content", "items"},
	"portfolio": {"title", "description", "items"},
	"clients":   {"title", "description"},
	"contacts":  {"title", "address", "workingHours"},
	"seo":       {"title", "description", "keywords"},
	"footer":    {"content", "copyright"},
}

var defaultTranslatableFields = []string{"content"}

func TranslatableFields(sectionType string) []string {
	if fields, ok := translatableFields[sectionType]; ok {
		return fields
	}
	return defaultTranslatableFields
}
