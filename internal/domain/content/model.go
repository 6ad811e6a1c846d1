package content

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type Language string

const (
	LangRU Language = "ru"
	LangKZ Language = "kz"
	LangEN Language = "en"
)

// Languages lists every language the site is published in.
var Languages = []Language{LangRU, LangKZ, LangEN}

func (l Language) Valid() bool {
	for _, known := range Languages {
		if l == known {
			return true
		}
	}
	return false
}

// ParseLanguage accepts only the supported site languages.
func ParseLanguage(s string) (Language, error) {
	l := Language(s)
	if !l.Valid() {
		return "", &ValidationError{
			Field:   "language",
			Message: fmt.Sprintf("unsupported language %q (expected ru, kz or en)", s),
			Err:     ErrInvalidLanguage,
		}
	}
	return l, nil
}

// Key is the natural key of a content item.
type Key struct {
	SectionType string
	SectionKey  string
	Language    Language
}

func (k Key) String() string {
	return k.SectionType + "/" + k.SectionKey + "/" + string(k.Language)
}

// ContentItem is one editable block of the site in one language.
// (section_type, section_key, language) is unique.
type ContentItem struct {
	ID uint `gorm:"primaryKey" json:"id"`

	SectionType string   `gorm:"type:varchar(64);not null;uniqueIndex:idx_content_items_key,priority:1;index" json:"sectionType"`
	SectionKey  string   `gorm:"type:varchar(128);not null;uniqueIndex:idx_content_items_key,priority:2" json:"sectionKey"`
	Language    Language `gorm:"type:varchar(8);not null;uniqueIndex:idx_content_items_key,priority:3" json:"language"`

	Content datatypes.JSON `gorm:"not null" json:"content"`

	CreatedBy *uint `json:"createdBy,omitempty"`
	UpdatedBy *uint `json:"updatedBy,omitempty"`

	Revisions []ContentRevision `gorm:"foreignKey:ContentID;constraint:OnDelete:CASCADE;" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *ContentItem) Key() Key {
	return Key{SectionType: c.SectionType, SectionKey: c.SectionKey, Language: c.Language}
}

// ContentRevision is an immutable snapshot of a ContentItem taken right
// before it was overwritten.
type ContentRevision struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ContentID uint           `gorm:"not null;index:idx_content_revisions_order,priority:1" json:"contentId"`
	Content   datatypes.JSON `gorm:"not null" json:"content"`
	CreatedBy *uint          `json:"createdBy,omitempty"`
	CreatedAt time.Time      `gorm:"index:idx_content_revisions_order,priority:2" json:"createdAt"`
}
