package media

import "time"

const DefaultCategory = "general"

// File is an uploaded asset. Keys are storage keys, URLs are what the site
// renders.
type File struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Category     string  `gorm:"type:varchar(64);not null;index" json:"category"`
	OriginalName string  `gorm:"not null" json:"originalName"`
	MimeType     string  `gorm:"type:varchar(100);not null" json:"mimeType"`
	Size         int64   `gorm:"not null" json:"size"`
	Key          string  `gorm:"not null;uniqueIndex" json:"key"`
	URL          string  `gorm:"not null" json:"url"`
	ThumbKey     *string `json:"thumbKey,omitempty"`
	ThumbURL     *string `json:"thumbUrl,omitempty"`
	Width        *int    `json:"width,omitempty"`
	Height       *int    `json:"height,omitempty"`
	UploadedBy   *uint   `json:"uploadedBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// TableName keeps the table name independent of the Go type.
func (File) TableName() string { return "media" }
