package contact

import "time"

// Submission is a lead left through the public contact form.
type Submission struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Phone     string    `gorm:"not null" json:"phone"`
	Email     string    `json:"email,omitempty"`
	Company   string    `json:"company,omitempty"`
	Service   string    `json:"service,omitempty"`
	Message   string    `gorm:"type:text" json:"message,omitempty"`
	Language  string    `gorm:"type:varchar(8)" json:"language,omitempty"`
	Processed bool      `gorm:"not null;default:false;index" json:"processed"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Submission) TableName() string { return "contact_submissions" }
