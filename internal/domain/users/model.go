package users

import "time"

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// User is a CMS operator. There is no public sign-up: accounts are seeded
// or created by an admin.
type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Name         string  `json:"name"`
	Email        string  `gorm:"not null;uniqueIndex:idx_users_email" json:"email"`
	Password     *string `json:"-"`
	AuthProvider string  `gorm:"type:varchar(20);not null;default:'local'" json:"authProvider"`
	GoogleSub    *string `gorm:"uniqueIndex:idx_users_google_sub" json:"-"`
	Role         string  `gorm:"type:varchar(20);not null;default:'editor'" json:"role"`

	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) CanEdit() bool {
	return u.Role == RoleAdmin || u.Role == RoleEditor
}
