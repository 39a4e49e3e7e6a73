package domain

import "time"

// User is the identity record. PasswordHash is nil for accounts created
// through a federated provider; such accounts carry at least one provider id.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash *string    `gorm:"size:255" json:"-"`
	FirstName    string     `gorm:"size:100;not null" json:"first_name"`
	LastName     string     `gorm:"size:100;not null" json:"last_name"`
	Phone        *string    `gorm:"size:20" json:"phone,omitempty"`
	BirthDate    time.Time  `json:"birth_date"`
	RoleID       uint       `gorm:"not null" json:"role_id"`
	Role         Role       `json:"role"`
	GoogleID     *string    `gorm:"size:255;uniqueIndex" json:"-"`
	FacebookID   *string    `gorm:"size:255;uniqueIndex" json:"-"`
	TwitterID    *string    `gorm:"size:255;uniqueIndex" json:"-"`
	LinkedInID   *string    `gorm:"size:255;uniqueIndex" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// HasPassword reports whether the account can authenticate locally.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
