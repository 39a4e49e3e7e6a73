package domain

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
	RoleEmployer = "employer"
)

// Role is a small fixed enumeration seeded at store initialization.
type Role struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:50;not null" json:"name"`
}
