package models

import "time"

type UserRole struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	AuditFields
}

// Role names the authorization middleware keys on.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	FirstName    string    `gorm:"size:100" json:"first_name"`
	LastName     string    `gorm:"size:100" json:"last_name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	RoleID       *uint     `gorm:"index" json:"role_id"`
	Role         *UserRole `json:"role,omitempty"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	IsStaff      bool      `gorm:"default:false" json:"is_staff"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// RoleName returns the role's name for authorization checks. Users without
// a role get staff-level access.
func (u *User) RoleName() string {
	if u.Role == nil {
		return RoleStaff
	}
	return u.Role.Name
}
