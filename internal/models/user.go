// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User is an account that can author posts and comments.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"size:255;uniqueIndex;not null" json:"username"`
	Email       string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"not null" json:"-"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	IsStaff     bool      `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser bool      `gorm:"not null;default:false" json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserOut is the public registration payload.
type UserOut struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ToOut converts a user into its public representation.
func (u *User) ToOut() UserOut {
	return UserOut{ID: u.ID, Username: u.Username, Email: u.Email}
}

// Profile is what an authenticated user sees about themselves.
type Profile struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToProfile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Email: u.Email, IsStaff: u.IsStaff, CreatedAt: u.CreatedAt}
}
