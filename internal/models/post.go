package models

import (
	"time"
)

// Post is a blog entry. Posts are never hard-deleted; IsBlocked hides them.
type Post struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Title            string    `gorm:"size:255;not null" json:"title"`
	Content          string    `gorm:"type:text;not null" json:"content"`
	AuthorID         uint      `gorm:"not null;index" json:"author_id"`
	Author           *User     `gorm:"foreignKey:AuthorID" json:"-"`
	IsBlocked        bool      `gorm:"not null;default:false;index" json:"is_blocked"`
	AutoReplyEnabled bool      `gorm:"not null;default:false" json:"auto_reply_enabled"`
	AutoReplyDelay   int       `gorm:"not null;default:0" json:"auto_reply_delay"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Page is a page-number paginated list response.
type Page[T any] struct {
	Items []T   `json:"items"`
	Count int64 `json:"count"`
}
