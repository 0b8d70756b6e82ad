package models

import (
	"time"
)

// Comment belongs to a post and optionally replies to another comment.
// ParentID is a plain back-reference; replies are looked up, never owned.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	ParentID  *uint     `gorm:"index" json:"parent_id"`
	IsBlocked bool      `gorm:"not null;default:false;index" json:"is_blocked"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Replies is populated by the repository with non-blocked direct replies.
	Replies []Reply `gorm:"-" json:"replies"`
}

// Reply is the compact representation of a child comment.
type Reply struct {
	ID        uint      `json:"id"`
	Text      string    `json:"text"`
	AuthorID  uint      `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ToReply converts a comment into its reply representation.
func (c *Comment) ToReply() Reply {
	return Reply{ID: c.ID, Text: c.Text, AuthorID: c.AuthorID, CreatedAt: c.CreatedAt}
}

// DailyCommentStat is one row of the comments daily breakdown.
type DailyCommentStat struct {
	Date            string `json:"date"`
	TotalComments   int64  `json:"total_comments"`
	BlockedComments int64  `json:"blocked_comments"`
}
