// Package testutil provides shared fixtures for tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"inkwell/internal/database"
	"inkwell/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultPassword is the plaintext password of users made by CreateUser.
const DefaultPassword = "correct-horse-battery"

// NewSQLiteDB opens a private in-memory SQLite database with every model migrated.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// each connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts an active user whose password is DefaultPassword.
func CreateUser(t testing.TB, db *gorm.DB, username string, staff bool) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: string(hash),
		IsActive: true,
		IsStaff:  staff,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreatePost inserts a post by author after applying opts.
func CreatePost(t testing.TB, db *gorm.DB, author *models.User, opts ...func(*models.Post)) *models.Post {
	t.Helper()

	post := &models.Post{Title: "A post", Content: "<p>Some content</p>", AuthorID: author.ID}
	for _, opt := range opts {
		opt(post)
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

// CreateComment inserts a comment on post by author after applying opts.
func CreateComment(t testing.TB, db *gorm.DB, post *models.Post, author *models.User, opts ...func(*models.Comment)) *models.Comment {
	t.Helper()

	comment := &models.Comment{Text: "Nice post", PostID: post.ID, AuthorID: author.ID}
	for _, opt := range opts {
		opt(comment)
	}
	require.NoError(t, db.Create(comment).Error)
	return comment
}
