package seed

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testOptions() Options {
	return Options{
		NumUsers:        4,
		NumStaff:        1,
		NumPosts:        5,
		CommentsPerPost: 3,
		ReplyPercent:    50,
		Factory:         FactoryOptions{SkipBcrypt: true, RandSeed: 42, MaxDays: 7},
	}
}

func TestSeed_CreatesRows(t *testing.T) {
	db := testutil.NewSQLiteDB(t)

	res, err := Seed(context.Background(), db, testOptions())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Users)
	assert.Equal(t, 5, res.Posts)
	assert.Equal(t, 15, res.Comments)

	var users, staff, posts, comments, replies int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.User{}).Where("is_staff = ?", true).Count(&staff).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	require.NoError(t, db.Model(&models.Comment{}).Where("parent_id IS NOT NULL").Count(&replies).Error)

	assert.EqualValues(t, 4, users)
	assert.EqualValues(t, 1, staff)
	assert.EqualValues(t, 5, posts)
	assert.EqualValues(t, res.Comments+res.Replies, comments)
	assert.EqualValues(t, res.Replies, replies)
}

func TestSeed_UsersCanLogIn(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	_, err := Seed(context.Background(), db, testOptions())
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.First(&user).Error)
	assert.True(t, user.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(DefaultPassword)))
}

func TestSeed_CommentsFollowTheirPost(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	_, err := Seed(context.Background(), db, testOptions())
	require.NoError(t, err)

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	created := make(map[uint]time.Time, len(posts))
	for _, p := range posts {
		created[p.ID] = p.CreatedAt
	}

	var comments []models.Comment
	require.NoError(t, db.Find(&comments).Error)
	now := time.Now().UTC().Add(time.Minute)
	for _, c := range comments {
		assert.False(t, c.CreatedAt.Before(created[c.PostID]), "comment %d predates its post", c.ID)
		assert.True(t, c.CreatedAt.Before(now), "comment %d is in the future", c.ID)
		assert.False(t, c.IsBlocked)
	}
}

func TestSeed_CleanReplacesData(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	opts := testOptions()

	_, err := Seed(context.Background(), db, opts)
	require.NoError(t, err)

	opts.ShouldClean = true
	opts.Factory.RandSeed = 7
	_, err = Seed(context.Background(), db, opts)
	require.NoError(t, err)

	var users, posts int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.EqualValues(t, opts.NumUsers, users)
	assert.EqualValues(t, opts.NumPosts, posts)
}

func TestSeed_PostsNeedUsers(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	_, err := Seed(context.Background(), db, Options{NumPosts: 1})
	require.Error(t, err)
}

func TestFactory_ReplyInheritsPost(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := NewFactory(db, FactoryOptions{SkipBcrypt: true, RandSeed: 1})

	author, err := f.CreateUser()
	require.NoError(t, err)
	other, err := f.CreateUser()
	require.NoError(t, err)
	assert.NotEqual(t, author.Username, other.Username)

	post, err := f.CreatePost(author, func(p *models.Post) {
		p.AutoReplyEnabled = false
		p.AutoReplyDelay = 0
	})
	require.NoError(t, err)
	comment, err := f.CreateComment(other, post)
	require.NoError(t, err)
	reply, err := f.CreateReply(author, comment)
	require.NoError(t, err)

	assert.Equal(t, post.ID, reply.PostID)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, comment.ID, *reply.ParentID)
	assert.False(t, reply.CreatedAt.Before(comment.CreatedAt))
}
