package repository

import (
	"context"
	"testing"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blocked(p *models.Post) { p.IsBlocked = true }

func TestPostRepository_ListSkipsBlocked(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db, nil)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "author", true)
	first := testutil.CreatePost(t, db, author)
	testutil.CreatePost(t, db, author, blocked)
	third := testutil.CreatePost(t, db, author)

	posts, count, err := repo.List(ctx, 100, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	require.Len(t, posts, 2)
	assert.Equal(t, first.ID, posts[0].ID)
	assert.Equal(t, third.ID, posts[1].ID)

	page, count, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	require.Len(t, page, 1)
	assert.Equal(t, third.ID, page[0].ID)
}

func TestPostRepository_GetVisible(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db, nil)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "author", true)
	visible := testutil.CreatePost(t, db, author)
	hidden := testutil.CreatePost(t, db, author, blocked)

	got, err := repo.GetVisible(ctx, visible.ID)
	require.NoError(t, err)
	assert.Equal(t, visible.Title, got.Title)

	_, err = repo.GetVisible(ctx, hidden.ID)
	assert.Equal(t, 404, models.StatusFor(err))

	_, err = repo.GetVisible(ctx, 999)
	assert.Equal(t, 404, models.StatusFor(err))

	got, err = repo.GetByID(ctx, hidden.ID)
	require.NoError(t, err)
	assert.True(t, got.IsBlocked)
}

func TestPostRepository_CacheInvalidatedOnUpdate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db, cache.New(rdb))
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "author", true)
	post := testutil.CreatePost(t, db, author)

	_, err := repo.GetVisible(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.PostKey(post.ID)))

	// a write that bypasses the repository is not seen until invalidation
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).Update("title", "Changed").Error)
	got, err := repo.GetVisible(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "A post", got.Title)

	got.IsBlocked = true
	require.NoError(t, repo.Update(ctx, got))
	assert.False(t, mr.Exists(cache.PostKey(post.ID)))

	_, err = repo.GetVisible(ctx, post.ID)
	assert.Equal(t, 404, models.StatusFor(err))
}
