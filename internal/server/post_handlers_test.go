package server

import (
	"fmt"
	"net/http"
	"testing"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func intPtr(v int) *int { return &v }

func TestCreatePost(t *testing.T) {
	h := newHarness(t)
	author := testutil.CreateUser(t, h.db, "writer", false)
	token := h.tokenFor(t, author)

	status, _ := h.do(t, http.MethodPost, "/api/posts/", postRequest{Title: "T", Content: "C"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := h.do(t, http.MethodPost, "/api/posts/", postRequest{
		Title:            "Hello",
		Content:          `<p>World</p><script>alert(1)</script>`,
		AutoReplyEnabled: boolPtr(true),
		AutoReplyDelay:   intPtr(60),
	}, token)
	require.Equal(t, http.StatusCreated, status, string(body))
	post := decode[models.Post](t, body)
	assert.Equal(t, author.ID, post.AuthorID)
	assert.Equal(t, "<p>World</p>", post.Content)
	assert.True(t, post.AutoReplyEnabled)
	assert.Equal(t, 60, post.AutoReplyDelay)
	assert.False(t, post.IsBlocked)

	status, body = h.do(t, http.MethodPost, "/api/posts/", postRequest{Title: "", Content: "C"}, token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Title is required", errorMessage(t, body))

	status, _ = h.do(t, http.MethodPost, "/api/posts/", postRequest{Title: "T", Content: "C", AutoReplyDelay: intPtr(-1)}, token)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreatePost_ProfaneIsBlocked(t *testing.T) {
	h := newHarness(t)
	token := h.tokenFor(t, testutil.CreateUser(t, h.db, "writer", false))

	status, body := h.do(t, http.MethodPost, "/api/posts/", postRequest{Title: "Listen up", Content: "you are a fucking idiot"}, token)
	require.Equal(t, http.StatusCreated, status, string(body))
	post := decode[models.Post](t, body)
	assert.True(t, post.IsBlocked)

	status, body = h.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "No Post matches the given query", errorMessage(t, body))
}

func TestListPosts(t *testing.T) {
	h := newHarness(t)
	author := testutil.CreateUser(t, h.db, "writer", false)
	for i := 1; i <= 5; i++ {
		testutil.CreatePost(t, h.db, author, func(p *models.Post) {
			p.Title = fmt.Sprintf("Post %d", i)
			p.IsBlocked = i == 3
		})
	}

	status, body := h.do(t, http.MethodGet, "/api/posts/", nil, "")
	require.Equal(t, http.StatusOK, status)
	page := decode[models.Page[models.Post]](t, body)
	assert.EqualValues(t, 4, page.Count)
	require.Len(t, page.Items, 4)
	assert.Equal(t, "Post 1", page.Items[0].Title)

	status, body = h.do(t, http.MethodGet, "/api/posts/?page=2&page_size=3", nil, "")
	require.Equal(t, http.StatusOK, status)
	page = decode[models.Page[models.Post]](t, body)
	assert.EqualValues(t, 4, page.Count)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Post 5", page.Items[0].Title)
}

func TestUpdateAndDeletePost_Authorization(t *testing.T) {
	tests := []struct {
		name       string
		staff      bool
		isAuthor   bool
		wantStatus int
	}{
		{name: "staff author", staff: true, isAuthor: true, wantStatus: http.StatusOK},
		{name: "plain author", staff: false, isAuthor: true, wantStatus: http.StatusForbidden},
		{name: "staff non-author", staff: true, isAuthor: false, wantStatus: http.StatusForbidden},
		{name: "stranger", staff: false, isAuthor: false, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			caller := testutil.CreateUser(t, h.db, "caller", tt.staff)
			author := caller
			if !tt.isAuthor {
				author = testutil.CreateUser(t, h.db, "someone", false)
			}
			post := testutil.CreatePost(t, h.db, author)
			path := fmt.Sprintf("/api/posts/%d", post.ID)
			token := h.tokenFor(t, caller)

			status, body := h.do(t, http.MethodPut, path, postRequest{Title: "Edited", Content: "New body"}, token)
			require.Equal(t, tt.wantStatus, status, string(body))
			if status == http.StatusForbidden {
				assert.Equal(t, "You do not have permission to update this post", errorMessage(t, body))
			} else {
				assert.Equal(t, "Edited", decode[models.Post](t, body).Title)
			}

			wantDelete := http.StatusNoContent
			if tt.wantStatus == http.StatusForbidden {
				wantDelete = http.StatusForbidden
			}
			status, body = h.do(t, http.MethodDelete, path, nil, token)
			require.Equal(t, wantDelete, status, string(body))
			if status == http.StatusNoContent {
				assert.Empty(t, body)
			}
		})
	}
}

func TestDeletePost_HidesAndInvalidatesCache(t *testing.T) {
	h := newHarness(t)
	author := testutil.CreateUser(t, h.db, "editor", true)
	post := testutil.CreatePost(t, h.db, author)
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	status, _ := h.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, h.redis.Exists(cache.PostKey(post.ID)), "read should populate the cache")

	status, _ = h.do(t, http.MethodDelete, path, nil, h.tokenFor(t, author))
	require.Equal(t, http.StatusNoContent, status)

	status, _ = h.do(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	var stored models.Post
	require.NoError(t, h.db.First(&stored, post.ID).Error)
	assert.True(t, stored.IsBlocked, "row is kept and flagged")

	status, _ = h.do(t, http.MethodPut, path, postRequest{Title: "Back", Content: "again"}, h.tokenFor(t, author))
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListPostComments(t *testing.T) {
	h := newHarness(t)
	author := testutil.CreateUser(t, h.db, "writer", false)
	post := testutil.CreatePost(t, h.db, author)
	top := testutil.CreateComment(t, h.db, post, author)
	testutil.CreateComment(t, h.db, post, author, func(c *models.Comment) { c.ParentID = &top.ID; c.Text = "reply" })
	testutil.CreateComment(t, h.db, post, author, func(c *models.Comment) { c.ParentID = &top.ID; c.IsBlocked = true })

	status, body := h.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d/comments", post.ID), nil, "")
	require.Equal(t, http.StatusOK, status, string(body))
	page := decode[models.Page[models.Comment]](t, body)
	assert.EqualValues(t, 2, page.Count)
	require.Len(t, page.Items, 2)
	require.Len(t, page.Items[0].Replies, 1)
	assert.Equal(t, "reply", page.Items[0].Replies[0].Text)

	status, _ = h.do(t, http.MethodGet, "/api/posts/999/comments", nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = h.do(t, http.MethodGet, "/api/posts/abc/comments", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
}
