package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"inkwell/internal/models"
	"inkwell/internal/moderation"
	"inkwell/internal/repository"
)

const (
	maxTitleLen = 255

	msgPostNotFound = "No Post matches the given query"
)

// PostService enforces post validation, moderation and ownership rules.
type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	filter      *moderation.Filter
}

// PostInput is the create/update payload. Nil auto-reply fields keep their
// current value on update and default to disabled on create.
type PostInput struct {
	Title            string
	Content          string
	AutoReplyEnabled *bool
	AutoReplyDelay   *int
}

func NewPostService(postRepo repository.PostRepository, commentRepo repository.CommentRepository, filter *moderation.Filter) *PostService {
	return &PostService{postRepo: postRepo, commentRepo: commentRepo, filter: filter}
}

func (in PostInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(in.Title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 255 characters)")
	}
	if strings.TrimSpace(in.Content) == "" {
		return models.NewValidationError("Content is required")
	}
	if in.AutoReplyDelay != nil && *in.AutoReplyDelay < 0 {
		return models.NewValidationError("auto_reply_delay must be greater than or equal to 0")
	}
	return nil
}

func (in PostInput) applyTo(post *models.Post) {
	post.Title = strings.TrimSpace(in.Title)
	post.Content = moderation.SanitizeRichText(in.Content)
	if in.AutoReplyEnabled != nil {
		post.AutoReplyEnabled = *in.AutoReplyEnabled
	}
	if in.AutoReplyDelay != nil {
		post.AutoReplyDelay = *in.AutoReplyDelay
	}
}

// CreatePost stores a new post by author. A post whose title or content is
// profane is stored blocked.
func (s *PostService) CreatePost(ctx context.Context, author *models.User, in PostInput) (*models.Post, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	post := &models.Post{AuthorID: author.ID}
	in.applyTo(post)
	s.filter.Apply(ctx, "post", author.ID, &post.IsBlocked, post.Title, post.Content)

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// ListPosts returns one page of non-blocked posts.
func (s *PostService) ListPosts(ctx context.Context, page Pagination) (*models.Page[models.Post], error) {
	posts, count, err := s.postRepo.List(ctx, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return &models.Page[models.Post]{Items: posts, Count: count}, nil
}

// GetPost returns a non-blocked post.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetVisible(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, msgPostNotFound)
	}
	return post, nil
}

// UpdatePost rewrites a post. Only a staff member who is also the post's
// author may do so.
func (s *PostService) UpdatePost(ctx context.Context, user *models.User, id uint, in PostInput) (*models.Post, error) {
	post, err := s.editablePost(ctx, user, id, "You do not have permission to update this post")
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	in.applyTo(post)
	s.filter.Apply(ctx, "post", post.AuthorID, &post.IsBlocked, post.Title, post.Content)

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost soft-deletes a post by blocking it, under the same rule as UpdatePost.
func (s *PostService) DeletePost(ctx context.Context, user *models.User, id uint) error {
	post, err := s.editablePost(ctx, user, id, "You do not have permission to delete this post")
	if err != nil {
		return err
	}
	post.IsBlocked = true
	return s.postRepo.Update(ctx, post)
}

func (s *PostService) editablePost(ctx context.Context, user *models.User, id uint, denied string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, msgPostNotFound)
	}
	if post.IsBlocked {
		return nil, models.NewNotFoundMessage(msgPostNotFound)
	}
	if !canEditPost(user, post) {
		return nil, models.NewForbiddenError(denied)
	}
	return post, nil
}

// canEditPost requires staff status and authorship together.
func canEditPost(user *models.User, post *models.Post) bool {
	return user.IsStaff && user.ID == post.AuthorID
}

// ListPostComments returns one page of the post's non-blocked comments. The
// post itself may be blocked; only a missing post is an error.
func (s *PostService) ListPostComments(ctx context.Context, postID uint, page Pagination) (*models.Page[models.Comment], error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, notFoundAs(err, msgPostNotFound)
	}

	comments, count, err := s.commentRepo.ListByPost(ctx, postID, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return &models.Page[models.Comment]{Items: comments, Count: count}, nil
}
