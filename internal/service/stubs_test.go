package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/moderation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
	listStaffFn     func(context.Context) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) ListStaff(ctx context.Context) ([]models.User, error) {
	return s.listStaffFn(ctx)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return nil, models.NewNotFoundError("User", id) },
		getByEmailFn:    func(context.Context, string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:        func(_ context.Context, u *models.User) error { u.ID = 1; return nil },
		updateFn:        func(context.Context, *models.User) error { return nil },
		listStaffFn:     func(context.Context) ([]models.User, error) { return nil, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn     func(context.Context, *models.Post) error
	getByIDFn    func(context.Context, uint) (*models.Post, error)
	getVisibleFn func(context.Context, uint) (*models.Post, error)
	listFn       func(context.Context, int, int) ([]models.Post, int64, error)
	updateFn     func(context.Context, *models.Post) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetVisible(ctx context.Context, id uint) (*models.Post, error) {
	return s.getVisibleFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int) ([]models.Post, int64, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}

func noopPostRepo() *postRepoStub {
	missing := func(_ context.Context, id uint) (*models.Post, error) { return nil, models.NewNotFoundError("Post", id) }
	return &postRepoStub{
		createFn:     func(_ context.Context, p *models.Post) error { p.ID = 1; return nil },
		getByIDFn:    missing,
		getVisibleFn: missing,
		listFn:       func(context.Context, int, int) ([]models.Post, int64, error) { return nil, 0, nil },
		updateFn:     func(context.Context, *models.Post) error { return nil },
	}
}

// postRepoWith returns a stub serving post for its own id.
func postRepoWith(post *models.Post) *postRepoStub {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		if id != post.ID {
			return nil, models.NewNotFoundError("Post", id)
		}
		cp := *post
		return &cp, nil
	}
	return repo
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn         func(context.Context, *models.Comment) error
	getByIDFn        func(context.Context, uint) (*models.Comment, error)
	getVisibleFn     func(context.Context, uint) (*models.Comment, error)
	listByPostFn     func(context.Context, uint, int, int) ([]models.Comment, int64, error)
	updateFn         func(context.Context, *models.Comment) error
	dailyBreakdownFn func(context.Context, time.Time, time.Time) ([]models.DailyCommentStat, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) GetVisible(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getVisibleFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, int64, error) {
	return s.listByPostFn(ctx, postID, limit, offset)
}
func (s *commentRepoStub) Update(ctx context.Context, c *models.Comment) error {
	return s.updateFn(ctx, c)
}
func (s *commentRepoStub) DailyBreakdown(ctx context.Context, from, to time.Time) ([]models.DailyCommentStat, error) {
	return s.dailyBreakdownFn(ctx, from, to)
}

func noopCommentRepo() *commentRepoStub {
	missing := func(_ context.Context, id uint) (*models.Comment, error) { return nil, models.NewNotFoundError("Comment", id) }
	return &commentRepoStub{
		createFn:     func(_ context.Context, c *models.Comment) error { c.ID = 100; c.Replies = []models.Reply{}; return nil },
		getByIDFn:    missing,
		getVisibleFn: missing,
		listByPostFn: func(context.Context, uint, int, int) ([]models.Comment, int64, error) { return nil, 0, nil },
		updateFn:     func(context.Context, *models.Comment) error { return nil },
		dailyBreakdownFn: func(context.Context, time.Time, time.Time) ([]models.DailyCommentStat, error) {
			return []models.DailyCommentStat{}, nil
		},
	}
}

// enqueuerStub records Enqueue calls.
type enqueuerStub struct {
	calls []enqueueCall
	err   error
}

type enqueueCall struct {
	name  string
	args  any
	delay time.Duration
}

func (s *enqueuerStub) Enqueue(_ context.Context, name string, args any, delay time.Duration) (string, error) {
	s.calls = append(s.calls, enqueueCall{name: name, args: args, delay: delay})
	if s.err != nil {
		return "", s.err
	}
	return "job-1", nil
}

// profaneFilter blocks any text containing "badword".
func profaneFilter() *moderation.Filter {
	return moderation.NewFilter(moderation.ScorerFunc(func(text string) float64 {
		if strings.Contains(strings.ToLower(text), "badword") {
			return 0.99
		}
		return 0.01
	}), moderation.DefaultThreshold, nil)
}

func assertAppError(t *testing.T, err error, code, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation, "")
}
