package repository

import (
	"context"
	"time"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	// GetByID returns the comment whether or not it is blocked, without replies.
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	// GetVisible returns a non-blocked comment with its non-blocked replies.
	GetVisible(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, int64, error)
	Update(ctx context.Context, comment *models.Comment) error
	DailyBreakdown(ctx context.Context, from, to time.Time) ([]models.DailyCommentStat, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository returns a new CommentRepository implementation.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	if comment.Replies == nil {
		comment.Replies = []models.Reply{}
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, lookupError(err, "Comment", id)
	}
	comment.Replies = []models.Reply{}
	return &comment, nil
}

func (r *commentRepository) GetVisible(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Scopes(notBlocked).First(&comment, id).Error; err != nil {
		return nil, lookupError(err, "Comment", id)
	}

	comments := []models.Comment{comment}
	if err := r.attachReplies(ctx, comments); err != nil {
		return nil, err
	}
	return &comments[0], nil
}

// ListByPost lists every non-blocked comment of the post, replies included,
// each carrying its own non-blocked replies.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, int64, error) {
	var (
		comments []models.Comment
		count    int64
	)
	if err := r.ofPost(ctx, postID).Count(&count).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	if err := r.ofPost(ctx, postID).Scopes(paginate(limit, offset)).Order("id ASC").Find(&comments).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	if err := r.attachReplies(ctx, comments); err != nil {
		return nil, 0, err
	}
	return comments, count, nil
}

func (r *commentRepository) ofPost(ctx context.Context, postID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Comment{}).Scopes(notBlocked).Where("post_id = ?", postID)
}

func (r *commentRepository) attachReplies(ctx context.Context, comments []models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	ids := make([]uint, len(comments))
	for i := range comments {
		ids[i] = comments[i].ID
		comments[i].Replies = []models.Reply{}
	}

	var replies []models.Comment
	if err := r.db.WithContext(ctx).Scopes(notBlocked).
		Where("parent_id IN ?", ids).
		Order("id ASC").
		Find(&replies).Error; err != nil {
		return models.NewInternalError(err)
	}

	byParent := make(map[uint][]models.Reply, len(comments))
	for i := range replies {
		byParent[*replies[i].ParentID] = append(byParent[*replies[i].ParentID], replies[i].ToReply())
	}
	for i := range comments {
		if rs, ok := byParent[comments[i].ID]; ok {
			comments[i].Replies = rs
		}
	}
	return nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Save(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// DailyBreakdown counts comments, blocked ones included, per UTC calendar day
// in [from, to]. Days without comments are absent from the result.
func (r *commentRepository) DailyBreakdown(ctx context.Context, from, to time.Time) ([]models.DailyCommentStat, error) {
	stats := []models.DailyCommentStat{}
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("CAST(DATE(created_at) AS TEXT) AS date, " +
			"COUNT(*) AS total_comments, " +
			"SUM(CASE WHEN is_blocked THEN 1 ELSE 0 END) AS blocked_comments").
		Where("created_at >= ? AND created_at < ?", startOfDay(from), startOfDay(to).AddDate(0, 0, 1)).
		Group("DATE(created_at)").
		Order("DATE(created_at) ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return stats, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
