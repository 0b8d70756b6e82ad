package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"inkwell/internal/featureflags"
	"inkwell/internal/jobs"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/moderation"
	"inkwell/internal/repository"
)

// AutoReplyJob is the job name of a scheduled automatic reply.
const AutoReplyJob = "auto_reply_to_comment"

const (
	msgCommentNotFound = "Comment does not exist"
	msgPostMissing     = "Post does not exist"

	autoReplyTemplate = "Thank you for your comment on '%s'! We appreciate your input."
)

// AutoReplyArgs are the arguments of an AutoReplyJob.
type AutoReplyArgs struct {
	CommentID uint `json:"comment_id"`
}

// CommentService enforces comment rules and schedules automatic replies.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	filter      *moderation.Filter
	enqueuer    jobs.Enqueuer
	flags       *featureflags.Manager
}

// CreateCommentInput is the payload of a new top-level comment.
type CreateCommentInput struct {
	Text   string
	PostID *uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	filter *moderation.Filter,
	enqueuer jobs.Enqueuer,
	flags *featureflags.Manager,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		filter:      filter,
		enqueuer:    enqueuer,
		flags:       flags,
	}
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return models.NewValidationError("text is required")
	}
	return nil
}

// CreateComment attaches a comment to a non-blocked post and, when the post
// asks for it, schedules an automatic reply.
func (s *CommentService) CreateComment(ctx context.Context, author *models.User, in CreateCommentInput) (*models.Comment, error) {
	if in.PostID == nil || *in.PostID == 0 {
		return nil, models.NewValidationError("post_id is required when creating comment")
	}

	post, err := s.postRepo.GetByID(ctx, *in.PostID)
	if err != nil {
		return nil, notFoundAs(err, msgPostMissing)
	}
	if post.IsBlocked {
		return nil, models.NewNotFoundMessage(msgPostMissing)
	}
	if err := validateText(in.Text); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Text:     moderation.SanitizeRichText(in.Text),
		AuthorID: author.ID,
		PostID:   post.ID,
	}
	if err := s.create(ctx, comment); err != nil {
		return nil, err
	}

	s.scheduleAutoReply(ctx, post, comment)
	return comment, nil
}

// scheduleAutoReply enqueues the reply job. Failures are logged only; the
// comment has already been stored.
func (s *CommentService) scheduleAutoReply(ctx context.Context, post *models.Post, comment *models.Comment) {
	if !post.AutoReplyEnabled || post.AutoReplyDelay <= 0 || s.enqueuer == nil {
		return
	}
	if !s.flags.Enabled(featureflags.AutoReply, post.AuthorID) {
		return
	}

	delay := time.Duration(post.AutoReplyDelay) * time.Second
	jobID, err := s.enqueuer.Enqueue(ctx, AutoReplyJob, AutoReplyArgs{CommentID: comment.ID}, delay)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to schedule auto reply",
			slog.Uint64("comment_id", uint64(comment.ID)), slog.String("error", err.Error()))
		return
	}
	middleware.Logger.DebugContext(ctx, "auto reply scheduled",
		slog.String("job_id", jobID), slog.Uint64("comment_id", uint64(comment.ID)), slog.Duration("delay", delay))
}

// ReplyToComment creates a reply under a non-blocked comment. The reply
// always belongs to the parent's post.
func (s *CommentService) ReplyToComment(ctx context.Context, author *models.User, parentID uint, text string) (*models.Comment, error) {
	parent, err := s.visibleComment(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if err := validateText(text); err != nil {
		return nil, err
	}

	reply := &models.Comment{
		Text:     moderation.SanitizeRichText(text),
		AuthorID: author.ID,
		PostID:   parent.PostID,
		ParentID: &parent.ID,
	}
	if err := s.create(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// GetComment returns a non-blocked comment with its non-blocked replies.
func (s *CommentService) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetVisible(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, msgCommentNotFound)
	}
	return comment, nil
}

// UpdateComment replaces the text of a comment. The author or any staff
// member may do so.
func (s *CommentService) UpdateComment(ctx context.Context, user *models.User, id uint, text string) (*models.Comment, error) {
	comment, err := s.visibleComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canEditComment(user, comment) {
		return nil, models.NewForbiddenError("You do not have permission to edit this comment")
	}
	if err := validateText(text); err != nil {
		return nil, err
	}

	comment.Text = moderation.SanitizeRichText(text)
	s.filter.Apply(ctx, "comment", comment.AuthorID, &comment.IsBlocked, comment.Text)
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.withReplies(ctx, comment)
}

// DeleteComment soft-deletes a comment by blocking it.
func (s *CommentService) DeleteComment(ctx context.Context, user *models.User, id uint) error {
	comment, err := s.visibleComment(ctx, id)
	if err != nil {
		return err
	}
	if !canEditComment(user, comment) {
		return models.NewForbiddenError("You do not have permission to delete this comment")
	}
	comment.IsBlocked = true
	return s.commentRepo.Update(ctx, comment)
}

func canEditComment(user *models.User, comment *models.Comment) bool {
	return user.ID == comment.AuthorID || user.IsStaff
}

// AutoReply posts the post author's thank-you reply under a comment. It does
// nothing when the post has since turned auto-reply off.
func (s *CommentService) AutoReply(ctx context.Context, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	post, err := s.postRepo.GetByID(ctx, comment.PostID)
	if err != nil {
		return err
	}

	log := middleware.Logger.With(slog.Uint64("comment_id", uint64(commentID)), slog.Uint64("post_id", uint64(post.ID)))
	if !post.AutoReplyEnabled {
		log.InfoContext(ctx, "auto reply skipped: disabled on post")
		return nil
	}

	reply := &models.Comment{
		Text:     fmt.Sprintf(autoReplyTemplate, post.Title),
		AuthorID: post.AuthorID,
		PostID:   post.ID,
		ParentID: &comment.ID,
	}
	if err := s.create(ctx, reply); err != nil {
		return err
	}
	log.InfoContext(ctx, "auto reply created", slog.Uint64("reply_id", uint64(reply.ID)))
	return nil
}

// HandleAutoReplyJob adapts AutoReply to the job worker.
func (s *CommentService) HandleAutoReplyJob(ctx context.Context, job jobs.Job) error {
	var args AutoReplyArgs
	if err := job.Decode(&args); err != nil {
		return err
	}
	return s.AutoReply(ctx, args.CommentID)
}

// DailyBreakdown parses a YYYY-MM-DD range and returns per-day comment counts.
func (s *CommentService) DailyBreakdown(ctx context.Context, dateFrom, dateTo string) ([]models.DailyCommentStat, error) {
	from, err := parseDate("date_from", dateFrom)
	if err != nil {
		return nil, err
	}
	to, err := parseDate("date_to", dateTo)
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, models.NewValidationError("date_from must be earlier than date_to")
	}
	return s.commentRepo.DailyBreakdown(ctx, from, to)
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, models.NewValidationError(field + " is required")
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, models.NewValidationError(field + " must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

// create runs moderation on the comment text and persists it.
func (s *CommentService) create(ctx context.Context, comment *models.Comment) error {
	s.filter.Apply(ctx, "comment", comment.AuthorID, &comment.IsBlocked, comment.Text)
	return s.commentRepo.Create(ctx, comment)
}

func (s *CommentService) visibleComment(ctx context.Context, id uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, msgCommentNotFound)
	}
	if comment.IsBlocked {
		return nil, models.NewNotFoundMessage(msgCommentNotFound)
	}
	return comment, nil
}

func (s *CommentService) withReplies(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	if comment.IsBlocked {
		return comment, nil
	}
	full, err := s.commentRepo.GetVisible(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	return full, nil
}
