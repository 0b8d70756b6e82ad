package bootstrap

import (
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/featureflags"
	"inkwell/internal/jobs"
	"inkwell/internal/moderation"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// NewAutoReplyWorker builds a job worker that runs automatic replies against
// db. It needs Redis; the caller decides when to Start it.
func NewAutoReplyWorker(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*jobs.Worker, error) {
	flags := featureflags.NewManager(cfg.FeatureFlags)
	filter, err := moderation.FilterFromConfig(cfg, flags)
	if err != nil {
		return nil, err
	}

	queue := jobs.NewQueue(rdb)
	comments := service.NewCommentService(
		repository.NewCommentRepository(db),
		repository.NewPostRepository(db, cache.New(rdb)),
		filter,
		queue,
		flags,
	)
	return AutoReplyWorker(queue, comments, cfg.AutoReplyPollInterval()), nil
}

// AutoReplyWorker registers the auto-reply handler of comments on a worker
// polling queue.
func AutoReplyWorker(queue *jobs.Queue, comments *service.CommentService, interval time.Duration) *jobs.Worker {
	w := jobs.NewWorker(queue, interval)
	w.Register(service.AutoReplyJob, comments.HandleAutoReplyJob)
	return w
}
