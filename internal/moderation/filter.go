package moderation

import (
	"context"
	"log/slog"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/featureflags"
	"inkwell/internal/middleware"
	"inkwell/internal/observability"

	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultThreshold is the score above which content is blocked.
const DefaultThreshold = 0.5

// Filter flags content whose text scores above a threshold.
type Filter struct {
	scorer    Scorer
	threshold float64
	flags     *featureflags.Manager
}

// NewFilter returns a Filter. flags may be nil.
func NewFilter(scorer Scorer, threshold float64, flags *featureflags.Manager) *Filter {
	return &Filter{scorer: scorer, threshold: threshold, flags: flags}
}

// Apply scores each text independently and sets *blocked when any of them
// exceeds the threshold. It never clears *blocked, so content that was
// blocked stays blocked however its revised text scores. It reports whether
// this call flipped the flag.
func (f *Filter) Apply(ctx context.Context, entity string, authorID uint, blocked *bool, texts ...string) bool {
	if f == nil || f.scorer == nil || *blocked {
		return false
	}
	if !f.flags.Enabled(featureflags.Moderation, authorID) {
		return false
	}

	_, span := observability.StartSpan(ctx, "moderation.apply", attribute.String("entity", entity))
	defer span.End()

	for _, text := range texts {
		start := time.Now()
		score := f.scorer.Score(text)
		observability.ObserveSince(observability.ModerationScoreLatency, start)

		if score > f.threshold {
			*blocked = true
			observability.ModerationBlocks.WithLabelValues(entity).Inc()
			span.SetAttributes(attribute.Bool("moderation.blocked", true))
			middleware.Logger.InfoContext(ctx, "content blocked by moderation",
				slog.String("entity", entity),
				slog.Uint64("author_id", uint64(authorID)),
				slog.Float64("score", score),
			)
			return true
		}
	}
	return false
}

var richText = bluemonday.UGCPolicy()

// SanitizeRichText removes scripts, event handlers and other unsafe markup
// from user-supplied HTML while keeping ordinary formatting.
func SanitizeRichText(s string) string {
	return richText.Sanitize(s)
}

// FilterFromConfig builds the profanity filter the API and worker share,
// loading MODERATION_WORDLIST when set. A zero threshold means the default.
func FilterFromConfig(cfg *config.Config, flags *featureflags.Manager) (*Filter, error) {
	var extra []string
	if cfg.ModerationWordList != "" {
		words, err := LoadWordList(cfg.ModerationWordList)
		if err != nil {
			return nil, err
		}
		extra = words
	}

	threshold := cfg.ModerationThreshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	return NewFilter(NewProfanityScorer(extra...), threshold, flags), nil
}
