package collector

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/spacesedan/vaxpulse/config"
	"github.com/spacesedan/vaxpulse/internal/clients"
	"github.com/spacesedan/vaxpulse/internal/models"
	"github.com/spacesedan/vaxpulse/internal/utils"
)

// RedditSource is the part of the Reddit API the collector needs.
type RedditSource interface {
	SearchSubreddit(ctx context.Context, subreddit, keyword, timeFilter string, limit int) ([]models.RedditPost, error)
	FetchComments(ctx context.Context, postID string, moreLimit int) ([]models.RedditComment, error)
}

type Collector struct {
	source   RedditSource
	study    config.Study
	interval time.Duration
}

// New returns a collector that pauses for interval after every keyword search.
func New(source RedditSource, study config.Study, interval time.Duration) *Collector {
	return &Collector{source: source, study: study, interval: interval}
}

// Collect runs every (category, subreddit, keyword) query in study order and
// returns the deduplicated items. A failed query is logged and skipped; only
// authentication failures and cancellation abort the run.
func (c *Collector) Collect(ctx context.Context) ([]models.CollectedItem, error) {
	start := time.Now()
	var all []models.CollectedItem

	for _, group := range c.study.Groups {
		for _, subreddit := range group.Subreddits {
			slog.Info("[Collector] Collecting from subreddit",
				slog.String("subreddit", subreddit),
				slog.String("category", group.Category))

			items, err := c.collectSubreddit(ctx, group.Category, subreddit)
			all = append(all, items...)
			if err != nil {
				return nil, err
			}

			slog.Info("[Collector] Subreddit done",
				slog.String("subreddit", subreddit),
				slog.Int("found", len(items)))
		}
	}

	unique := Dedupe(all)
	slog.Info("[Collector] Collection finished",
		slog.Int("collected", len(all)),
		slog.Int("unique", len(unique)),
		slog.Duration("elapsed", time.Since(start)))
	return unique, nil
}

func (c *Collector) collectSubreddit(ctx context.Context, category, subreddit string) ([]models.CollectedItem, error) {
	var results []models.CollectedItem

	for _, keyword := range c.study.Keywords {
		items, err := c.collectKeyword(ctx, category, subreddit, keyword)
		// whatever was gathered before a failure is kept
		results = append(results, items...)

		if err != nil {
			if clients.IsFatal(err) || ctx.Err() != nil {
				return results, err
			}
			slog.Warn("[Collector] Query failed, skipping",
				slog.String("subreddit", subreddit),
				slog.String("keyword", keyword),
				slog.String("kind", clients.KindOf(err)),
				slog.String("error", err.Error()))
			continue
		}

		if err := utils.Pause(ctx, c.interval); err != nil {
			return results, err
		}
	}
	return results, nil
}

func (c *Collector) collectKeyword(ctx context.Context, category, subreddit, keyword string) ([]models.CollectedItem, error) {
	search := c.study.Search
	posts, err := c.source.SearchSubreddit(ctx, subreddit, keyword, search.TimeFilter, search.ResultCap)
	if err != nil {
		return nil, err
	}

	var results []models.CollectedItem
	for _, post := range posts {
		if !c.study.Window.Contains(post.CreatedUTC) {
			continue
		}

		postText := post.Title + " " + post.Selftext
		if ContainsKeyword(postText, c.study.Keywords) {
			results = append(results, models.CollectedItem{
				Subreddit:  subreddit,
				Category:   category,
				Type:       models.ContentTypePost,
				Text:       postText,
				Score:      post.Score,
				CreatedUTC: post.CreatedUTC,
				ID:         models.RedditKindLink + "_" + post.ID,
				Keyword:    keyword,
			})
		}

		comments, err := c.source.FetchComments(ctx, post.ID, search.MoreCommentsLimit)
		if err != nil {
			return results, err
		}
		for _, comment := range comments {
			if !ContainsKeyword(comment.Body, c.study.Keywords) {
				continue
			}
			results = append(results, models.CollectedItem{
				Subreddit:  subreddit,
				Category:   category,
				Type:       models.ContentTypeComment,
				Text:       comment.Body,
				Score:      comment.Score,
				CreatedUTC: comment.CreatedUTC,
				ID:         models.RedditKindComment + "_" + comment.ID,
				Keyword:    keyword,
			})
		}
	}
	return results, nil
}

// ContainsKeyword is a case-insensitive substring match against any keyword.
func ContainsKeyword(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Dedupe drops items whose text was already seen, keeping the first.
func Dedupe(items []models.CollectedItem) []models.CollectedItem {
	seen := make(map[string]struct{}, len(items))
	unique := make([]models.CollectedItem, 0, len(items))
	for _, item := range items {
		if _, exists := seen[item.Text]; exists {
			continue
		}
		seen[item.Text] = struct{}{}
		unique = append(unique, item)
	}
	return unique
}
