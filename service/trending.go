package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/dapphub-labs/dapphub/cache"
	"github.com/dapphub-labs/dapphub/config"
	"github.com/dapphub-labs/dapphub/ledger"
	"github.com/dapphub-labs/dapphub/models"
	"github.com/dapphub-labs/dapphub/util"
)

const (
	// trendingWindow bounds each event stream feeding the feed.
	trendingWindow = 20
	// MaxTrendingItems caps the ranked feed.
	MaxTrendingItems = 10

	cacheKeyTrending = "trending"
)

// Trending merges recent review and comment activity into one ranked feed.
type Trending interface {
	ListTrending(ctx context.Context) ([]*models.TrendingItem, error)
}

type TrendingService struct {
	reader       ledger.Reader
	cacheService cache.Cache
	config       *config.Config
	now          func() time.Time
}

func NewTrendingService(reader ledger.Reader, cacheService cache.Cache, cfg *config.Config) Trending {
	return &TrendingService{
		reader:       reader,
		cacheService: cacheService,
		config:       cfg,
		now:          time.Now,
	}
}

func (s *TrendingService) ListTrending(ctx context.Context) ([]*models.TrendingItem, error) {
	if cached, found := s.cacheService.Get(cacheKeyTrending); found {
		items := make([]*models.TrendingItem, 0)
		if err := json.Unmarshal(cached, &items); err == nil {
			return items, nil
		}
	}

	packageID := s.config.LedgerConfig.PackageID
	reviewEvents, err := s.reader.QueryEvents(ctx, reviewEventType(packageID), trendingWindow, true)
	if err != nil {
		return nil, err
	}
	commentEvents, err := s.reader.QueryEvents(ctx, commentEventType(packageID), trendingWindow, true)
	if err != nil {
		return nil, err
	}

	comments := make([]models.Comment, 0, len(commentEvents))
	for _, ev := range commentEvents {
		if comment, ok := commentFromEvent(ev); ok {
			comments = append(comments, comment)
		}
	}
	// one pass over the comment set: replies per referenced id
	replyCounts := make(map[string]int64, len(comments))
	for _, comment := range comments {
		if comment.ParentID != "" {
			replyCounts[comment.ParentID]++
		}
	}

	items := make([]*models.TrendingItem, 0, len(reviewEvents)+len(comments))
	for _, ev := range reviewEvents {
		var payload reviewEventPayload
		if err := ledger.ParseEventPayload(ev, &payload); err != nil || payload.ReviewID == "" {
			continue
		}
		items = append(items, &models.TrendingItem{
			Kind:         models.TrendingKindReview,
			ID:           payload.ReviewID,
			DappID:       payload.DappID,
			Author:       util.NormalizeAddress(payload.Author),
			Snippet:      payload.Title,
			Upvotes:      parseInt64(payload.Upvotes),
			CommentCount: replyCounts[payload.ReviewID],
			CreatedAtMs:  parseInt64(ev.TimestampMs),
		})
	}
	for _, comment := range comments {
		items = append(items, &models.TrendingItem{
			Kind:         models.TrendingKindComment,
			ID:           comment.ID,
			DappID:       comment.DappID,
			Author:       comment.Author,
			Upvotes:      comment.Upvotes,
			CommentCount: replyCounts[comment.ID],
			CreatedAtMs:  comment.CreatedAtMs,
		})
	}

	ranked := Rank(items, s.now())
	if bz, err := json.Marshal(ranked); err == nil {
		s.cacheService.Set(cacheKeyTrending, bz)
	}
	return ranked, nil
}

// Score combines raw engagement with a recency bonus that decays
// continuously and never reaches zero.
func Score(upvotes, commentCount int64, ageHours float64) float64 {
	if ageHours < 0 {
		ageHours = 0
	}
	return float64(upvotes) + 2*float64(commentCount) + 1/(ageHours+1)
}

// Rank scores the items at the given instant and returns at most
// MaxTrendingItems of them, highest score first. The sort is stable: ties
// keep their input order.
func Rank(items []*models.TrendingItem, now time.Time) []*models.TrendingItem {
	for _, item := range items {
		age := now.Sub(time.UnixMilli(item.CreatedAtMs)).Hours()
		item.Score = Score(item.Upvotes, item.CommentCount, age)
	}
	ranked := make([]*models.TrendingItem, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > MaxTrendingItems {
		ranked = ranked[:MaxTrendingItems]
	}
	return ranked
}
