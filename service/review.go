package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/dapphub-labs/dapphub/cache"
	"github.com/dapphub-labs/dapphub/config"
	"github.com/dapphub-labs/dapphub/ledger"
	"github.com/dapphub-labs/dapphub/logging"
	"github.com/dapphub-labs/dapphub/models"
	"github.com/dapphub-labs/dapphub/util"
	"github.com/dapphub-labs/dapphub/walrus"
)

// Reviews reads a dapp's nested reviews table.
type Reviews interface {
	ListReviews(ctx context.Context, dappID string) ([]*models.Review, error)
}

type ReviewService struct {
	reader       ledger.Reader
	store        walrus.Store
	cacheService cache.Cache
	config       *config.Config
}

func NewReviewService(reader ledger.Reader, store walrus.Store, cacheService cache.Cache, cfg *config.Config) Reviews {
	return &ReviewService{
		reader:       reader,
		store:        store,
		cacheService: cacheService,
		config:       cfg,
	}
}

type reviewFields struct {
	Rating       string `json:"rating"`
	Title        string `json:"title"`
	Content      string `json:"content"` // blob id
	HelpfulCount string `json:"helpful_count"`
	Verified     bool   `json:"verified"`
	CreatedAtMs  string `json:"created_at_ms"`
}

func (s *ReviewService) ListReviews(ctx context.Context, dappID string) ([]*models.Review, error) {
	cacheKey := "reviews/" + dappID
	if cached, found := s.cacheService.Get(cacheKey); found {
		reviews := make([]*models.Review, 0)
		if err := json.Unmarshal(cached, &reviews); err == nil {
			return reviews, nil
		}
	}

	object, err := s.reader.GetObject(ctx, dappID)
	if err != nil {
		if err == ledger.ErrObjectNotFound {
			return nil, ErrDappNotFound
		}
		return nil, err
	}
	dapp, err := parseDapp(object)
	if err != nil {
		return nil, err
	}

	entries, err := s.reader.GetDynamicFields(ctx, dapp.ReviewsTableID)
	if err != nil {
		return nil, fmt.Errorf("enumerate reviews table: %w", err)
	}
	ids := make([]string, 0, len(entries))
	authors := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ObjectID)
		author, _ := entry.Name.Value.(string)
		authors = append(authors, author)
	}

	reviews := make([]*models.Review, 0, len(ids))
	for start := 0; start < len(ids); start += multiGetChunkSize {
		end := start + multiGetChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		objects, err := s.reader.MultiGetObjects(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		for i, object := range objects {
			if object == nil || object.Content == nil {
				continue
			}
			var fields reviewFields
			if err := json.Unmarshal(unwrapEntryFields(object.Content.Fields), &fields); err != nil {
				logging.Logger.Errorf("dropping malformed review %s of dapp %s, err=%s", object.ObjectID, dappID, err.Error())
				continue
			}
			reviews = append(reviews, &models.Review{
				DappID:       dappID,
				Author:       util.NormalizeAddress(authors[start+i]),
				Rating:       parseInt64(fields.Rating),
				Title:        fields.Title,
				ContentRef:   fields.Content,
				HelpfulCount: parseInt64(fields.HelpfulCount),
				Verified:     fields.Verified,
				CreatedAtMs:  parseInt64(fields.CreatedAtMs),
			})
		}
	}
	s.resolveContents(ctx, reviews)
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].CreatedAtMs > reviews[j].CreatedAtMs
	})

	if bz, err := json.Marshal(reviews); err == nil {
		s.cacheService.Set(cacheKey, bz)
	}
	return reviews, nil
}

func (s *ReviewService) resolveContents(ctx context.Context, reviews []*models.Review) {
	sem := make(chan struct{}, enrichConcurrency)
	var wg sync.WaitGroup
	for _, review := range reviews {
		if review.ContentRef == "" {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(r *models.Review) {
			defer wg.Done()
			defer func() { <-sem }()
			if content, err := s.store.Fetch(ctx, r.ContentRef); err == nil {
				r.Content = content
			} else {
				r.Content = r.ContentRef
			}
		}(review)
	}
	wg.Wait()
}
