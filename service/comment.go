package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dapphub-labs/dapphub/cache"
	"github.com/dapphub-labs/dapphub/config"
	"github.com/dapphub-labs/dapphub/ledger"
	"github.com/dapphub-labs/dapphub/models"
	"github.com/dapphub-labs/dapphub/walrus"
)

// commentWindow bounds the comment-event page a thread is projected from.
// Parents outside the window demote their replies to roots, see BuildThread.
const commentWindow = 200

// Comments rebuilds discussion threads from the ledger's comment event log.
type Comments interface {
	ListComments(ctx context.Context, dappID string) ([]*models.CommentNode, error)
}

type CommentService struct {
	reader       ledger.Reader
	store        walrus.Store
	cacheService cache.Cache
	config       *config.Config
}

func NewCommentService(reader ledger.Reader, store walrus.Store, cacheService cache.Cache, cfg *config.Config) Comments {
	return &CommentService{
		reader:       reader,
		store:        store,
		cacheService: cacheService,
		config:       cfg,
	}
}

func (s *CommentService) ListComments(ctx context.Context, dappID string) ([]*models.CommentNode, error) {
	cacheKey := "comments/" + dappID
	if cached, found := s.cacheService.Get(cacheKey); found {
		forest := make([]*models.CommentNode, 0)
		if err := json.Unmarshal(cached, &forest); err == nil {
			return forest, nil
		}
	}

	events, err := s.reader.QueryEvents(ctx, commentEventType(s.config.LedgerConfig.PackageID), commentWindow, true)
	if err != nil {
		return nil, err
	}
	comments := make([]models.Comment, 0, len(events))
	for _, ev := range events {
		comment, ok := commentFromEvent(ev)
		if !ok || comment.DappID != dappID {
			continue
		}
		comments = append(comments, comment)
	}
	s.resolveContents(ctx, comments)

	forest := BuildThread(comments)
	if bz, err := json.Marshal(forest); err == nil {
		s.cacheService.Set(cacheKey, bz)
	}
	return forest, nil
}

// resolveContents fetches comment bodies from the blob store with bounded
// fan-out. An unavailable blob leaves the ref in place; the thread still
// builds.
func (s *CommentService) resolveContents(ctx context.Context, comments []models.Comment) {
	sem := make(chan struct{}, enrichConcurrency)
	var wg sync.WaitGroup
	for i := range comments {
		if comments[i].ContentRef == "" {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(c *models.Comment) {
			defer wg.Done()
			defer func() { <-sem }()
			if content, err := s.store.Fetch(ctx, c.ContentRef); err == nil {
				c.Content = content
			} else {
				c.Content = c.ContentRef
			}
		}(&comments[i])
	}
	wg.Wait()
}
