package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dapphub-labs/dapphub/ledger"
	"github.com/dapphub-labs/dapphub/models"
)

func trendingItem(id string, upvotes, commentCount int64, age time.Duration, now time.Time) *models.TrendingItem {
	return &models.TrendingItem{
		ID:           id,
		Upvotes:      upvotes,
		CommentCount: commentCount,
		CreatedAtMs:  now.Add(-age).UnixMilli(),
	}
}

func TestRankMoreUpvotesWinsAtEqualAge(t *testing.T) {
	now := time.Now()
	ranked := Rank([]*models.TrendingItem{
		trendingItem("low", 8, 0, time.Hour, now),
		trendingItem("high", 10, 0, time.Hour, now),
	}, now)

	require.Len(t, ranked, 2)
	assert.Equal(t, "high", ranked[0].ID)
	assert.Equal(t, "low", ranked[1].ID)
}

func TestRankFreshBeatsStaleAtZeroEngagement(t *testing.T) {
	now := time.Now()
	ranked := Rank([]*models.TrendingItem{
		trendingItem("stale", 0, 0, 72*time.Hour, now),
		trendingItem("fresh", 0, 0, 5*time.Second, now),
	}, now)

	require.Len(t, ranked, 2)
	assert.Equal(t, "fresh", ranked[0].ID)
}

func TestRankCommentsWeighDouble(t *testing.T) {
	now := time.Now()
	ranked := Rank([]*models.TrendingItem{
		trendingItem("upvoted", 3, 0, time.Hour, now),
		trendingItem("discussed", 0, 2, time.Hour, now),
	}, now)

	assert.Equal(t, "discussed", ranked[0].ID)
}

func TestRankIsStableOnTies(t *testing.T) {
	now := time.Now()
	ranked := Rank([]*models.TrendingItem{
		trendingItem("a", 5, 0, time.Hour, now),
		trendingItem("b", 5, 0, time.Hour, now),
		trendingItem("c", 5, 0, time.Hour, now),
	}, now)

	require.Len(t, ranked, 3)
	assert.Equal(t, "a", ranked[0].ID)
	assert.Equal(t, "b", ranked[1].ID)
	assert.Equal(t, "c", ranked[2].ID)
}

func TestRankCapsTheFeed(t *testing.T) {
	now := time.Now()
	items := make([]*models.TrendingItem, 0, 25)
	for i := 0; i < 25; i++ {
		items = append(items, trendingItem("x", int64(i), 0, time.Hour, now))
	}
	assert.Len(t, Rank(items, now), MaxTrendingItems)
}

func TestScoreRecencyBonusNeverReachesZero(t *testing.T) {
	assert.Greater(t, Score(0, 0, 1e6), 0.0)
	assert.InDelta(t, 1.0, Score(0, 0, 0), 1e-9)
}

func TestListTrendingMergesStreamsAndCountsReplies(t *testing.T) {
	reader := newFakeReader()
	nowMs := time.Now().UnixMilli()
	reviewType := reviewEventType("0xpkg")
	commentType := commentEventType("0xpkg")
	reader.events[reviewType] = []ledger.Event{
		event(reviewType, tsStr(nowMs-3600_000), `{"review_id":"rev1","dapp_id":"0xd","author":"0xa","title":"great","rating":"5","upvotes":"4"}`),
	}
	reader.events[commentType] = []ledger.Event{
		event(commentType, tsStr(nowMs-1800_000), `{"comment_id":"c1","dapp_id":"0xd","author":"0xb","content":"","parent_id":"rev1","upvotes":"0","is_maker":false}`),
		event(commentType, tsStr(nowMs-600_000), `{"comment_id":"c2","dapp_id":"0xd","author":"0xc","content":"","parent_id":"rev1","upvotes":"1","is_maker":false}`),
	}

	svc := NewTrendingService(reader, nopCache{}, testConfig())
	items, err := svc.ListTrending(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	// review rev1: 4 upvotes + 2 replies*2 = 8 + recency, ranks first
	assert.Equal(t, models.TrendingKindReview, items[0].Kind)
	assert.Equal(t, "rev1", items[0].ID)
	assert.Equal(t, int64(2), items[0].CommentCount)
}

func tsStr(ms int64) string {
	return strconv.FormatInt(ms, 10)
}
