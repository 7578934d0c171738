package models

import (
	"fmt"
)

// RatingScale is the fixed-point factor aggregate ratings are stored with on
// the ledger. A stored value of 437 reads back as 4.37.
const RatingScale = 100

// RatingScore converts a ledger-stored scaled rating to its [0,5] float view.
func RatingScore(scaled int64) float64 {
	return float64(scaled) / RatingScale
}

// FormatRating renders a scaled rating with exactly two decimals.
func FormatRating(scaled int64) string {
	return fmt.Sprintf("%d.%02d", scaled/RatingScale, scaled%RatingScale)
}

// WindowedCount is a metric sampled over the trailing 24h/7d/30d windows.
type WindowedCount struct {
	Day   uint64 `json:"day"`
	Week  uint64 `json:"week"`
	Month uint64 `json:"month"`
}

// MetricSnapshot is the nested on-ledger activity snapshot of a dapp.
type MetricSnapshot struct {
	Users        WindowedCount `json:"users"`
	VolumeUSD    WindowedCount `json:"volume_usd"`
	Transactions WindowedCount `json:"transactions"`
	TVLUSD       *float64      `json:"tvl_usd,omitempty"`
}

type Links struct {
	Website string `json:"website,omitempty"`
	Repo    string `json:"repo,omitempty"`
	Twitter string `json:"twitter,omitempty"`
	Discord string `json:"discord,omitempty"`
}

// Dapp is a directory entry materialized from the registry's entity table.
// Description holds resolved blob content when the store answered, otherwise
// the unresolved blob id (graceful degradation, see the registry service).
type Dapp struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Tagline        string         `json:"tagline,omitempty"`
	Category       string         `json:"category,omitempty"`
	Links          Links          `json:"links"`
	Description    string         `json:"description,omitempty"`
	DescriptionRef string         `json:"description_ref,omitempty"`
	Metrics        MetricSnapshot `json:"metrics"`
	Rank           int64          `json:"rank"`
	RankDelta      int64          `json:"rank_delta"`
	RatingScaled   int64          `json:"rating_scaled"`
	Rating         float64        `json:"rating"`
	ReviewCount    int64          `json:"review_count"`
	UpvoteCount    int64          `json:"upvote_count"`
	ReviewsTableID string         `json:"-"`
	Developer      *Developer     `json:"developer,omitempty"`
	Deleted        bool           `json:"deleted,omitempty"`
}

// Developer is keyed by its ledger address; at most one record exists per
// address.
type Developer struct {
	Addr     string `json:"addr"`
	Name     string `json:"name"`
	Bio      string `json:"bio,omitempty"`
	BioRef   string `json:"bio_ref,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Verified bool   `json:"verified"`
	Links    Links  `json:"links"`
}

// PlaceholderDeveloper stands in when the developer-table lookup fails so a
// dapp is never dropped over its owner record.
func PlaceholderDeveloper(addr string) *Developer {
	return &Developer{
		Addr: addr,
		Name: "unknown developer",
	}
}

// Review is keyed by author address within a dapp's reviews table; one review
// per (dapp, author) pair.
type Review struct {
	DappID       string `json:"dapp_id"`
	Author       string `json:"author"`
	Rating       int64  `json:"rating"` // 1..5
	Title        string `json:"title,omitempty"`
	Content      string `json:"content,omitempty"`
	ContentRef   string `json:"content_ref,omitempty"`
	HelpfulCount int64  `json:"helpful_count"`
	Verified     bool   `json:"verified"`
	CreatedAtMs  int64  `json:"created_at_ms"`
}

// Comment is a projection of a single comment event. There is no comment
// table on the ledger; the current comment set is always rebuilt from the
// event log.
type Comment struct {
	ID          string `json:"id"`
	DappID      string `json:"dapp_id"`
	Author      string `json:"author"`
	Content     string `json:"content,omitempty"`
	ContentRef  string `json:"content_ref,omitempty"`
	ParentID    string `json:"parent_id,omitempty"` // empty for a root comment
	Upvotes     int64  `json:"upvotes"`
	IsMaker     bool   `json:"is_maker"`
	CreatedAtMs int64  `json:"created_at_ms"`
}

// CommentNode is a comment with its assembled replies.
type CommentNode struct {
	Comment
	Replies []*CommentNode `json:"replies"`
}

const (
	TrendingKindReview  = "review"
	TrendingKindComment = "comment"
)

// TrendingItem is derived per query from recent review and comment events and
// never persisted.
type TrendingItem struct {
	Kind         string  `json:"kind"`
	ID           string  `json:"id"`
	DappID       string  `json:"dapp_id"`
	Author       string  `json:"author"`
	Snippet      string  `json:"snippet,omitempty"`
	Upvotes      int64   `json:"upvotes"`
	CommentCount int64   `json:"comment_count"`
	CreatedAtMs  int64   `json:"created_at_ms"`
	Score        float64 `json:"score"`
}

// RegistrationItem is one pending entity submission inside a bulk job.
type RegistrationItem struct {
	Name           string `json:"name"`
	Tagline        string `json:"tagline,omitempty"`
	Category       string `json:"category,omitempty"`
	DescriptionRef string `json:"description_ref,omitempty"`
	Links          Links  `json:"links"`
}

const (
	RegistrationStatusPending = "pending"
	RegistrationStatusSuccess = "success"
	RegistrationStatusFailed  = "failed"
)

// RegistrationResult records the terminal outcome of one item in a bulk job.
type RegistrationResult struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Digest string `json:"digest,omitempty"`
	Reason string `json:"reason,omitempty"` // the ledger's own rejection reason, verbatim
}

// JobProgress is a snapshot of a bulk registration job's counters.
type JobProgress struct {
	JobID     string `json:"job_id"`
	Total     int    `json:"total"`
	Done      int    `json:"done"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}
