package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatingRoundTrip(t *testing.T) {
	assert.Equal(t, 4.37, RatingScore(437))
	assert.Equal(t, "4.37", FormatRating(437))
	assert.Equal(t, "5.00", FormatRating(500))
	assert.Equal(t, "0.05", FormatRating(5))
	assert.Equal(t, "0.00", FormatRating(0))
}

func TestRatingScoreBounds(t *testing.T) {
	for _, scaled := range []int64{0, 1, 99, 100, 437, 499, 500} {
		score := RatingScore(scaled)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 5.0)
	}
}
