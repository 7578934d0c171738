package pipeline

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out sequential write submissions. Wait blocks until the next
// submission may go out or the context ends.
type Pacer interface {
	Wait(ctx context.Context) error
}

type intervalPacer struct {
	limiter *rate.Limiter
}

// NewIntervalPacer allows one submission per interval, with no burst beyond
// the first.
func NewIntervalPacer(interval time.Duration) Pacer {
	return &intervalPacer{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (p *intervalPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// NopPacer applies no spacing.
type NopPacer struct{}

func (NopPacer) Wait(ctx context.Context) error {
	return ctx.Err()
}
