package llm

import (
	"time"

	"github.com/alphadose/haxmap"
	"github.com/dougsaus/tic-tac-vibe/internal/entity"
	"golang.org/x/time/rate"
)

// Limiters keeps one token bucket per provider id.
type Limiters struct {
	limiters *haxmap.Map[string, *rate.Limiter]
}

func NewLimiters() *Limiters {
	return &Limiters{
		limiters: haxmap.New[string, *rate.Limiter](),
	}
}

// Allow takes a token for providerID. A nil or non-positive limit never blocks.
func (that *Limiters) Allow(providerID string, limit *entity.RateLimit) bool {
	if limit == nil || limit.MaxRequests <= 0 || limit.PerMinutes <= 0 {
		return true
	}

	limiter, _ := that.limiters.GetOrCompute(providerID, func() *rate.Limiter {
		window := time.Duration(limit.PerMinutes) * time.Minute

		return rate.NewLimiter(rate.Every(window/time.Duration(limit.MaxRequests)), limit.MaxRequests)
	})

	return limiter.Allow()
}
