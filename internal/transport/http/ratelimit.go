package http

import (
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter allows limit inbound messages per minute for one socket,
// with bursts of up to limit.
type rateLimiter struct {
	lim *rate.Limiter
	now func() time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	if limit <= 0 {
		return nil
	}
	return &rateLimiter{
		lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(limit)), limit),
		now: time.Now,
	}
}

func (r *rateLimiter) allow() bool {
	if r == nil {
		return true
	}
	return r.lim.AllowN(r.now(), 1)
}
