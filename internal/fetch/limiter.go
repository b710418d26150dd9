package fetch

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter enforces a minimum interval between requests to the same host
// (www.linkedin.com, boards.greenhouse.io, ...). One instance is shared by
// every worker so concurrency never raises the per-origin rate.
type HostLimiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
	r  rate.Limit
}

func NewHostLimiter(interval time.Duration) *HostLimiter {
	r := rate.Inf
	if interval > 0 {
		r = rate.Every(interval)
	}
	return &HostLimiter{
		m: make(map[string]*rate.Limiter),
		r: r,
	}
}

func (hl *HostLimiter) limiterFor(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if lim, ok := hl.m[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(hl.r, 1)
	hl.m[host] = lim
	return lim
}

func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return hl.limiterFor("_").Wait(ctx)
	}
	return hl.limiterFor(u.Host).Wait(ctx)
}
