package worker

import (
	"context"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// idleTTL is how long a key's limiter is kept after its last use
const idleTTL = 10 * time.Minute

// Limiter rate-limits by key: client address on the API, host for fetches.
// Limiters for idle keys are evicted.
type Limiter struct {
	limiters     *gocache.Cache
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter allowing requestsPerSecond per key with the
// given burst. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	r := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		r = rate.Inf
	}

	return &Limiter{
		limiters:     gocache.New(idleTTL, idleTTL),
		defaultRate:  r,
		defaultBurst: burst,
	}
}

// Wait blocks until key may proceed or ctx is done
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.get(key).Wait(ctx)
}

// Allow reports whether key may proceed now
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// WaitWithDelay waits for clearance and then for an additional delay, such
// as a robots.txt crawl delay
func (l *Limiter) WaitWithDelay(ctx context.Context, key string, additionalDelay time.Duration) error {
	if err := l.Wait(ctx, key); err != nil {
		return err
	}

	if additionalDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(additionalDelay):
		}
	}

	return nil
}

// get returns the limiter for key, refreshing its idle timer. Concurrent
// first calls for one key may briefly race; Add keeps a single winner.
func (l *Limiter) get(key string) *rate.Limiter {
	if v, found := l.limiters.Get(key); found {
		lim := v.(*rate.Limiter)
		l.limiters.SetDefault(key, lim)
		return lim
	}

	lim := rate.NewLimiter(l.defaultRate, l.defaultBurst)
	if err := l.limiters.Add(key, lim, gocache.DefaultExpiration); err != nil {
		if v, found := l.limiters.Get(key); found {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

// HostKey extracts the host of a URL for per-host limiting
func HostKey(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return parsed.Host, nil
}
