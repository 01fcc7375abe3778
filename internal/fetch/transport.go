package fetch

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// PoliteTransport is an http.RoundTripper that applies the crawl's
// politeness pipeline: RobotsCheck → RateLimiter → Send.
type PoliteTransport struct {
	Base        http.RoundTripper
	Robots      *RobotsChecker
	RateLimiter *rate.Limiter
}

func (t *PoliteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Robots != nil {
		ua := req.Header.Get("User-Agent")
		if ua == "" {
			ua = defaultUserAgent
		}
		allowed, err := t.Robots.IsAllowed(ua, req.URL.String())
		if err == nil && !allowed {
			return nil, fmt.Errorf("blocked by robots.txt: %s", req.URL.Path)
		}
	}

	if t.RateLimiter != nil {
		if err := t.RateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
