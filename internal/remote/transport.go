// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package remote

import (
	"crypto/tls"
	"net/http"
	"sync"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/time/rate"
)

// newTransport returns a pooled keep-alive transport
// bounded to maxConnsPerHost connections per host.
// Compression is disabled so that bodies match the declared checksums.
func newTransport(maxConnsPerHost int, insecure bool) *http.Transport {
	t := cleanhttp.DefaultPooledTransport()
	t.DisableCompression = true
	t.MaxConnsPerHost = maxConnsPerHost
	if maxConnsPerHost > 0 {
		t.MaxIdleConnsPerHost = maxConnsPerHost
	}
	if insecure {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402
	}
	return t
}

// rateLimitedTransport waits on a per-host token bucket before every
// round trip, retries included.
type rateLimitedTransport struct {
	next  http.RoundTripper
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newRateLimitedTransport(next http.RoundTripper, rps float64) *rateLimitedTransport {
	return &rateLimitedTransport{
		next:     next,
		limit:    rate.Limit(rps),
		burst:    1,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (t *rateLimitedTransport) limiter(host string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.limiters[host]
	if !ok {
		l = rate.NewLimiter(t.limit, t.burst)
		t.limiters[host] = l
	}
	return l
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter(req.URL.Host).Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}
