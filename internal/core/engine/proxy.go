package engine

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
)

// ProxyRotator assigns outbound proxies round-robin from a fixed pool. An
// empty pool always assigns "no proxy". Dead proxies are not health-checked;
// they surface as transport failures on the tasks that drew them.
type ProxyRotator struct {
	proxies []*url.URL
	counter uint64
}

// NewProxyRotator parses a pool of scheme://host:port proxy URIs.
func NewProxyRotator(raw []string) (*ProxyRotator, error) {
	proxies := make([]*url.URL, 0, len(raw))
	for _, value := range raw {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		parsed, err := url.Parse(trimmed)
		if err != nil {
			return nil, fmt.Errorf("proxy %q: %w", trimmed, err)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("proxy %q: expected scheme://host:port", trimmed)
		}
		proxies = append(proxies, parsed)
	}
	return &ProxyRotator{proxies: proxies}, nil
}

// Assign draws the next proxy from the pool, or nil when the pool is empty.
func (r *ProxyRotator) Assign() *url.URL {
	if r == nil || len(r.proxies) == 0 {
		return nil
	}
	idx := atomic.AddUint64(&r.counter, 1) - 1
	return r.proxies[idx%uint64(len(r.proxies))]
}

// Size reports the pool size.
func (r *ProxyRotator) Size() int {
	if r == nil {
		return 0
	}
	return len(r.proxies)
}

// ProxyFunc adapts the rotator to http.Transport, drawing one proxy per
// outbound request.
func (r *ProxyRotator) ProxyFunc() func(*http.Request) (*url.URL, error) {
	return func(*http.Request) (*url.URL, error) {
		return r.Assign(), nil
	}
}
