package engine

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// DefaultTimeout bounds each outbound request end to end.
const DefaultTimeout = 15 * time.Second

// ClientConfig shapes the shared HTTP client every adapter uses. The
// transport's connection limits are the engine's only admission control.
type ClientConfig struct {
	Timeout         time.Duration
	MaxConnsPerHost int
	MaxIdleConns    int
	Rotator         *ProxyRotator
	Throttle        *Throttle
}

// NewHTTPClient builds the shared client. No cookie jar is attached:
// adapters carry cookies explicitly, and concurrent tasks must never bleed
// session state into each other through a shared jar.
func NewHTTPClient(cfg ClientConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		IdleConnTimeout:   90 * time.Second,
		ForceAttemptHTTP2: true,
	}
	if cfg.MaxConnsPerHost > 0 {
		transport.MaxConnsPerHost = cfg.MaxConnsPerHost
		transport.MaxIdleConnsPerHost = cfg.MaxConnsPerHost
	}
	if cfg.MaxIdleConns > 0 {
		transport.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.Rotator.Size() > 0 {
		transport.Proxy = recordingProxyFunc(cfg.Rotator)
	}

	var rt http.RoundTripper = transport
	if cfg.Throttle != nil {
		rt = &throttledTransport{base: transport, throttle: cfg.Throttle}
	}

	return &http.Client{Timeout: timeout, Transport: rt}
}

type throttledTransport struct {
	base     http.RoundTripper
	throttle *Throttle
}

func (t *throttledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.throttle.Wait(req.Context(), req.URL.Hostname()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// ProxyRecord captures which proxy the transport drew for the request whose
// context carries it, so results can report the route they took.
type ProxyRecord struct {
	mu  sync.Mutex
	url *url.URL
}

// Proxy returns the recorded proxy URI, or "" when the request went direct.
func (r *ProxyRecord) Proxy() string {
	if r == nil {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.url == nil {
		return ""
	}
	return r.url.String()
}

func (r *ProxyRecord) set(u *url.URL) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.url = u
	r.mu.Unlock()
}

type proxyRecordKey struct{}

// WithProxyRecord attaches a ProxyRecord to the context for one check's
// requests.
func WithProxyRecord(ctx context.Context) (context.Context, *ProxyRecord) {
	record := &ProxyRecord{}
	return context.WithValue(ctx, proxyRecordKey{}, record), record
}

func recordingProxyFunc(rotator *ProxyRotator) func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		assigned := rotator.Assign()
		if record, ok := req.Context().Value(proxyRecordKey{}).(*ProxyRecord); ok {
			record.set(assigned)
		}
		return assigned, nil
	}
}
