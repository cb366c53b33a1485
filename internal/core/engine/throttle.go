package engine

import (
	"context"

	"github.com/vnykmshr/goflow/pkg/ratelimit/bucket"
)

// Throttle paces outbound requests with token buckets: one global bucket
// plus optional per-host buckets for endpoints that need gentler rates.
// Host rates must be configured before the first Wait.
type Throttle struct {
	global bucket.Limiter
	hosts  map[string]bucket.Limiter
}

// NewThrottle builds a throttle. rate <= 0 disables the global bucket.
func NewThrottle(rate float64, burst int) *Throttle {
	t := &Throttle{hosts: make(map[string]bucket.Limiter)}
	if rate > 0 {
		t.global = bucket.NewSafe(bucket.Limit(rate), normalizeBurst(burst))
	}
	return t
}

// SetHostRate overrides the request rate for one host. rate <= 0 removes
// the override.
func (t *Throttle) SetHostRate(host string, rate float64, burst int) {
	if t == nil || host == "" {
		return
	}
	if rate <= 0 {
		delete(t.hosts, host)
		return
	}
	t.hosts[host] = bucket.NewSafe(bucket.Limit(rate), normalizeBurst(burst))
}

// Wait blocks until both the global bucket and the host's bucket admit one
// request, or the context is cancelled. A nil throttle admits immediately.
func (t *Throttle) Wait(ctx context.Context, host string) error {
	if t == nil {
		return nil
	}
	if t.global != nil {
		if err := t.global.Wait(ctx); err != nil {
			return err
		}
	}
	if limiter, ok := t.hosts[host]; ok {
		return limiter.Wait(ctx)
	}
	return nil
}

func normalizeBurst(burst int) int {
	if burst < 1 {
		return 1
	}
	return burst
}
