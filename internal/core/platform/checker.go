package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/handlescan/handlescan/internal/core"
	"github.com/handlescan/handlescan/internal/core/engine"
)

// Checker is the capability every platform adapter implements: judge one
// query by replaying the platform's signup-validation flow.
type Checker interface {
	Check(ctx context.Context, query core.Query) (*core.CheckResult, error)
	Platform() core.Platform
}

// Env carries the plumbing shared by all adapters: the pooled HTTP client,
// the session cache for stateful flows, and result metadata.
type Env struct {
	Client      *http.Client
	Sessions    *engine.SessionCache
	UserAgent   string
	ToolVersion string
	Clock       func() time.Time
}

// Checkers builds the full adapter registry over one shared Env, keyed by
// platform name.
func Checkers(env Env) map[string]engine.Checker {
	return map[string]engine.Checker{
		core.PlatformFirefox:   &Firefox{Env: env},
		core.PlatformGitHub:    &GitHub{Env: env},
		core.PlatformGitLab:    &GitLab{Env: env},
		core.PlatformInstagram: &Instagram{Env: env},
		core.PlatformLastFM:    &LastFM{Env: env},
		core.PlatformPastebin:  &Pastebin{Env: env},
		core.PlatformPinterest: &Pinterest{Env: env},
		core.PlatformReddit:    &Reddit{Env: env},
		core.PlatformSnapchat:  &Snapchat{Env: env},
		core.PlatformSpotify:   &Spotify{Env: env},
		core.PlatformTumblr:    &Tumblr{Env: env},
		core.PlatformTwitter:   &Twitter{Env: env},
		core.PlatformYahoo:     &Yahoo{Env: env},
	}
}

func (e Env) httpClient() *http.Client {
	if e.Client != nil {
		return e.Client
	}
	return &http.Client{Timeout: engine.DefaultTimeout}
}

func (e Env) userAgent() string {
	if e.UserAgent != "" {
		return e.UserAgent
	}
	if e.ToolVersion != "" {
		return "handlescan/" + e.ToolVersion
	}
	return "handlescan"
}

func (e Env) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now().UTC()
}

// check carries the bookkeeping of one Check invocation: the classified
// query, the proxy the transport draws, and the last response status.
type check struct {
	env         Env
	ctx         context.Context
	query       core.Query
	platform    core.Platform
	requestedAt time.Time
	proxy       *engine.ProxyRecord
	statusCode  int
}

func (e Env) begin(ctx context.Context, query core.Query, platform core.Platform) *check {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, record := engine.WithProxyRecord(ctx)
	return &check{
		env:         e,
		ctx:         ctx,
		query:       query,
		platform:    platform,
		requestedAt: e.now(),
		proxy:       record,
	}
}

// validateLocal applies kind gating and the platform's advertised username
// syntax. A non-nil result means the verdict was reached without any
// network call.
func (ck *check) validateLocal() *core.CheckResult {
	if !ck.platform.Accepts(ck.query.Kind) {
		if ck.query.Kind == core.KindUnknown {
			return ck.invalid("query is neither a username nor an email address")
		}
		return ck.invalid(fmt.Sprintf("%s does not accept %s queries", ck.platform.Name, ck.query.Kind))
	}
	if ck.query.Kind == core.KindUsername {
		if ok, message := ck.platform.ValidateUsername(ck.query.Raw); !ok {
			return ck.invalid(message)
		}
	}
	return nil
}

// withSession runs submit with the platform's cached session. The initial
// handshake gets one retry; a stale-artifact rejection from submit gets
// exactly one session refresh and one more submit. Either way a check never
// issues more than two setup requests.
func (ck *check) withSession(setup engine.SetupFunc, submit func(*core.Session) (*core.CheckResult, error)) (*core.CheckResult, error) {
	cache := ck.env.Sessions
	if cache == nil {
		return nil, errors.New("session cache is not configured")
	}

	session, err := cache.GetOrCreate(ck.ctx, ck.platform.Name, setup)
	if err != nil {
		session, err = cache.GetOrCreate(ck.ctx, ck.platform.Name, setup)
		if err != nil {
			return ck.failure("setup failed: " + err.Error()), nil
		}
	}

	result, err := submit(session)
	if errors.Is(err, engine.ErrStaleSession) {
		cache.Invalidate(ck.platform.Name, session)
		session, err = cache.GetOrCreate(ck.ctx, ck.platform.Name, setup)
		if err != nil {
			return ck.failure("setup failed: " + err.Error()), nil
		}
		result, err = submit(session)
		if errors.Is(err, engine.ErrStaleSession) {
			return ck.failure("session rejected after refresh"), nil
		}
	}
	if err != nil {
		return ck.failure(err.Error()), nil
	}
	return result, nil
}

func (ck *check) available(message string) *core.CheckResult {
	return ck.finish(true, true, true, message)
}

func (ck *check) taken(message string) *core.CheckResult {
	return ck.finish(true, true, false, message)
}

func (ck *check) invalid(message string) *core.CheckResult {
	return ck.finish(true, false, false, message)
}

func (ck *check) failure(message string) *core.CheckResult {
	return ck.finish(false, false, false, message)
}

// unexpected reports a reply that lacked the verdict signal the platform's
// own client relies on, carrying the raw body for diagnosis.
func (ck *check) unexpected(body []byte) *core.CheckResult {
	return ck.failure("unexpected response: " + truncate(string(body), 300))
}

func (ck *check) finish(success, valid, available bool, message string) *core.CheckResult {
	result := &core.CheckResult{
		Query:     ck.query.Raw,
		Kind:      ck.query.Kind,
		Platform:  ck.platform.Name,
		Success:   success,
		Valid:     valid,
		Available: available,
		Message:   message,
		Provenance: core.Provenance{
			CheckID:     uuid.New().String(),
			RequestedAt: ck.requestedAt,
			ResolvedAt:  ck.env.now(),
			StatusCode:  ck.statusCode,
			Proxy:       ck.proxy.Proxy(),
			ToolVersion: ck.env.ToolVersion,
		},
	}
	if success && valid && ck.query.Kind == core.KindUsername {
		result.Link = ck.platform.Link(ck.query.Raw)
	}
	return result
}
