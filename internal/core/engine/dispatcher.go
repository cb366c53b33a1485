package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/handlescan/handlescan/internal/core"
)

// OrderMode controls how a run's results are grouped.
type OrderMode string

const (
	OrderByQuery    OrderMode = "query"
	OrderByPlatform OrderMode = "platform"
)

// ParseOrderMode parses a user-facing ordering name. Empty input selects
// by-query grouping.
func ParseOrderMode(value string) (OrderMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "query", "by_query":
		return OrderByQuery, nil
	case "platform", "by_platform":
		return OrderByPlatform, nil
	default:
		return "", fmt.Errorf("unknown ordering %q (expected query or platform)", value)
	}
}

// Checker is implemented by platform adapters.
type Checker interface {
	Check(ctx context.Context, query core.Query) (*core.CheckResult, error)
	Platform() core.Platform
}

// SessionWarmer is implemented by adapters whose setup step can be primed
// ahead of a scan.
type SessionWarmer interface {
	WarmSession(ctx context.Context) error
}

// Dispatcher fans the (query × platform) cross-product out as concurrent
// tasks over the shared transport and collects one CheckResult per pair.
type Dispatcher struct {
	Checkers    map[string]Checker
	Verifier    *DomainVerifier
	Order       OrderMode
	ToolVersion string
	Clock       func() time.Time

	// OnResult observes each result as it lands, from task goroutines.
	// Results are still delivered as the complete ordered slice.
	OnResult func(*core.CheckResult)
}

type task struct {
	index    int
	query    core.Query
	platform core.Platform
	checker  Checker
}

// Run checks every query against every named platform and returns exactly
// len(queries) × len(platforms) results in the configured grouping. Unknown
// platform names fail immediately, before any task is scheduled; every
// other fault is captured per task as a Success=false result.
func (d *Dispatcher) Run(ctx context.Context, rawQueries []string, platformNames []string) ([]*core.CheckResult, error) {
	if d == nil {
		return nil, errors.New("dispatcher is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if len(rawQueries) == 0 {
		return nil, errors.New("at least one query is required")
	}
	if len(platformNames) == 0 {
		return nil, errors.New("at least one platform is required")
	}

	checkers, err := d.resolveCheckers(platformNames)
	if err != nil {
		return nil, err
	}

	queries := make([]core.Query, 0, len(rawQueries))
	for _, raw := range rawQueries {
		queries = append(queries, core.NewQuery(raw))
	}

	// The slot index encodes the configured grouping, so completed results
	// land pre-arranged and no post-sort is needed.
	slot := func(qi, pi int) int {
		if d.Order == OrderByPlatform {
			return pi*len(queries) + qi
		}
		return qi*len(checkers) + pi
	}

	unregistered := d.unregisteredDomains(ctx, queries)

	results := make([]*core.CheckResult, len(queries)*len(checkers))
	tasks := make([]task, 0, len(results))
	for qi, query := range queries {
		for pi, checker := range checkers {
			idx := slot(qi, pi)
			platform := checker.Platform()
			switch {
			case !core.Applicable(query, platform):
				results[idx] = d.inapplicableResult(query, platform)
			case query.Kind == core.KindEmail && unregistered[core.EmailDomain(query.Raw)]:
				results[idx] = d.invalidDomainResult(query, platform)
			default:
				tasks = append(tasks, task{index: idx, query: query, platform: platform, checker: checker})
				continue
			}
			d.observe(results[idx])
		}
	}

	var wg sync.WaitGroup
	for _, tk := range tasks {
		wg.Add(1)
		go func(tk task) {
			defer wg.Done()
			result := d.runTask(ctx, tk)
			results[tk.index] = result
			d.observe(result)
		}(tk)
	}
	wg.Wait()

	return results, nil
}

// WarmSessions pre-acquires sessions for the named platforms whose adapters
// support it, so the scan proper starts with a hot cache. Failures are
// reported per platform and never abort the caller.
func (d *Dispatcher) WarmSessions(ctx context.Context, platformNames []string) (map[string]error, error) {
	if d == nil {
		return nil, errors.New("dispatcher is not configured")
	}

	checkers, err := d.resolveCheckers(platformNames)
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		failures = make(map[string]error)
		wg       sync.WaitGroup
	)
	for _, checker := range checkers {
		warmer, ok := checker.(SessionWarmer)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(name string, warmer SessionWarmer) {
			defer wg.Done()
			if err := warmer.WarmSession(ctx); err != nil {
				mu.Lock()
				failures[name] = err
				mu.Unlock()
			}
		}(checker.Platform().Name, warmer)
	}
	wg.Wait()

	return failures, nil
}

func (d *Dispatcher) resolveCheckers(platformNames []string) ([]Checker, error) {
	checkers := make([]Checker, 0, len(platformNames))
	for _, name := range platformNames {
		checker, ok := d.Checkers[strings.ToLower(strings.TrimSpace(name))]
		if !ok || checker == nil {
			return nil, fmt.Errorf("unknown platform %q", name)
		}
		checkers = append(checkers, checker)
	}
	return checkers, nil
}

func (d *Dispatcher) runTask(ctx context.Context, tk task) (result *core.CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			result = d.failureResult(tk.query, tk.platform, fmt.Sprintf("check panicked: %v", r))
		}
	}()

	res, err := tk.checker.Check(ctx, tk.query)
	if err != nil {
		return d.failureResult(tk.query, tk.platform, err.Error())
	}
	if res == nil {
		return d.failureResult(tk.query, tk.platform, "checker returned no result")
	}
	return res
}

// unregisteredDomains resolves each unique email domain once, concurrently.
// Verifier errors degrade open: the domain is treated as registered.
func (d *Dispatcher) unregisteredDomains(ctx context.Context, queries []core.Query) map[string]bool {
	if d.Verifier == nil {
		return nil
	}

	domains := make(map[string]bool)
	for _, query := range queries {
		if query.Kind != core.KindEmail {
			continue
		}
		if domain := core.EmailDomain(query.Raw); domain != "" {
			domains[domain] = true
		}
	}
	if len(domains) == 0 {
		return nil
	}

	var (
		mu           sync.Mutex
		unregistered = make(map[string]bool)
		wg           sync.WaitGroup
	)
	for domain := range domains {
		wg.Add(1)
		go func(domain string) {
			defer wg.Done()
			registered, err := d.Verifier.Registered(ctx, domain)
			if err == nil && !registered {
				mu.Lock()
				unregistered[domain] = true
				mu.Unlock()
			}
		}(domain)
	}
	wg.Wait()

	return unregistered
}

func (d *Dispatcher) observe(result *core.CheckResult) {
	if d.OnResult != nil && result != nil {
		d.OnResult(result)
	}
}

func (d *Dispatcher) inapplicableResult(query core.Query, platform core.Platform) *core.CheckResult {
	message := fmt.Sprintf("%s does not accept %s queries", platform.Name, query.Kind)
	if query.Kind == core.KindUnknown {
		message = "query is neither a username nor an email address"
	}
	return d.localResult(query, platform, message)
}

func (d *Dispatcher) invalidDomainResult(query core.Query, platform core.Platform) *core.CheckResult {
	return d.localResult(query, platform, fmt.Sprintf("email domain %s is not registered", core.EmailDomain(query.Raw)))
}

func (d *Dispatcher) localResult(query core.Query, platform core.Platform, message string) *core.CheckResult {
	now := d.now()
	return &core.CheckResult{
		Query:    query.Raw,
		Kind:     query.Kind,
		Platform: platform.Name,
		Success:  true,
		Valid:    false,
		Message:  message,
		Provenance: core.Provenance{
			CheckID:     uuid.New().String(),
			RequestedAt: now,
			ResolvedAt:  now,
			ToolVersion: d.ToolVersion,
		},
	}
}

func (d *Dispatcher) failureResult(query core.Query, platform core.Platform, message string) *core.CheckResult {
	now := d.now()
	return &core.CheckResult{
		Query:    query.Raw,
		Kind:     query.Kind,
		Platform: platform.Name,
		Success:  false,
		Message:  message,
		Provenance: core.Provenance{
			CheckID:     uuid.New().String(),
			RequestedAt: now,
			ResolvedAt:  now,
			ToolVersion: d.ToolVersion,
		},
	}
}

func (d *Dispatcher) now() time.Time {
	if d != nil && d.Clock != nil {
		return d.Clock()
	}
	return time.Now().UTC()
}
