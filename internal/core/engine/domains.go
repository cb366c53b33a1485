package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/openrdap/rdap"
)

// DomainVerifier answers whether an email domain is registered at all,
// using RDAP. Unregistered domains short-cut every platform check for that
// email; transport-level RDAP failures degrade open.
type DomainVerifier struct {
	Client  *rdap.Client
	Servers []string
	Timeout time.Duration

	mu    sync.Mutex
	known map[string]bool
}

// Registered reports whether the domain exists in its registry. Only an
// authoritative object-does-not-exist reply yields false; all other
// failures return an error so callers can degrade open.
func (v *DomainVerifier) Registered(ctx context.Context, domain string) (bool, error) {
	if v == nil {
		return true, nil
	}

	normalized := strings.ToLower(strings.TrimSpace(domain))
	if normalized == "" {
		return false, errors.New("domain is required")
	}
	if !strings.Contains(normalized, ".") {
		return false, nil
	}

	v.mu.Lock()
	if known, ok := v.known[normalized]; ok {
		v.mu.Unlock()
		return known, nil
	}
	v.mu.Unlock()

	registered, err := v.lookup(ctx, normalized)
	if err != nil {
		return true, err
	}

	v.mu.Lock()
	if v.known == nil {
		v.known = make(map[string]bool)
	}
	v.known[normalized] = registered
	v.mu.Unlock()

	return registered, nil
}

func (v *DomainVerifier) lookup(ctx context.Context, domain string) (bool, error) {
	client := v.Client
	if client == nil {
		client = &rdap.Client{}
	}

	servers := v.Servers
	if len(servers) == 0 {
		// No fixed servers configured: let the client bootstrap via IANA.
		return v.query(ctx, client, domain, nil)
	}

	var lastErr error
	for _, serverBase := range servers {
		serverURL, err := url.Parse(serverBase)
		if err != nil {
			return true, fmt.Errorf("invalid rdap server url: %w", err)
		}
		registered, err := v.query(ctx, client, domain, serverURL)
		if err != nil {
			lastErr = err
			continue
		}
		return registered, nil
	}
	return true, lastErr
}

func (v *DomainVerifier) query(ctx context.Context, client *rdap.Client, domain string, server *url.URL) (bool, error) {
	req := rdap.NewDomainRequest(domain)
	if server != nil {
		req = req.WithServer(server)
	}
	if v.Timeout > 0 {
		req.Timeout = v.Timeout
	}
	req = req.WithContext(ctx)

	resp, err := client.Do(req)
	if err != nil {
		if isNotFound(err) || httpStatus(resp) == http.StatusNotFound {
			return false, nil
		}
		return true, err
	}

	if _, ok := resp.Object.(*rdap.Domain); ok {
		return true, nil
	}
	return true, fmt.Errorf("unexpected rdap response for %s", domain)
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}

	clientErr, ok := err.(*rdap.ClientError)
	if !ok {
		return false
	}

	return clientErr.Type == rdap.ObjectDoesNotExist
}

func httpStatus(resp *rdap.Response) int {
	if resp == nil || len(resp.HTTP) == 0 || resp.HTTP[0] == nil || resp.HTTP[0].Response == nil {
		return 0
	}
	return resp.HTTP[0].Response.StatusCode
}
