package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/handlescan/handlescan/internal/core"
)

// GitLab checks username availability through the exists endpoint the
// signup form polls while you type.
type GitLab struct {
	Env
	BaseURL string
}

// Platform returns the static platform metadata.
func (c *GitLab) Platform() core.Platform {
	p, _ := core.FindPlatform(core.PlatformGitLab)
	return *p
}

// Check judges one username query.
func (c *GitLab) Check(ctx context.Context, query core.Query) (*core.CheckResult, error) {
	if c == nil {
		return nil, errors.New("gitlab checker is not configured")
	}

	ck := c.begin(ctx, query, c.Platform())
	if result := ck.validateLocal(); result != nil {
		return result, nil
	}

	reqURL := c.baseURL() + "/users/" + url.PathEscape(query.Raw) + "/exists"
	header := http.Header{}
	header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := ck.get(reqURL, header)
	if err != nil {
		return ck.failure(err.Error()), nil
	}
	body, err := readBody(resp)
	if err != nil {
		return ck.failure(err.Error()), nil
	}

	// Reserved routes answer with a 401 instead of an exists payload.
	if resp.StatusCode == http.StatusUnauthorized {
		return ck.taken("Username is unavailable"), nil
	}

	var payload struct {
		Exists *bool `json:"exists"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Exists == nil {
		return ck.unexpected(body), nil
	}
	if *payload.Exists {
		return ck.taken("Username is taken"), nil
	}
	return ck.available("Username available"), nil
}

func (c *GitLab) baseURL() string {
	if c != nil && c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return "https://gitlab.com"
}
