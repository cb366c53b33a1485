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

// Reddit checks username availability through the signup form's
// check_username endpoint.
type Reddit struct {
	Env
	BaseURL string
}

var redditTakenMessages = []string{
	"that username is already taken",
	"that username is taken by a deleted account",
}

// Platform returns the static platform metadata.
func (c *Reddit) Platform() core.Platform {
	p, _ := core.FindPlatform(core.PlatformReddit)
	return *p
}

// Check judges one username query.
func (c *Reddit) Check(ctx context.Context, query core.Query) (*core.CheckResult, error) {
	if c == nil {
		return nil, errors.New("reddit checker is not configured")
	}

	ck := c.begin(ctx, query, c.Platform())
	if result := ck.validateLocal(); result != nil {
		return result, nil
	}

	form := url.Values{"user": {query.Raw}}
	resp, err := ck.postForm(c.baseURL()+"/api/check_username.json", form, nil)
	if err != nil {
		return ck.failure(err.Error()), nil
	}
	body, err := readBody(resp)
	if err != nil {
		return ck.failure(err.Error()), nil
	}

	var payload struct {
		Error int `json:"error"`
		JSON  *struct {
			Errors [][]any `json:"errors"`
		} `json:"json"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ck.unexpected(body), nil
	}
	if payload.Error == http.StatusTooManyRequests {
		return ck.failure("too many requests"), nil
	}
	if payload.JSON != nil && len(payload.JSON.Errors) > 0 {
		message := redditErrorText(payload.JSON.Errors[0])
		if containsAny(message, redditTakenMessages) {
			return ck.taken(message), nil
		}
		return ck.invalid(message), nil
	}
	return ck.available("Username available"), nil
}

// redditErrorText pulls the human-readable part out of an error tuple
// shaped like [CODE, message, field].
func redditErrorText(parts []any) string {
	if len(parts) > 1 {
		if s, ok := parts[1].(string); ok {
			return s
		}
	}
	if len(parts) > 0 {
		if s, ok := parts[0].(string); ok {
			return s
		}
	}
	return "username was rejected"
}

func (c *Reddit) baseURL() string {
	if c != nil && c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return "https://www.reddit.com"
}
