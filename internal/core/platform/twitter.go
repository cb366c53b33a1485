package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/handlescan/handlescan/internal/core"
)

// Twitter checks username and email availability through the signup
// form's availability endpoints.
type Twitter struct {
	Env
	BaseURL string
}

// Platform returns the static platform metadata.
func (c *Twitter) Platform() core.Platform {
	p, _ := core.FindPlatform(core.PlatformTwitter)
	return *p
}

// Check judges one username or email query.
func (c *Twitter) Check(ctx context.Context, query core.Query) (*core.CheckResult, error) {
	if c == nil {
		return nil, errors.New("twitter checker is not configured")
	}

	ck := c.begin(ctx, query, c.Platform())
	if result := ck.validateLocal(); result != nil {
		return result, nil
	}
	if query.Kind == core.KindEmail {
		return c.checkEmail(ck)
	}
	return c.checkUsername(ck)
}

func (c *Twitter) checkUsername(ck *check) (*core.CheckResult, error) {
	reqURL := c.baseURL() + "/i/users/username_available.json?username=" + url.QueryEscape(ck.query.Raw)
	resp, err := ck.get(reqURL, nil)
	if err != nil {
		return ck.failure(err.Error()), nil
	}
	body, err := readBody(resp)
	if err != nil {
		return ck.failure(err.Error()), nil
	}

	var payload struct {
		Valid *bool  `json:"valid"`
		Desc  string `json:"desc"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Valid == nil {
		return ck.unexpected(body), nil
	}
	if *payload.Valid {
		return ck.available(payload.Desc), nil
	}
	return ck.taken(payload.Desc), nil
}

func (c *Twitter) checkEmail(ck *check) (*core.CheckResult, error) {
	reqURL := c.baseURL() + "/i/users/email_available.json?email=" + url.QueryEscape(ck.query.Raw)
	resp, err := ck.get(reqURL, nil)
	if err != nil {
		return ck.failure(err.Error()), nil
	}
	body, err := readBody(resp)
	if err != nil {
		return ck.failure(err.Error()), nil
	}

	var payload struct {
		Valid *bool  `json:"valid"`
		Taken bool   `json:"taken"`
		Msg   string `json:"msg"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Valid == nil {
		return ck.unexpected(body), nil
	}
	if !*payload.Valid {
		return ck.invalid(payload.Msg), nil
	}
	if payload.Taken {
		return ck.taken(payload.Msg), nil
	}
	return ck.available(payload.Msg), nil
}

func (c *Twitter) baseURL() string {
	if c != nil && c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return "https://twitter.com"
}
