package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/handlescan/handlescan/internal/core"
)

// Firefox checks email availability against the Mozilla accounts status
// endpoint.
type Firefox struct {
	Env
	BaseURL string
}

// Platform returns the static platform metadata.
func (c *Firefox) Platform() core.Platform {
	p, _ := core.FindPlatform(core.PlatformFirefox)
	return *p
}

// Check judges one email query.
func (c *Firefox) Check(ctx context.Context, query core.Query) (*core.CheckResult, error) {
	if c == nil {
		return nil, errors.New("firefox checker is not configured")
	}

	ck := c.begin(ctx, query, c.Platform())
	if result := ck.validateLocal(); result != nil {
		return result, nil
	}

	form := url.Values{"email": {query.Raw}}
	resp, err := ck.postForm(c.baseURL()+"/v1/account/status", form, nil)
	if err != nil {
		return ck.failure(err.Error()), nil
	}
	body, err := readBody(resp)
	if err != nil {
		return ck.failure(err.Error()), nil
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Exists  *bool  `json:"exists"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ck.unexpected(body), nil
	}
	if payload.Error != "" {
		message := payload.Error
		if payload.Message != "" {
			message = payload.Message
		}
		return ck.failure(message), nil
	}
	if payload.Exists == nil {
		return ck.unexpected(body), nil
	}
	if *payload.Exists {
		return ck.taken("Email is already registered"), nil
	}
	return ck.available("Email available"), nil
}

func (c *Firefox) baseURL() string {
	if c != nil && c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return "https://api.accounts.firefox.com"
}
