package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/handlescan/handlescan/internal/core"
)

// Pinterest checks email availability through the EmailExists resource
// the signup flow consults.
type Pinterest struct {
	Env
	BaseURL string
}

// Platform returns the static platform metadata.
func (c *Pinterest) Platform() core.Platform {
	p, _ := core.FindPlatform(core.PlatformPinterest)
	return *p
}

// Check judges one email query.
func (c *Pinterest) Check(ctx context.Context, query core.Query) (*core.CheckResult, error) {
	if c == nil {
		return nil, errors.New("pinterest checker is not configured")
	}

	ck := c.begin(ctx, query, c.Platform())
	if result := ck.validateLocal(); result != nil {
		return result, nil
	}

	data, err := json.Marshal(map[string]any{
		"options": map[string]any{"email": query.Raw},
		"context": map[string]any{},
	})
	if err != nil {
		return ck.failure(fmt.Sprintf("encode request: %v", err)), nil
	}
	params := url.Values{
		"source_url": {"/"},
		"data":       {string(data)},
	}

	reqURL := c.baseURL() + "/_ngjs/resource/EmailExistsResource/get/?" + params.Encode()
	resp, err := ck.get(reqURL, nil)
	if err != nil {
		return ck.failure(err.Error()), nil
	}
	body, err := readBody(resp)
	if err != nil {
		return ck.failure(err.Error()), nil
	}

	var payload struct {
		ResourceResponse *struct {
			Data *bool `json:"data"`
		} `json:"resource_response"`
	}
	if err := json.Unmarshal(body, &payload); err != nil ||
		payload.ResourceResponse == nil || payload.ResourceResponse.Data == nil {
		return ck.unexpected(body), nil
	}
	if *payload.ResourceResponse.Data {
		return ck.taken("Email is already registered"), nil
	}
	return ck.available("Email available"), nil
}

func (c *Pinterest) baseURL() string {
	if c != nil && c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return "https://www.pinterest.com"
}
