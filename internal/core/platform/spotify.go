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

// Spotify checks email availability through the public signup
// validation endpoint.
type Spotify struct {
	Env
	BaseURL string
}

// Status values the validator answers with.
const (
	spotifyStatusOK    = 1
	spotifyStatusTaken = 20
)

// Platform returns the static platform metadata.
func (c *Spotify) Platform() core.Platform {
	p, _ := core.FindPlatform(core.PlatformSpotify)
	return *p
}

// Check judges one email query.
func (c *Spotify) Check(ctx context.Context, query core.Query) (*core.CheckResult, error) {
	if c == nil {
		return nil, errors.New("spotify checker is not configured")
	}

	ck := c.begin(ctx, query, c.Platform())
	if result := ck.validateLocal(); result != nil {
		return result, nil
	}

	reqURL := c.baseURL() + "/signup/public/v1/account?validate=1&email=" + url.QueryEscape(query.Raw)
	resp, err := ck.get(reqURL, nil)
	if err != nil {
		return ck.failure(err.Error()), nil
	}
	body, err := readBody(resp)
	if err != nil {
		return ck.failure(err.Error()), nil
	}

	var payload struct {
		Status int               `json:"status"`
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ck.unexpected(body), nil
	}
	switch payload.Status {
	case spotifyStatusOK:
		return ck.available("Email available"), nil
	case spotifyStatusTaken:
		message := payload.Errors["email"]
		if message == "" {
			message = "That email is already registered"
		}
		return ck.taken(message), nil
	default:
		return ck.failure(fmt.Sprintf("unexpected validation status %d", payload.Status)), nil
	}
}

func (c *Spotify) baseURL() string {
	if c != nil && c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return "https://spclient.wg.spotify.com"
}
