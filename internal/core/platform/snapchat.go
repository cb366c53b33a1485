package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/handlescan/handlescan/internal/core"
	"github.com/handlescan/handlescan/internal/core/engine"
)

// Snapchat checks username availability through the suggestion endpoint
// behind the login page, authenticated with its xsrf token.
type Snapchat struct {
	Env
	BaseURL string
}

var snapchatTakenMessages = []string{"is already taken", "is currently unavailable"}

// Platform returns the static platform metadata.
func (c *Snapchat) Platform() core.Platform {
	p, _ := core.FindPlatform(core.PlatformSnapchat)
	return *p
}

// Check judges one username query.
func (c *Snapchat) Check(ctx context.Context, query core.Query) (*core.CheckResult, error) {
	if c == nil {
		return nil, errors.New("snapchat checker is not configured")
	}

	ck := c.begin(ctx, query, c.Platform())
	if result := ck.validateLocal(); result != nil {
		return result, nil
	}
	return ck.withSession(c.setup, func(session *core.Session) (*core.CheckResult, error) {
		return c.submit(ck, session)
	})
}

// WarmSession acquires an xsrf token ahead of the first check.
func (c *Snapchat) WarmSession(ctx context.Context) error {
	if c == nil || c.Sessions == nil {
		return errors.New("snapchat checker is not configured")
	}
	_, err := c.Sessions.GetOrCreate(ctx, core.PlatformSnapchat, c.setup)
	return err
}

func (c *Snapchat) setup(ctx context.Context) (*core.Session, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL()+"/accounts/login", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if _, err := readBody(resp); err != nil {
		return nil, err
	}

	token, ok := cookieValue(resp, "xsrf_token")
	if !ok || token == "" {
		return nil, errors.New("xsrf cookie not issued on login page")
	}
	return &core.Session{Values: map[string]string{
		"xsrf":   token,
		"cookie": cookieHeader(resp),
	}}, nil
}

func (c *Snapchat) submit(ck *check, session *core.Session) (*core.CheckResult, error) {
	form := url.Values{
		"requested_username": {ck.query.Raw},
		"xsrf_token":         {session.Value("xsrf")},
	}
	header := http.Header{}
	if cookie := session.Value("cookie"); cookie != "" {
		header.Set("Cookie", cookie)
	}

	resp, err := ck.postForm(c.baseURL()+"/accounts/get_username_suggestions", form, header)
	if err != nil {
		return nil, err
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusForbidden {
		return nil, engine.ErrStaleSession
	}

	var payload struct {
		Reference struct {
			StatusCode   string `json:"status_code"`
			ErrorMessage string `json:"error_message"`
		} `json:"reference"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ck.unexpected(body), nil
	}
	ref := payload.Reference
	if containsAny(ref.ErrorMessage, snapchatTakenMessages) {
		return ck.taken(ref.ErrorMessage), nil
	}
	if ref.StatusCode == "OK" {
		return ck.available("Username available"), nil
	}
	if ref.ErrorMessage != "" {
		return ck.invalid(ref.ErrorMessage), nil
	}
	return ck.unexpected(body), nil
}

func (c *Snapchat) baseURL() string {
	if c != nil && c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return "https://accounts.snapchat.com"
}
