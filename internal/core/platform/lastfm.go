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

// LastFM checks username and email availability through the join form's
// partial validator, authenticated with the Django csrf token from the
// join page.
type LastFM struct {
	Env
	BaseURL string
}

var lastfmUsernameTaken = []string{"sorry, this username isn't available"}

var lastfmEmailTaken = []string{"already registered"}

type lastfmField struct {
	Valid          bool     `json:"valid"`
	SuccessMessage string   `json:"success_message"`
	ErrorMessages  []string `json:"error_messages"`
}

// Platform returns the static platform metadata.
func (c *LastFM) Platform() core.Platform {
	p, _ := core.FindPlatform(core.PlatformLastFM)
	return *p
}

// Check judges one username or email query.
func (c *LastFM) Check(ctx context.Context, query core.Query) (*core.CheckResult, error) {
	if c == nil {
		return nil, errors.New("lastfm checker is not configured")
	}

	ck := c.begin(ctx, query, c.Platform())
	if result := ck.validateLocal(); result != nil {
		return result, nil
	}
	return ck.withSession(c.setup, func(session *core.Session) (*core.CheckResult, error) {
		return c.submit(ck, session)
	})
}

// WarmSession acquires a csrf token ahead of the first check.
func (c *LastFM) WarmSession(ctx context.Context) error {
	if c == nil || c.Sessions == nil {
		return errors.New("lastfm checker is not configured")
	}
	_, err := c.Sessions.GetOrCreate(ctx, core.PlatformLastFM, c.setup)
	return err
}

func (c *LastFM) setup(ctx context.Context) (*core.Session, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL()+"/join", nil)
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

	token, ok := cookieValue(resp, "csrftoken")
	if !ok || token == "" {
		return nil, errors.New("csrf cookie not issued on join page")
	}
	return &core.Session{Values: map[string]string{
		"csrf":   token,
		"cookie": cookieHeader(resp),
	}}, nil
}

func (c *LastFM) submit(ck *check, session *core.Session) (*core.CheckResult, error) {
	form := url.Values{
		"csrfmiddlewaretoken": {session.Value("csrf")},
		"userName":            {""},
		"email":               {""},
	}
	if ck.query.Kind == core.KindEmail {
		form.Set("email", ck.query.Raw)
	} else {
		form.Set("userName", ck.query.Raw)
	}
	header := http.Header{}
	header.Set("Accept", "*/*")
	header.Set("Referer", c.baseURL()+"/join")
	header.Set("X-Requested-With", "XMLHttpRequest")
	if cookie := session.Value("cookie"); cookie != "" {
		header.Set("Cookie", cookie)
	}

	resp, err := ck.postForm(c.baseURL()+"/join/partial/validate", form, header)
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
		UserName *lastfmField `json:"userName"`
		Email    *lastfmField `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ck.unexpected(body), nil
	}

	if ck.query.Kind == core.KindEmail {
		if payload.Email == nil {
			return ck.unexpected(body), nil
		}
		return c.judge(ck, payload.Email, "Email available", lastfmEmailTaken), nil
	}
	if payload.UserName == nil {
		return ck.unexpected(body), nil
	}
	return c.judge(ck, payload.UserName, "Username available", lastfmUsernameTaken), nil
}

func (c *LastFM) judge(ck *check, field *lastfmField, fallback string, taken []string) *core.CheckResult {
	if field.Valid {
		message := field.SuccessMessage
		if message == "" {
			message = fallback
		}
		return ck.available(message)
	}
	message := "field was rejected"
	if len(field.ErrorMessages) > 0 {
		message = field.ErrorMessages[0]
	}
	if containsAny(message, taken) {
		return ck.taken(message)
	}
	return ck.invalid(message)
}

func (c *LastFM) baseURL() string {
	if c != nil && c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return "https://www.last.fm"
}
