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

// Instagram checks username and email availability through the
// web_create_ajax attempt endpoint, authenticated with the csrf token
// issued on the landing page.
type Instagram struct {
	Env
	BaseURL string
}

var instagramTakenMessages = []string{"isn't available", "is taken", "belongs to an existing account"}

type instagramFieldError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Platform returns the static platform metadata.
func (c *Instagram) Platform() core.Platform {
	p, _ := core.FindPlatform(core.PlatformInstagram)
	return *p
}

// Check judges one username or email query.
func (c *Instagram) Check(ctx context.Context, query core.Query) (*core.CheckResult, error) {
	if c == nil {
		return nil, errors.New("instagram checker is not configured")
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
func (c *Instagram) WarmSession(ctx context.Context) error {
	if c == nil || c.Sessions == nil {
		return errors.New("instagram checker is not configured")
	}
	_, err := c.Sessions.GetOrCreate(ctx, core.PlatformInstagram, c.setup)
	return err
}

func (c *Instagram) setup(ctx context.Context) (*core.Session, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL()+"/", nil)
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
		return nil, errors.New("csrf cookie not issued on landing page")
	}
	return &core.Session{Values: map[string]string{
		"csrf":   token,
		"cookie": cookieHeader(resp),
	}}, nil
}

func (c *Instagram) submit(ck *check, session *core.Session) (*core.CheckResult, error) {
	field := "username"
	if ck.query.Kind == core.KindEmail {
		field = "email"
	}
	form := url.Values{field: {ck.query.Raw}}
	header := http.Header{}
	header.Set("X-CSRFToken", session.Value("csrf"))
	if cookie := session.Value("cookie"); cookie != "" {
		header.Set("Cookie", cookie)
	}

	resp, err := ck.postForm(c.baseURL()+"/accounts/web_create_ajax/attempt/", form, header)
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
		Status string `json:"status"`
		Errors struct {
			Username []instagramFieldError `json:"username"`
			Email    []instagramFieldError `json:"email"`
		} `json:"errors"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ck.unexpected(body), nil
	}
	if payload.Status == "fail" {
		message := payload.Message
		if message == "" {
			message = "platform rejected the request"
		}
		return ck.failure(message), nil
	}

	if ck.query.Kind == core.KindEmail {
		return c.judgeEmail(ck, payload.Errors.Email), nil
	}
	return c.judgeUsername(ck, payload.Errors.Username), nil
}

func (c *Instagram) judgeUsername(ck *check, errs []instagramFieldError) *core.CheckResult {
	if len(errs) == 0 {
		return ck.available("Username available")
	}
	e := errs[0]
	if strings.Contains(e.Code, "taken") || containsAny(e.Message, instagramTakenMessages) {
		return ck.taken(e.Message)
	}
	return ck.invalid(e.Message)
}

func (c *Instagram) judgeEmail(ck *check, errs []instagramFieldError) *core.CheckResult {
	if len(errs) == 0 {
		return ck.available("Email available")
	}
	e := errs[0]
	if e.Code == "invalid_email" {
		return ck.invalid(e.Message)
	}
	if strings.Contains(e.Code, "taken") || containsAny(e.Message, instagramTakenMessages) {
		return ck.taken(e.Message)
	}
	return ck.invalid(e.Message)
}

func (c *Instagram) baseURL() string {
	if c != nil && c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return "https://www.instagram.com"
}
