package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/handlescan/handlescan/internal/core"
	"github.com/handlescan/handlescan/internal/core/engine"
)

// Tumblr checks username and email availability through the signup
// validator. The register form wants every field populated, so the
// fields not under test carry fixed filler values.
type Tumblr struct {
	Env
	BaseURL string
}

const (
	tumblrFillerEmail    = "hs7TqkcGy2VdPjm3@gmail.com"
	tumblrFillerUsername = "hs7TqkcGy2VdPjm3"
	tumblrFillerPassword = "phaeton-decoy-lamprey-4"
)

var tumblrFormKeyPattern = regexp.MustCompile(
	`<meta name="tumblr-form-key" id="tumblr_form_key" content="([^\s"]*)">`)

var tumblrTakenMessages = []string{"taken", "in use"}

const (
	tumblrEmailTaken   = "This email address is already in use."
	tumblrEmailInvalid = "This email address isn't correct. Please try again."
)

// Platform returns the static platform metadata.
func (c *Tumblr) Platform() core.Platform {
	p, _ := core.FindPlatform(core.PlatformTumblr)
	return *p
}

// Check judges one username or email query.
func (c *Tumblr) Check(ctx context.Context, query core.Query) (*core.CheckResult, error) {
	if c == nil {
		return nil, errors.New("tumblr checker is not configured")
	}

	ck := c.begin(ctx, query, c.Platform())
	if result := ck.validateLocal(); result != nil {
		return result, nil
	}
	return ck.withSession(c.setup, func(session *core.Session) (*core.CheckResult, error) {
		return c.submit(ck, session)
	})
}

// WarmSession acquires a form key ahead of the first check.
func (c *Tumblr) WarmSession(ctx context.Context) error {
	if c == nil || c.Sessions == nil {
		return errors.New("tumblr checker is not configured")
	}
	_, err := c.Sessions.GetOrCreate(ctx, core.PlatformTumblr, c.setup)
	return err
}

func (c *Tumblr) setup(ctx context.Context) (*core.Session, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL()+"/register", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	m := tumblrFormKeyPattern.FindSubmatch(body)
	if m == nil || len(m[1]) == 0 {
		return nil, errors.New("form key not found on register page")
	}
	return &core.Session{Values: map[string]string{
		"form_key": string(m[1]),
		"cookie":   cookieHeader(resp),
	}}, nil
}

func (c *Tumblr) submit(ck *check, session *core.Session) (*core.CheckResult, error) {
	email, name := tumblrFillerEmail, ck.query.Raw
	if ck.query.Kind == core.KindEmail {
		email, name = ck.query.Raw, tumblrFillerUsername
	}
	form := url.Values{
		"action":          {"signup_account"},
		"form_key":        {session.Value("form_key")},
		"user[email]":     {email},
		"user[password]":  {tumblrFillerPassword},
		"tumblelog[name]": {name},
	}
	header := http.Header{}
	if cookie := session.Value("cookie"); cookie != "" {
		header.Set("Cookie", cookie)
	}

	resp, err := ck.postForm(c.baseURL()+"/svc/account/register", form, header)
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
		Errors   []string `json:"errors"`
		Response struct {
			Errors []string `json:"errors"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ck.unexpected(body), nil
	}
	errs := payload.Errors
	if len(errs) == 0 {
		errs = payload.Response.Errors
	}
	if len(errs) == 0 {
		if ck.query.Kind == core.KindEmail {
			return ck.available("Email available"), nil
		}
		return ck.available("Username available"), nil
	}

	message := errs[0]
	if ck.query.Kind == core.KindEmail {
		switch message {
		case tumblrEmailTaken:
			return ck.taken(message), nil
		case tumblrEmailInvalid:
			return ck.invalid(message), nil
		}
		if containsAny(message, tumblrTakenMessages) {
			return ck.taken(message), nil
		}
		return ck.invalid(message), nil
	}
	if containsAny(message, tumblrTakenMessages) {
		return ck.taken(message), nil
	}
	return ck.invalid(message), nil
}

func (c *Tumblr) baseURL() string {
	if c != nil && c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return "https://www.tumblr.com"
}
