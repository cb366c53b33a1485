package platform

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/handlescan/handlescan/internal/core"
	"github.com/handlescan/handlescan/internal/core/engine"
)

// GitHub checks username and email availability through the
// signup_check endpoints behind the join page. Each check replays the
// authenticity tokens and cookies harvested from that page.
type GitHub struct {
	Env
	BaseURL string
}

// The join page embeds one auto-check element per field, each carrying
// its own authenticity token.
var githubTokenPattern = regexp.MustCompile(
	`(?s)<auto-check src="/signup_check/username.*?value="([^"]+)".*?<auto-check src="/signup_check/email.*?value="([^"]+)"`)

var githubTakenMessages = []string{"already taken", "unavailable", "not available"}

// Platform returns the static platform metadata.
func (c *GitHub) Platform() core.Platform {
	p, _ := core.FindPlatform(core.PlatformGitHub)
	return *p
}

// Check judges one username or email query.
func (c *GitHub) Check(ctx context.Context, query core.Query) (*core.CheckResult, error) {
	if c == nil {
		return nil, errors.New("github checker is not configured")
	}

	ck := c.begin(ctx, query, c.Platform())
	if result := ck.validateLocal(); result != nil {
		return result, nil
	}
	return ck.withSession(c.setup, func(session *core.Session) (*core.CheckResult, error) {
		return c.submit(ck, session)
	})
}

// WarmSession acquires signup tokens ahead of the first check.
func (c *GitHub) WarmSession(ctx context.Context) error {
	if c == nil || c.Sessions == nil {
		return errors.New("github checker is not configured")
	}
	_, err := c.Sessions.GetOrCreate(ctx, core.PlatformGitHub, c.setup)
	return err
}

func (c *GitHub) setup(ctx context.Context) (*core.Session, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL()+"/join", nil)
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

	m := githubTokenPattern.FindSubmatch(body)
	if m == nil {
		return nil, errors.New("signup tokens not found on join page")
	}
	return &core.Session{Values: map[string]string{
		"username_token": string(m[1]),
		"email_token":    string(m[2]),
		"cookie":         cookieHeader(resp),
	}}, nil
}

func (c *GitHub) submit(ck *check, session *core.Session) (*core.CheckResult, error) {
	path := "/signup_check/username"
	token := session.Value("username_token")
	if ck.query.Kind == core.KindEmail {
		path = "/signup_check/email"
		token = session.Value("email_token")
	}
	form := url.Values{
		"value":              {ck.query.Raw},
		"authenticity_token": {token},
	}
	header := http.Header{}
	if cookie := session.Value("cookie"); cookie != "" {
		header.Set("Cookie", cookie)
	}

	resp, err := ck.postForm(c.baseURL()+path, form, header)
	if err != nil {
		return nil, err
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		if ck.query.Kind == core.KindEmail {
			return ck.available("Email available"), nil
		}
		return ck.available("Username available"), nil
	case http.StatusUnprocessableEntity:
		message := stripTags(string(body))
		if containsAny(message, []string{"csrf", "authenticity"}) {
			return nil, engine.ErrStaleSession
		}
		if containsAny(message, githubTakenMessages) {
			return ck.taken(message), nil
		}
		return ck.invalid(message), nil
	case http.StatusTooManyRequests:
		return ck.failure("too many requests"), nil
	case http.StatusForbidden, http.StatusNotFound:
		return nil, engine.ErrStaleSession
	default:
		return ck.unexpected(body), nil
	}
}

func (c *GitHub) baseURL() string {
	if c != nil && c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return "https://github.com"
}
