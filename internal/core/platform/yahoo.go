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

// Yahoo checks username availability through the account-creation
// module's field validator, authenticated with the acrumb value
// embedded in the AS cookie.
type Yahoo struct {
	Env
	BaseURL string
}

var yahooAcrumbPattern = regexp.MustCompile(`v=1&s=([^\s;]*)`)

// The validator answers with machine codes; these are the signup
// page's wordings for the ones seen in practice.
var yahooErrorDescriptions = map[string]string{
	"IDENTIFIER_EXISTS":                   "This username already exists",
	"RESERVED_WORD_PRESENT":               "A reserved word is present in the username",
	"FIELD_EMPTY":                         "This field is mandatory",
	"SOME_SPECIAL_CHARACTERS_NOT_ALLOWED": "Some special characters are not allowed",
}

var yahooTakenCodes = map[string]bool{
	"IDENTIFIER_EXISTS":     true,
	"RESERVED_WORD_PRESENT": true,
}

// Platform returns the static platform metadata.
func (c *Yahoo) Platform() core.Platform {
	p, _ := core.FindPlatform(core.PlatformYahoo)
	return *p
}

// Check judges one username query.
func (c *Yahoo) Check(ctx context.Context, query core.Query) (*core.CheckResult, error) {
	if c == nil {
		return nil, errors.New("yahoo checker is not configured")
	}

	ck := c.begin(ctx, query, c.Platform())
	if result := ck.validateLocal(); result != nil {
		return result, nil
	}
	return ck.withSession(c.setup, func(session *core.Session) (*core.CheckResult, error) {
		return c.submit(ck, session)
	})
}

// WarmSession acquires an acrumb ahead of the first check.
func (c *Yahoo) WarmSession(ctx context.Context) error {
	if c == nil || c.Sessions == nil {
		return errors.New("yahoo checker is not configured")
	}
	_, err := c.Sessions.GetOrCreate(ctx, core.PlatformYahoo, c.setup)
	return err
}

func (c *Yahoo) setup(ctx context.Context) (*core.Session, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL()+"/account/create", nil)
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

	as, ok := cookieValue(resp, "AS")
	if !ok {
		return nil, errors.New("AS cookie not issued on account-create page")
	}
	m := yahooAcrumbPattern.FindStringSubmatch(as)
	if m == nil || m[1] == "" {
		return nil, errors.New("acrumb not found in AS cookie")
	}
	return &core.Session{Values: map[string]string{
		"acrumb": m[1],
		"cookie": cookieHeader(resp),
	}}, nil
}

func (c *Yahoo) submit(ck *check, session *core.Session) (*core.CheckResult, error) {
	form := url.Values{
		"specId": {"yidReg"},
		"acrumb": {session.Value("acrumb")},
		"yid":    {ck.query.Raw},
	}
	header := http.Header{}
	header.Set("X-Requested-With", "XMLHttpRequest")
	if cookie := session.Value("cookie"); cookie != "" {
		header.Set("Cookie", cookie)
	}

	resp, err := ck.postForm(c.baseURL()+"/account/module/create?validateField=yid", form, header)
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
		Errors []struct {
			Name  string `json:"name"`
			Error string `json:"error"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ck.unexpected(body), nil
	}
	for _, e := range payload.Errors {
		if e.Name != "yid" {
			continue
		}
		message := yahooErrorDescriptions[e.Error]
		if message == "" {
			message = e.Error
		}
		if yahooTakenCodes[e.Error] {
			return ck.taken(message), nil
		}
		return ck.invalid(message), nil
	}
	return ck.available("Username available"), nil
}

func (c *Yahoo) baseURL() string {
	if c != nil && c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return "https://login.yahoo.com"
}
