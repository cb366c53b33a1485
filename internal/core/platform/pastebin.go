package platform

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/handlescan/handlescan/internal/core"
)

// Pastebin checks username and email availability through the ajax
// validators behind the signup form.
type Pastebin struct {
	Env
	BaseURL string
}

// Answers come back as a colored font tag, green for available and red
// for anything else.
var pastebinAnswerPattern = regexp.MustCompile(`<font color="(red|green)">([^<>]+)</font>`)

var pastebinTakenMessages = []string{"username not available!"}

const pastebinInvalidEmail = "Please use a valid email address."

// Platform returns the static platform metadata.
func (c *Pastebin) Platform() core.Platform {
	p, _ := core.FindPlatform(core.PlatformPastebin)
	return *p
}

// Check judges one username or email query.
func (c *Pastebin) Check(ctx context.Context, query core.Query) (*core.CheckResult, error) {
	if c == nil {
		return nil, errors.New("pastebin checker is not configured")
	}

	ck := c.begin(ctx, query, c.Platform())
	if result := ck.validateLocal(); result != nil {
		return result, nil
	}

	path, form := "/ajax/check_username.php", url.Values{"username": {query.Raw}}
	if query.Kind == core.KindEmail {
		path, form = "/ajax/check_email.php", url.Values{"email": {query.Raw}}
	}

	resp, err := ck.postForm(c.baseURL()+path, form, nil)
	if err != nil {
		return ck.failure(err.Error()), nil
	}
	body, err := readBody(resp)
	if err != nil {
		return ck.failure(err.Error()), nil
	}

	m := pastebinAnswerPattern.FindStringSubmatch(string(body))
	if m == nil {
		return ck.unexpected(body), nil
	}
	color, message := m[1], m[2]
	if color == "green" {
		return ck.available(message), nil
	}
	if query.Kind == core.KindEmail {
		if message == pastebinInvalidEmail {
			return ck.invalid(message), nil
		}
		return ck.taken(message), nil
	}
	if containsAny(message, pastebinTakenMessages) {
		return ck.taken(message), nil
	}
	return ck.invalid(message), nil
}

func (c *Pastebin) baseURL() string {
	if c != nil && c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return "https://pastebin.com"
}
