package platform

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// acceptLanguage mirrors the header the signup pages themselves receive.
const acceptLanguage = "en-GB,en-US;q=0.9,en;q=0.8"

// maxBody caps how much of a reply is read; signup pages can be large but
// token extraction never needs more than this.
const maxBody = 2 << 20

func (e Env) newRequest(ctx context.Context, method, rawURL string, form url.Values) (*http.Request, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", e.userAgent())
	req.Header.Set("Accept-Language", acceptLanguage)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}

func (e Env) do(req *http.Request) (*http.Response, error) {
	return e.httpClient().Do(req)
}

func (ck *check) get(rawURL string, header http.Header) (*http.Response, error) {
	req, err := ck.env.newRequest(ck.ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	mergeHeader(req, header)
	return ck.do(req)
}

func (ck *check) postForm(rawURL string, form url.Values, header http.Header) (*http.Response, error) {
	req, err := ck.env.newRequest(ck.ctx, http.MethodPost, rawURL, form)
	if err != nil {
		return nil, err
	}
	mergeHeader(req, header)
	return ck.do(req)
}

func (ck *check) do(req *http.Request) (*http.Response, error) {
	resp, err := ck.env.do(req)
	if resp != nil {
		ck.statusCode = resp.StatusCode
	}
	return resp, err
}

// readBody drains and closes the response body.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

func mergeHeader(req *http.Request, header http.Header) {
	for key, values := range header {
		for _, value := range values {
			req.Header.Set(key, value)
		}
	}
}

// cookieHeader rebuilds a Cookie header from a setup response, so submit
// requests replay the cookies without a shared jar.
func cookieHeader(resp *http.Response) string {
	cookies := resp.Cookies()
	parts := make([]string, 0, len(cookies))
	for _, cookie := range cookies {
		if cookie.Name == "" {
			continue
		}
		parts = append(parts, cookie.Name+"="+cookie.Value)
	}
	return strings.Join(parts, "; ")
}

// cookieValue finds one cookie set by a response.
func cookieValue(resp *http.Response, name string) (string, bool) {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie.Value, true
		}
	}
	return "", false
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// stripTags flattens an HTML fragment into its text, for platforms that
// answer with markup instead of JSON.
func stripTags(fragment string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(fragment, ""))
}

// containsAny reports whether message carries any of the needles,
// case-insensitively; verdict matching tolerates casing drift.
func containsAny(message string, needles []string) bool {
	lowered := strings.ToLower(message)
	for _, needle := range needles {
		if strings.Contains(lowered, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
