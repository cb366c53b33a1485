package core

import "time"

// Kind classifies a raw query string.
type Kind string

const (
	KindUsername Kind = "username"
	KindEmail    Kind = "email"
	KindUnknown  Kind = "unknown"
)

// Query is an input string plus its classified kind. Immutable once built.
type Query struct {
	Raw  string `json:"query"`
	Kind Kind   `json:"kind"`
}

// NewQuery classifies raw and wraps it.
func NewQuery(raw string) Query {
	return Query{Raw: raw, Kind: Classify(raw)}
}

// Provenance captures metadata about how a check was resolved.
type Provenance struct {
	CheckID     string    `json:"check_id"`
	RequestedAt time.Time `json:"requested_at"`
	ResolvedAt  time.Time `json:"resolved_at"`
	StatusCode  int       `json:"status_code,omitempty"`
	Proxy       string    `json:"proxy,omitempty"`
	ToolVersion string    `json:"tool_version"`
}

// CheckResult is the normalized verdict for one (query, platform) pair.
// Success=false means the check did not complete and Valid/Available carry
// no meaning; Available is meaningful only when Success and Valid both hold.
type CheckResult struct {
	Query      string     `json:"query"`
	Kind       Kind       `json:"kind"`
	Platform   string     `json:"platform"`
	Success    bool       `json:"success"`
	Valid      bool       `json:"valid"`
	Available  bool       `json:"available"`
	Message    string     `json:"message,omitempty"`
	Link       string     `json:"link,omitempty"`
	Provenance Provenance `json:"provenance"`
}

// Session holds the artifacts one platform's setup step produced. Values is
// read-only after creation; a stale session is replaced whole, never patched.
type Session struct {
	Platform   string            `json:"platform"`
	Values     map[string]string `json:"values"`
	AcquiredAt time.Time         `json:"acquired_at"`
}

// Value reads a named artifact, tolerating nil sessions.
func (s *Session) Value(key string) string {
	if s == nil {
		return ""
	}
	return s.Values[key]
}

// Age reports how long ago the session was acquired.
func (s *Session) Age(now time.Time) time.Duration {
	if s == nil {
		return 0
	}
	return now.Sub(s.AcquiredAt)
}
