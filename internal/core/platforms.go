package core

import (
	"fmt"
	"regexp"
	"strings"
)

// Platform names used in CLI selection, config, and results.
const (
	PlatformFirefox   = "firefox"
	PlatformGitHub    = "github"
	PlatformGitLab    = "gitlab"
	PlatformInstagram = "instagram"
	PlatformLastFM    = "lastfm"
	PlatformPastebin  = "pastebin"
	PlatformPinterest = "pinterest"
	PlatformReddit    = "reddit"
	PlatformSnapchat  = "snapchat"
	PlatformSpotify   = "spotify"
	PlatformTumblr    = "tumblr"
	PlatformTwitter   = "twitter"
	PlatformYahoo     = "yahoo"
)

// Platform is the static identity of one supported service: which query
// kinds its validation flow judges, whether a setup request must run first,
// and the username syntax its signup form advertises. Platforms are
// process-wide constants, never mutated.
type Platform struct {
	Name       string
	Kinds      []Kind
	NeedsSetup bool

	// Username syntax enforced locally before any network call. Zero
	// values mean the endpoint decides.
	MinLength      int
	MaxLength      int
	Pattern        *regexp.Regexp
	PatternMessage string

	// ProfileURL formats a username into its public page, when one exists.
	ProfileURL string
}

// Accepts reports whether the platform can judge queries of this kind.
func (p Platform) Accepts(kind Kind) bool {
	for _, k := range p.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ValidateUsername applies the platform's advertised syntax rules. The
// returned message is the human-readable reason when ok is false.
func (p Platform) ValidateUsername(name string) (bool, string) {
	if p.MinLength > 0 && len(name) < p.MinLength {
		return false, fmt.Sprintf("username must be at least %d characters", p.MinLength)
	}
	if p.MaxLength > 0 && len(name) > p.MaxLength {
		return false, fmt.Sprintf("username must be at most %d characters", p.MaxLength)
	}
	if p.Pattern != nil && !p.Pattern.MatchString(name) {
		msg := p.PatternMessage
		if msg == "" {
			msg = "username contains characters the platform does not accept"
		}
		return false, msg
	}
	return true, ""
}

// Link renders the public profile URL for a username, or "" when the
// platform has none.
func (p Platform) Link(username string) string {
	if p.ProfileURL == "" || username == "" {
		return ""
	}
	return fmt.Sprintf(p.ProfileURL, username)
}

var platforms = []Platform{
	{
		Name:  PlatformFirefox,
		Kinds: []Kind{KindEmail},
	},
	{
		Name:       PlatformGitHub,
		Kinds:      []Kind{KindUsername, KindEmail},
		NeedsSetup: true,
		MaxLength:  39,
		Pattern:    regexp.MustCompile(`^[a-zA-Z0-9]+(?:-[a-zA-Z0-9]+)*$`),
		PatternMessage: "username may only contain alphanumeric characters " +
			"or single hyphens, and cannot begin or end with a hyphen",
		ProfileURL: "https://github.com/%s",
	},
	{
		Name:           PlatformGitLab,
		Kinds:          []Kind{KindUsername},
		Pattern:        regexp.MustCompile(`^(?:[a-zA-Z0-9_.][a-zA-Z0-9_.-]*[a-zA-Z0-9_-]|[a-zA-Z0-9_])$`),
		PatternMessage: "Please create a username with only alphanumeric characters.",
		ProfileURL:     "https://gitlab.com/%s",
	},
	{
		Name:       PlatformInstagram,
		Kinds:      []Kind{KindUsername, KindEmail},
		NeedsSetup: true,
		MaxLength:  30,
		Pattern:    regexp.MustCompile(`^[a-zA-Z0-9._]+$`),
		ProfileURL: "https://www.instagram.com/%s",
	},
	{
		Name:       PlatformLastFM,
		Kinds:      []Kind{KindUsername, KindEmail},
		NeedsSetup: true,
		MinLength:  2,
		MaxLength:  15,
		Pattern:    regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`),
		PatternMessage: "username must begin with a letter and contain only " +
			"letters, numbers, underscores or hyphens",
		ProfileURL: "https://www.last.fm/user/%s",
	},
	{
		Name:       PlatformPastebin,
		Kinds:      []Kind{KindUsername, KindEmail},
		MaxLength:  20,
		ProfileURL: "https://pastebin.com/u/%s",
	},
	{
		Name:  PlatformPinterest,
		Kinds: []Kind{KindEmail},
	},
	{
		Name:       PlatformReddit,
		Kinds:      []Kind{KindUsername},
		MinLength:  3,
		MaxLength:  20,
		Pattern:    regexp.MustCompile(`^[\w-]+$`),
		ProfileURL: "https://www.reddit.com/user/%s",
	},
	{
		Name:       PlatformSnapchat,
		Kinds:      []Kind{KindUsername},
		NeedsSetup: true,
		MinLength:  3,
		MaxLength:  15,
		Pattern:    regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._-]*$`),
		ProfileURL: "https://www.snapchat.com/add/%s",
	},
	{
		Name:  PlatformSpotify,
		Kinds: []Kind{KindEmail},
	},
	{
		Name:       PlatformTumblr,
		Kinds:      []Kind{KindUsername, KindEmail},
		NeedsSetup: true,
		MaxLength:  32,
		Pattern:    regexp.MustCompile(`^[a-zA-Z0-9-]+$`),
		ProfileURL: "https://%s.tumblr.com",
	},
	{
		Name:       PlatformTwitter,
		Kinds:      []Kind{KindUsername, KindEmail},
		MaxLength:  15,
		Pattern:    regexp.MustCompile(`^\w+$`),
		ProfileURL: "https://twitter.com/%s",
	},
	{
		Name:       PlatformYahoo,
		Kinds:      []Kind{KindUsername},
		NeedsSetup: true,
		MinLength:  4,
		MaxLength:  32,
		Pattern:    regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.]*$`),
	},
}

// Platforms returns the full platform registry in display order.
func Platforms() []Platform {
	out := make([]Platform, len(platforms))
	copy(out, platforms)
	return out
}

// FindPlatform looks up a platform by name, case-insensitively.
func FindPlatform(name string) (*Platform, bool) {
	needle := strings.TrimSpace(strings.ToLower(name))
	if needle == "" {
		return nil, false
	}
	for _, p := range platforms {
		if p.Name == needle {
			copied := p
			return &copied, true
		}
	}
	return nil, false
}

// PlatformNames lists every registered platform name in display order.
func PlatformNames() []string {
	names := make([]string, 0, len(platforms))
	for _, p := range platforms {
		names = append(names, p.Name)
	}
	return names
}
