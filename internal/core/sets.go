package core

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Set groups platforms under one selectable name.
type Set struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Platforms   []string `yaml:"platforms" json:"platforms"`
}

// BuiltInSets provides the default platform groups bundled with HandleScan.
var BuiltInSets = []Set{
	{
		Name:        "all",
		Description: "Every supported platform",
		Platforms:   PlatformNames(),
	},
	{
		Name:        "code",
		Description: "Code hosting handles",
		Platforms:   []string{PlatformGitHub, PlatformGitLab},
	},
	{
		Name:        "social",
		Description: "Social handles",
		Platforms: []string{
			PlatformInstagram, PlatformReddit, PlatformSnapchat,
			PlatformTumblr, PlatformTwitter,
		},
	},
	{
		Name:        "email",
		Description: "Email-only account checks",
		Platforms:   []string{PlatformFirefox, PlatformPinterest, PlatformSpotify},
	},
}

type setsFile struct {
	Sets []Set `yaml:"sets"`
}

// LoadSetsFile reads user-defined platform sets from a YAML file. The file
// holds a top-level "sets" list; user sets shadow built-ins of the same name.
func LoadSetsFile(path string) ([]Set, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- Sets path is user-provided
	if err != nil {
		return nil, fmt.Errorf("read sets file: %w", err)
	}

	var parsed setsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse sets file %s: %w", path, err)
	}

	for _, set := range parsed.Sets {
		if strings.TrimSpace(set.Name) == "" {
			return nil, fmt.Errorf("sets file %s: set with empty name", path)
		}
		if len(set.Platforms) == 0 {
			return nil, fmt.Errorf("sets file %s: set %q lists no platforms", path, set.Name)
		}
		for _, member := range set.Platforms {
			if _, ok := FindPlatform(member); !ok {
				return nil, fmt.Errorf("sets file %s: set %q references unknown platform %q", path, set.Name, member)
			}
		}
	}

	return parsed.Sets, nil
}

// FindSet looks up a set by name, preferring user-defined sets over
// built-ins.
func FindSet(name string, userSets []Set) (*Set, bool) {
	needle := strings.TrimSpace(strings.ToLower(name))
	if needle == "" {
		return nil, false
	}
	for _, set := range userSets {
		if strings.EqualFold(set.Name, needle) {
			copied := set
			return &copied, true
		}
	}
	for _, set := range BuiltInSets {
		if strings.EqualFold(set.Name, needle) {
			copied := set
			return &copied, true
		}
	}
	return nil, false
}

// ExpandPlatformNames resolves a mix of platform and set names into a
// deduplicated platform list preserving first-occurrence order.
func ExpandPlatformNames(names []string, userSets []Set) ([]string, error) {
	seen := make(map[string]bool)
	resolved := make([]string, 0, len(names))

	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			resolved = append(resolved, name)
		}
	}

	for _, name := range names {
		if platform, ok := FindPlatform(name); ok {
			add(platform.Name)
			continue
		}
		if set, ok := FindSet(name, userSets); ok {
			for _, member := range set.Platforms {
				platform, ok := FindPlatform(member)
				if !ok {
					return nil, fmt.Errorf("set %q references unknown platform %q", set.Name, member)
				}
				add(platform.Name)
			}
			continue
		}
		return nil, fmt.Errorf("unknown platform or set %q", name)
	}

	return resolved, nil
}
