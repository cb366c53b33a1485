package core

import (
	"regexp"
	"strings"
)

// emailPattern mirrors the shape the signup forms themselves accept: a
// printable local part, then dotted alphanumeric labels with interior
// hyphens.
var emailPattern = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@" +
	`[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,253}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,253}[a-zA-Z0-9])?)+$`)

// Classify decides whether raw is a username, an email address, or neither.
// Anything containing an @ must parse as a full email address; strings that
// are empty or contain whitespace match neither shape.
func Classify(raw string) Kind {
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return KindUnknown
	}
	if strings.Contains(raw, "@") {
		if emailPattern.MatchString(raw) {
			return KindEmail
		}
		return KindUnknown
	}
	return KindUsername
}

// EmailDomain extracts the domain part of an email-kind query.
func EmailDomain(raw string) string {
	at := strings.LastIndex(raw, "@")
	if at < 0 || at == len(raw)-1 {
		return ""
	}
	return strings.ToLower(raw[at+1:])
}

// Applicable reports whether the platform's validation flow can judge the
// query's kind at all. False means no network call is warranted.
func Applicable(q Query, p Platform) bool {
	return p.Accepts(q.Kind)
}
