package core

// validation.go holds the syntactic address check used by the normalizer.
//
// The check is structural only: at most 254 bytes overall, one '@', a dot-atom local part of at most 64
// bytes, a domain of at most 255 bytes made of labels no longer than 63 bytes
// and a top-level label starting with a letter. No DNS or mailbox lookups.

import (
	"regexp"
	"strings"
)

const (
	maxEmailLength  = 254
	maxLocalLength  = 64
	maxDomainLength = 255
	maxLabelLength  = 63
)

// emailRegex accepts dot-atom local parts and hostname domains with at least
// one dot.
var emailRegex = regexp.MustCompile("^[-!#$%&'*+/0-9=?A-Z^_a-z`{|}~](\\.?[-!#$%&'*+/0-9=?A-Z^_a-z`{|}~])*" +
	"@[a-zA-Z0-9](-*\\.?[a-zA-Z0-9])*\\.[a-zA-Z](-?[a-zA-Z0-9])+$")

// ValidEmail reports whether s is a syntactically well-formed address.
func ValidEmail(s string) bool {
	if s == "" || len(s) > maxEmailLength {
		return false
	}

	local, domain, ok := strings.Cut(s, "@")
	if !ok || strings.Contains(domain, "@") {
		return false
	}
	if len(local) > maxLocalLength || len(domain) > maxDomainLength {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if len(label) > maxLabelLength {
			return false
		}
	}

	return emailRegex.MatchString(s)
}
