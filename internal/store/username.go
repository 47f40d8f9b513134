package store

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// usernamePattern enforces the wire-safe username shape: 2-32 Unicode
// word characters, matching the BTP/HTTP auth username grammar. Go's
// regexp \w is ASCII-only, so the class is spelled out explicitly.
var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_]{2,32}$`)

// NormalizeUsername applies NFKC normalization and casefolding before
// comparing or storing a username, so visually identical usernames from
// different clients collide rather than silently creating two accounts.
func NormalizeUsername(raw string) (string, error) {
	normalized := norm.NFKC.String(raw)
	folded := strings.ToLower(normalized)
	if !usernamePattern.MatchString(folded) {
		return "", fmt.Errorf("store: invalid username %q", raw)
	}
	return folded, nil
}
