package ilppacket

import (
	"regexp"
	"strings"
)

// MaxAddressLength is the largest an encoded ILP address may be, in bytes.
const MaxAddressLength = 1023

// addressPattern matches the full ILP address grammar: a scheme segment
// drawn from the fixed set below, followed by zero or more dot-separated
// segments of [A-Za-z0-9_~-]+.
var addressPattern = regexp.MustCompile(
	`^(g|private|example|peer|self|test|test1|test2|test3|local)(\.[A-Za-z0-9_~-]+)*$`,
)

// Address is a validated ILP address: a dotted path up to 1023 bytes,
// ASCII-only, whose first segment names a routing scheme.
type Address string

// ParseAddress validates s as an ILP address.
func ParseAddress(s string) (Address, error) {
	if len(s) == 0 || len(s) > MaxAddressLength {
		return "", errInvalidAddress()
	}
	if !isASCII(s) {
		return "", errNotASCII()
	}
	if !addressPattern.MatchString(s) {
		return "", errInvalidAddress()
	}
	return Address(s), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

// String returns the address as a plain string.
func (a Address) String() string { return string(a) }

// StartsWith reports whether a begins with prefix as a byte-wise prefix
// (not necessarily on a segment boundary — routing tables match on raw
// byte prefixes per the ILP routing algorithm).
func (a Address) StartsWith(prefix string) bool {
	return strings.HasPrefix(string(a), prefix)
}

// IsPeerAddress reports whether this address is in the peer. scheme, which
// is never routable to accounts outside the current pair of connectors.
func (a Address) IsPeerAddress() bool {
	return a.StartsWith("peer.")
}

// WithSuffix appends a dot-separated segment, used when a connector hands
// a child its own address plus an account-specific suffix.
func (a Address) WithSuffix(segment string) (Address, error) {
	return ParseAddress(string(a) + "." + segment)
}
