package sdk

import "strings"

// Address is an opaque account id as handed to us by the host (alice.near, dao.sputnik, ...).
type Address string

const (
	minAccountIDLen = 2
	maxAccountIDLen = 64
)

// String returns the literal representation of the address.
// Example payload: sdk.Address("alice.near").String()
func (a Address) String() string {
	return string(a)
}

// IsEmpty is a tiny helper for optional account arguments.
func (a Address) IsEmpty() bool {
	return a == ""
}

// IsValid applies the usual account id rules: 2..64 chars, lower case alphanumerics
// separated by single '-', '_' or '.' characters.
// Example payload: sdk.Address("bob.dao").IsValid()
func (a Address) IsValid() bool {
	s := a.String()
	if len(s) < minAccountIDLen || len(s) > maxAccountIDLen {
		return false
	}
	lastSeparator := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			lastSeparator = false
		case c == '-' || c == '_' || c == '.':
			if lastSeparator {
				return false
			}
			lastSeparator = true
		default:
			return false
		}
	}
	return !lastSeparator
}

// IsSubAccountOf reports whether a lives under parent (x.dao is a sub account of dao).
func (a Address) IsSubAccountOf(parent Address) bool {
	return strings.HasSuffix(a.String(), "."+parent.String())
}
