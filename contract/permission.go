package contract

import (
	"strings"

	"github.com/pkg/errors"
)

const wildcard = "*"

// Permission is a parsed "<kind>:<action>" grant. A nil side is a wildcard, so "*:*"
// and "transfer:*" never need string concatenation to compare.
type Permission struct {
	Kind   *string
	Action *string
}

// ParsePermission splits a permission string on the single colon.
// Example payload: ParsePermission("transfer:VoteApprove")
func ParsePermission(s string) (Permission, error) {
	kind, action, ok := strings.Cut(s, ":")
	if !ok || kind == "" || action == "" || strings.Contains(action, ":") {
		return Permission{}, errors.Wrapf(ErrInvalidPermission, "permission %q", s)
	}
	var p Permission
	if kind != wildcard {
		p.Kind = &kind
	}
	if action != wildcard {
		p.Action = &action
	}
	return p, nil
}

// Matches reports whether the grant covers kindLabel and action.
func (p Permission) Matches(kindLabel string, action Action) bool {
	if p.Kind != nil && *p.Kind != kindLabel {
		return false
	}
	if p.Action != nil && *p.Action != action.Label() {
		return false
	}
	return true
}

func (p Permission) String() string {
	kind, action := wildcard, wildcard
	if p.Kind != nil {
		kind = *p.Kind
	}
	if p.Action != nil {
		action = *p.Action
	}
	return kind + ":" + action
}

// allows scans a role's raw permission strings. Malformed entries never grant anything.
func allows(perms []string, kindLabel string, action Action) bool {
	for _, raw := range perms {
		p, err := ParsePermission(raw)
		if err != nil {
			continue
		}
		if p.Matches(kindLabel, action) {
			return true
		}
	}
	return false
}
