package contract

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"sputnik_dao/sdk"
)

// -----------------------------------------------------------------------------
// Role kinds
// -----------------------------------------------------------------------------

// RoleKindType tags a RoleKind.
type RoleKindType uint8

const (
	KindEveryone RoleKindType = iota
	KindMember
	KindGroup
)

// RoleKind decides who belongs to a role: everybody, holders of at least MinWeight
// delegated weight, or an explicit account set.
type RoleKind struct {
	Type      RoleKindType
	MinWeight sdk.Balance
	// Group is kept sorted and free of duplicates.
	Group []sdk.Address
}

// Everyone matches every account.
func Everyone() RoleKind { return RoleKind{Type: KindEveryone} }

// Member matches accounts with at least min delegated weight.
func Member(min sdk.Balance) RoleKind { return RoleKind{Type: KindMember, MinWeight: min} }

// Group matches the listed accounts.
// Example payload: Group("alice.near", "bob.near")
func Group(accounts ...sdk.Address) RoleKind {
	k := RoleKind{Type: KindGroup}
	for _, a := range accounts {
		k.addMember(a)
	}
	return k
}

// Match reports whether user belongs to the role.
func (k RoleKind) Match(user UserInfo) bool {
	switch k.Type {
	case KindEveryone:
		return true
	case KindMember:
		return user.Amount.Gte(k.MinWeight)
	case KindGroup:
		return k.has(user.Account)
	}
	return false
}

// RoleSize is the member count of a group, nil for open roles.
func (k RoleKind) RoleSize() (uint64, bool) {
	if k.Type != KindGroup {
		return 0, false
	}
	return uint64(len(k.Group)), true
}

func (k RoleKind) has(a sdk.Address) bool {
	i := sort.Search(len(k.Group), func(i int) bool { return k.Group[i] >= a })
	return i < len(k.Group) && k.Group[i] == a
}

func (k *RoleKind) addMember(a sdk.Address) bool {
	i := sort.Search(len(k.Group), func(i int) bool { return k.Group[i] >= a })
	if i < len(k.Group) && k.Group[i] == a {
		return false
	}
	k.Group = append(k.Group, "")
	copy(k.Group[i+1:], k.Group[i:])
	k.Group[i] = a
	return true
}

func (k *RoleKind) removeMember(a sdk.Address) bool {
	i := sort.Search(len(k.Group), func(i int) bool { return k.Group[i] >= a })
	if i >= len(k.Group) || k.Group[i] != a {
		return false
	}
	k.Group = append(k.Group[:i], k.Group[i+1:]...)
	return true
}

func (k RoleKind) clone() RoleKind {
	out := k
	out.Group = append([]sdk.Address(nil), k.Group...)
	return out
}

// -----------------------------------------------------------------------------
// Roles
// -----------------------------------------------------------------------------

// RolePermission is one named role inside the policy.
type RolePermission struct {
	Name        string
	Kind        RoleKind
	Permissions []string
	// VotePolicy overrides the default vote policy per proposal kind label.
	VotePolicy map[string]VotePolicy
}

func (r RolePermission) votePolicyFor(label string, fallback VotePolicy) VotePolicy {
	if vp, ok := r.VotePolicy[label]; ok {
		return vp
	}
	return fallback
}

func (r RolePermission) clone() RolePermission {
	out := r
	out.Kind = r.Kind.clone()
	out.Permissions = append([]string(nil), r.Permissions...)
	out.VotePolicy = make(map[string]VotePolicy, len(r.VotePolicy))
	for k, v := range r.VotePolicy {
		out.VotePolicy[k] = v
	}
	return out
}

func (r RolePermission) validate() error {
	name := strings.TrimSpace(r.Name)
	if name == "" || len(name) > MaxRoleNameLength {
		return errors.Wrapf(ErrInvalidRole, "role name %q", r.Name)
	}
	for _, a := range r.Kind.Group {
		if !a.IsValid() {
			return errors.Wrapf(ErrInvalidAccountID, "role %s member %q", r.Name, a)
		}
	}
	for _, p := range r.Permissions {
		if _, err := ParsePermission(p); err != nil {
			return errors.Wrapf(err, "role %s", r.Name)
		}
	}
	for label, vp := range r.VotePolicy {
		if err := vp.Threshold.validate(); err != nil {
			return errors.Wrapf(err, "role %s label %s", r.Name, label)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Policy
// -----------------------------------------------------------------------------

// Policy is the governance configuration of the DAO.
type Policy struct {
	// Roles is ordered; status resolution stops at the first role crossing its threshold.
	Roles             []RolePermission
	DefaultVotePolicy VotePolicy
	ProposalBond      sdk.Balance
	// ProposalPeriod is in nanoseconds.
	ProposalPeriod uint64
	BountyBond     sdk.Balance
	// BountyForgivenessPeriod is in nanoseconds.
	BountyForgivenessPeriod uint64
}

// PolicyParameters is a partial update of the numeric policy fields.
type PolicyParameters struct {
	ProposalBond            *sdk.Balance
	ProposalPeriod          *uint64
	BountyBond              *sdk.Balance
	BountyForgivenessPeriod *uint64
}

// DefaultPolicy is what a plain council list expands into: everyone may propose, the
// council may do everything else, one council vote more than half wins.
func DefaultPolicy(council []sdk.Address) Policy {
	return Policy{
		Roles: []RolePermission{
			{
				Name:        RoleAll,
				Kind:        Everyone(),
				Permissions: []string{"*:AddProposal"},
				VotePolicy:  map[string]VotePolicy{},
			},
			{
				Name: RoleCouncil,
				Kind: Group(council...),
				Permissions: []string{
					"*:AddProposal",
					"*:Finalize",
					"*:VoteApprove",
					"*:VoteReject",
					"*:VoteRemove",
				},
				VotePolicy: map[string]VotePolicy{},
			},
		},
		DefaultVotePolicy:       DefaultVotePolicy(),
		ProposalBond:            DefaultProposalBond,
		ProposalPeriod:          DefaultProposalPeriod,
		BountyBond:              DefaultBountyBond,
		BountyForgivenessPeriod: DefaultBountyForgivenessPeriod,
	}
}

// Clone deep copies the policy so mutations never leak into a cached value.
func (p Policy) Clone() Policy {
	out := p
	out.Roles = make([]RolePermission, len(p.Roles))
	for i, r := range p.Roles {
		out.Roles[i] = r.clone()
	}
	return out
}

// Validate runs the structural checks a policy must pass before it is stored.
func (p Policy) Validate() error {
	if len(p.Roles) == 0 {
		return errors.Wrap(ErrInvalidPolicy, "policy has no roles")
	}
	seen := make(map[string]struct{}, len(p.Roles))
	for _, r := range p.Roles {
		if err := r.validate(); err != nil {
			return err
		}
		if _, dup := seen[r.Name]; dup {
			return errors.Wrapf(ErrInvalidRole, "duplicate role %s", r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return p.DefaultVotePolicy.Threshold.validate()
}

// Role looks a role up by name.
func (p Policy) Role(name string) (RolePermission, bool) {
	for _, r := range p.Roles {
		if r.Name == name {
			return r, true
		}
	}
	return RolePermission{}, false
}

// UserRoles returns the names of all roles the user matches, in policy order.
func (p Policy) UserRoles(user UserInfo) []string {
	out := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		if r.Kind.Match(user) {
			out = append(out, r.Name)
		}
	}
	return out
}

// CanExecute returns every matching role that grants action on kindLabel, in policy
// order, and whether any of them did.
func (p Policy) CanExecute(user UserInfo, kindLabel string, action Action) ([]string, bool) {
	var roles []string
	for _, r := range p.Roles {
		if !r.Kind.Match(user) {
			continue
		}
		if allows(r.Permissions, kindLabel, action) {
			roles = append(roles, r.Name)
		}
	}
	return roles, len(roles) > 0
}

// RoleNames lists every role, in policy order.
func (p Policy) RoleNames() []string {
	out := make([]string, len(p.Roles))
	for i, r := range p.Roles {
		out[i] = r.Name
	}
	return out
}

// ProposalStatus re-derives the status of an open proposal. Expiry wins over tallies.
// Otherwise roles are walked in the given order (the caller passes them in policy order)
// and the first role whose approve, reject or remove tally reaches its threshold decides.
// Everyone roles have no finite basis and are skipped.
func (p Policy) ProposalStatus(prop *Proposal, roles []string, totalSupply sdk.Balance, now uint64) (ProposalStatus, error) {
	if !prop.Status.IsOpen() {
		return prop.Status, ErrProposalNotInProgress
	}
	if prop.SubmissionTime+p.ProposalPeriod < now {
		return StatusExpired, nil
	}
	label := prop.Kind.Label()
	for _, name := range roles {
		role, ok := p.Role(name)
		if !ok {
			return prop.Status, errors.Wrapf(ErrMissingRole, "role %s", name)
		}
		if role.Kind.Type == KindEveryone {
			continue
		}
		vp := role.votePolicyFor(label, p.DefaultVotePolicy)
		total := totalSupply
		if size, isGroup := role.Kind.RoleSize(); isGroup && vp.WeightKind == RoleWeight {
			total = sdk.NewBalance(size)
		}
		threshold := vp.thresholdFor(total)
		tally := prop.VoteCounts[name]
		switch {
		case tally[VoteApprove].Gte(threshold):
			return StatusApproved, nil
		case tally[VoteReject].Gte(threshold):
			return StatusRejected, nil
		case tally[VoteRemove].Gte(threshold):
			return StatusRemoved, nil
		}
	}
	return prop.Status, nil
}

// isTokenWeighted tells whether a vote in role counts delegated weight for label.
func (p Policy) isTokenWeighted(role, label string) bool {
	r, ok := p.Role(role)
	if !ok {
		return false
	}
	return r.votePolicyFor(label, p.DefaultVotePolicy).WeightKind == TokenWeight
}

// -----------------------------------------------------------------------------
// Mutations
// -----------------------------------------------------------------------------

var (
	errRoleNotFound  = errors.New("ERR_ROLE_NOT_FOUND")
	errRoleWrongKind = errors.New("ERR_ROLE_WRONG_KIND")
)

// AddOrUpdateRole replaces the role with the same name or appends it.
func (p *Policy) AddOrUpdateRole(role RolePermission) {
	for i := range p.Roles {
		if p.Roles[i].Name == role.Name {
			p.Roles[i] = role.clone()
			return
		}
	}
	p.Roles = append(p.Roles, role.clone())
}

// RemoveRole drops the role. Returns false when there was nothing to drop.
func (p *Policy) RemoveRole(name string) bool {
	for i := range p.Roles {
		if p.Roles[i].Name == name {
			p.Roles = append(p.Roles[:i], p.Roles[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateDefaultVotePolicy swaps the fallback vote policy.
func (p *Policy) UpdateDefaultVotePolicy(vp VotePolicy) {
	p.DefaultVotePolicy = vp
}

// UpdateParameters applies the fields that are set.
func (p *Policy) UpdateParameters(params PolicyParameters) {
	if params.ProposalBond != nil {
		p.ProposalBond = *params.ProposalBond
	}
	if params.ProposalPeriod != nil {
		p.ProposalPeriod = *params.ProposalPeriod
	}
	if params.BountyBond != nil {
		p.BountyBond = *params.BountyBond
	}
	if params.BountyForgivenessPeriod != nil {
		p.BountyForgivenessPeriod = *params.BountyForgivenessPeriod
	}
}

// AddMemberToRole adds member to a group role. Unknown or non group roles come back as
// an error the executor logs, the proposal itself still succeeds.
func (p *Policy) AddMemberToRole(role string, member sdk.Address) error {
	for i := range p.Roles {
		if p.Roles[i].Name != role {
			continue
		}
		if p.Roles[i].Kind.Type != KindGroup {
			return errors.Wrap(errRoleWrongKind, role)
		}
		p.Roles[i].Kind.addMember(member)
		return nil
	}
	return errors.Wrap(errRoleNotFound, role)
}

// RemoveMemberFromRole is the inverse of AddMemberToRole with the same error rules.
func (p *Policy) RemoveMemberFromRole(role string, member sdk.Address) error {
	for i := range p.Roles {
		if p.Roles[i].Name != role {
			continue
		}
		if p.Roles[i].Kind.Type != KindGroup {
			return errors.Wrap(errRoleWrongKind, role)
		}
		p.Roles[i].Kind.removeMember(member)
		return nil
	}
	return errors.Wrap(errRoleNotFound, role)
}

// -----------------------------------------------------------------------------
// Versioned policy
// -----------------------------------------------------------------------------

// VersionedPolicy is what callers may hand in: the legacy council list shorthand or a
// full policy. Only the upgraded form is ever persisted.
type VersionedPolicy struct {
	Legacy  []sdk.Address
	Current *Policy
}

// CurrentPolicy wraps a structured policy.
func CurrentPolicy(p Policy) VersionedPolicy {
	return VersionedPolicy{Current: &p}
}

// LegacyPolicy wraps a council list.
func LegacyPolicy(council ...sdk.Address) VersionedPolicy {
	return VersionedPolicy{Legacy: council}
}

// IsCurrent is true for the structured variant.
func (v VersionedPolicy) IsCurrent() bool { return v.Current != nil }

// Upgrade normalizes into a Policy, expanding a council list into DefaultPolicy.
func (v VersionedPolicy) Upgrade() Policy {
	if v.Current != nil {
		return v.Current.Clone()
	}
	return DefaultPolicy(v.Legacy)
}
