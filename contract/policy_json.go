package contract

import (
	"sort"

	"github.com/CosmWasm/tinyjson"
	"github.com/CosmWasm/tinyjson/jlexer"
	"github.com/CosmWasm/tinyjson/jwriter"
	"github.com/pkg/errors"

	"sputnik_dao/sdk"
)

// Balances and nanosecond periods travel as decimal strings so javascript callers
// never lose precision.

func writeBalanceJSON(w *jwriter.Writer, b sdk.Balance) {
	w.String(b.String())
}

func readBalanceJSON(l *jlexer.Lexer) sdk.Balance {
	s := l.String()
	b, err := sdk.ParseBalance(s)
	if err != nil {
		l.AddError(err)
	}
	return b
}

// openObject handles the null and top level bookkeeping every object decoder needs and
// reports whether there is an object to read.
func openObject(l *jlexer.Lexer) bool {
	if l.IsNull() {
		l.Skip()
		return false
	}
	l.Delim('{')
	return true
}

// eachField walks the remaining fields of an object, skipping null values.
func eachField(l *jlexer.Lexer, fn func(key string)) {
	for !l.IsDelim('}') {
		key := l.UnsafeFieldName(false)
		l.WantColon()
		if l.IsNull() {
			l.Skip()
			l.WantComma()
			continue
		}
		fn(key)
		l.WantComma()
	}
	l.Delim('}')
}

// -----------------------------------------------------------------------------
// Vote policy
// -----------------------------------------------------------------------------

func (t WeightOrRatio) MarshalTinyJSON(w *jwriter.Writer) {
	if !t.IsRatio {
		writeBalanceJSON(w, t.Weight)
		return
	}
	w.RawByte('[')
	w.Uint64(t.Num)
	w.RawByte(',')
	w.Uint64(t.Denom)
	w.RawByte(']')
}

func (t *WeightOrRatio) UnmarshalTinyJSON(l *jlexer.Lexer) {
	if !l.IsDelim('[') {
		*t = Weight(readBalanceJSON(l))
		return
	}
	l.Delim('[')
	num := l.Uint64()
	l.WantComma()
	denom := l.Uint64()
	l.WantComma()
	l.Delim(']')
	*t = Ratio(num, denom)
}

func (vp VotePolicy) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"weight_kind":`)
	w.String(vp.WeightKind.String())
	w.RawString(`,"quorum":`)
	writeBalanceJSON(w, vp.Quorum)
	w.RawString(`,"threshold":`)
	vp.Threshold.MarshalTinyJSON(w)
	w.RawByte('}')
}

func (vp *VotePolicy) UnmarshalTinyJSON(l *jlexer.Lexer) {
	*vp = DefaultVotePolicy()
	if !openObject(l) {
		return
	}
	eachField(l, func(key string) {
		switch key {
		case "weight_kind":
			switch s := l.String(); s {
			case "TokenWeight":
				vp.WeightKind = TokenWeight
			case "RoleWeight":
				vp.WeightKind = RoleWeight
			default:
				l.AddError(errors.Errorf("unknown weight kind %q", s))
			}
		case "quorum":
			vp.Quorum = readBalanceJSON(l)
		case "threshold":
			vp.Threshold.UnmarshalTinyJSON(l)
		default:
			l.SkipRecursive()
		}
	})
}

// -----------------------------------------------------------------------------
// Roles
// -----------------------------------------------------------------------------

func (k RoleKind) MarshalTinyJSON(w *jwriter.Writer) {
	switch k.Type {
	case KindMember:
		w.RawString(`{"Member":`)
		writeBalanceJSON(w, k.MinWeight)
		w.RawByte('}')
	case KindGroup:
		w.RawString(`{"Group":[`)
		for i, a := range k.Group {
			if i > 0 {
				w.RawByte(',')
			}
			w.String(a.String())
		}
		w.RawString(`]}`)
	default:
		w.String("Everyone")
	}
}

func (k *RoleKind) UnmarshalTinyJSON(l *jlexer.Lexer) {
	if !l.IsDelim('{') {
		if s := l.String(); s != "Everyone" {
			l.AddError(errors.Errorf("unknown role kind %q", s))
		}
		*k = Everyone()
		return
	}
	l.Delim('{')
	eachField(l, func(key string) {
		switch key {
		case "Member":
			*k = Member(readBalanceJSON(l))
		case "Group":
			*k = Group(readAddressList(l)...)
		default:
			l.AddError(errors.Errorf("unknown role kind %q", key))
			l.SkipRecursive()
		}
	})
}

func readAddressList(l *jlexer.Lexer) []sdk.Address {
	var out []sdk.Address
	l.Delim('[')
	for !l.IsDelim(']') {
		out = append(out, sdk.Address(l.String()))
		l.WantComma()
	}
	l.Delim(']')
	return out
}

func (r RolePermission) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"name":`)
	w.String(r.Name)
	w.RawString(`,"kind":`)
	r.Kind.MarshalTinyJSON(w)
	w.RawString(`,"permissions":[`)
	perms := append([]string(nil), r.Permissions...)
	sort.Strings(perms)
	for i, p := range perms {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(p)
	}
	w.RawString(`],"vote_policy":{`)
	labels := make([]string, 0, len(r.VotePolicy))
	for label := range r.VotePolicy {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for i, label := range labels {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(label)
		w.RawByte(':')
		r.VotePolicy[label].MarshalTinyJSON(w)
	}
	w.RawString(`}}`)
}

func (r *RolePermission) UnmarshalTinyJSON(l *jlexer.Lexer) {
	*r = RolePermission{VotePolicy: map[string]VotePolicy{}}
	if !openObject(l) {
		return
	}
	eachField(l, func(key string) {
		switch key {
		case "name":
			r.Name = l.String()
		case "kind":
			r.Kind.UnmarshalTinyJSON(l)
		case "permissions":
			l.Delim('[')
			for !l.IsDelim(']') {
				r.Permissions = append(r.Permissions, l.String())
				l.WantComma()
			}
			l.Delim(']')
		case "vote_policy":
			l.Delim('{')
			for !l.IsDelim('}') {
				label := l.String()
				l.WantColon()
				var vp VotePolicy
				vp.UnmarshalTinyJSON(l)
				r.VotePolicy[label] = vp
				l.WantComma()
			}
			l.Delim('}')
		default:
			l.SkipRecursive()
		}
	})
}

// -----------------------------------------------------------------------------
// Policy
// -----------------------------------------------------------------------------

func (p Policy) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"roles":[`)
	for i, r := range p.Roles {
		if i > 0 {
			w.RawByte(',')
		}
		r.MarshalTinyJSON(w)
	}
	w.RawString(`],"default_vote_policy":`)
	p.DefaultVotePolicy.MarshalTinyJSON(w)
	w.RawString(`,"proposal_bond":`)
	writeBalanceJSON(w, p.ProposalBond)
	w.RawString(`,"proposal_period":`)
	w.Uint64Str(p.ProposalPeriod)
	w.RawString(`,"bounty_bond":`)
	writeBalanceJSON(w, p.BountyBond)
	w.RawString(`,"bounty_forgiveness_period":`)
	w.Uint64Str(p.BountyForgivenessPeriod)
	w.RawByte('}')
}

func (p *Policy) UnmarshalTinyJSON(l *jlexer.Lexer) {
	isTopLevel := l.IsStart()
	*p = DefaultPolicy(nil)
	p.Roles = nil
	if !openObject(l) {
		if isTopLevel {
			l.Consumed()
		}
		return
	}
	eachField(l, func(key string) {
		switch key {
		case "roles":
			l.Delim('[')
			for !l.IsDelim(']') {
				var r RolePermission
				r.UnmarshalTinyJSON(l)
				p.Roles = append(p.Roles, r)
				l.WantComma()
			}
			l.Delim(']')
		case "default_vote_policy":
			p.DefaultVotePolicy.UnmarshalTinyJSON(l)
		case "proposal_bond":
			p.ProposalBond = readBalanceJSON(l)
		case "proposal_period":
			p.ProposalPeriod = l.Uint64Str()
		case "bounty_bond":
			p.BountyBond = readBalanceJSON(l)
		case "bounty_forgiveness_period":
			p.BountyForgivenessPeriod = l.Uint64Str()
		default:
			l.SkipRecursive()
		}
	})
	if isTopLevel {
		l.Consumed()
	}
}

// MarshalTinyJSON writes the legacy variant as a bare account array and the current one
// as the policy object. There is no tag, the json shape tells them apart.
func (v VersionedPolicy) MarshalTinyJSON(w *jwriter.Writer) {
	if v.Current != nil {
		v.Current.MarshalTinyJSON(w)
		return
	}
	w.RawByte('[')
	for i, a := range v.Legacy {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(a.String())
	}
	w.RawByte(']')
}

func (v *VersionedPolicy) UnmarshalTinyJSON(l *jlexer.Lexer) {
	isTopLevel := l.IsStart()
	*v = VersionedPolicy{}
	if l.IsDelim('[') {
		v.Legacy = readAddressList(l)
		if v.Legacy == nil {
			v.Legacy = []sdk.Address{}
		}
	} else {
		var p Policy
		p.UnmarshalTinyJSON(l)
		v.Current = &p
	}
	if isTopLevel {
		l.Consumed()
	}
}

func (p PolicyParameters) MarshalTinyJSON(w *jwriter.Writer) {
	writeOptBalance := func(b *sdk.Balance) {
		if b == nil {
			w.RawString("null")
			return
		}
		writeBalanceJSON(w, *b)
	}
	writeOptU64 := func(v *uint64) {
		if v == nil {
			w.RawString("null")
			return
		}
		w.Uint64Str(*v)
	}
	w.RawString(`{"proposal_bond":`)
	writeOptBalance(p.ProposalBond)
	w.RawString(`,"proposal_period":`)
	writeOptU64(p.ProposalPeriod)
	w.RawString(`,"bounty_bond":`)
	writeOptBalance(p.BountyBond)
	w.RawString(`,"bounty_forgiveness_period":`)
	writeOptU64(p.BountyForgivenessPeriod)
	w.RawByte('}')
}

func (p *PolicyParameters) UnmarshalTinyJSON(l *jlexer.Lexer) {
	*p = PolicyParameters{}
	if !openObject(l) {
		return
	}
	eachField(l, func(key string) {
		switch key {
		case "proposal_bond":
			b := readBalanceJSON(l)
			p.ProposalBond = &b
		case "proposal_period":
			v := l.Uint64Str()
			p.ProposalPeriod = &v
		case "bounty_bond":
			b := readBalanceJSON(l)
			p.BountyBond = &b
		case "bounty_forgiveness_period":
			v := l.Uint64Str()
			p.BountyForgivenessPeriod = &v
		default:
			l.SkipRecursive()
		}
	})
}

// -----------------------------------------------------------------------------
// Entry points
// -----------------------------------------------------------------------------

// ParseVersionedPolicy reads either policy shape.
// Example payload: ParseVersionedPolicy([]byte(`["alice.near","bob.near"]`))
func ParseVersionedPolicy(data []byte) (VersionedPolicy, error) {
	var v VersionedPolicy
	if err := tinyjson.Unmarshal(data, &v); err != nil {
		return VersionedPolicy{}, errors.Wrap(ErrInvalidPolicy, err.Error())
	}
	return v, nil
}

// EncodePolicyJSON renders a policy document.
func EncodePolicyJSON(p Policy) ([]byte, error) {
	return tinyjson.Marshal(p)
}
