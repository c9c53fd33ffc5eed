package contract

import (
	"sputnik_dao/sdk"
)

// WeightKind says how a single vote is counted inside a role.
type WeightKind uint8

const (
	// TokenWeight counts the voter's delegated balance.
	TokenWeight WeightKind = iota
	// RoleWeight counts every member as 1.
	RoleWeight
)

func (k WeightKind) String() string {
	if k == TokenWeight {
		return "TokenWeight"
	}
	return "RoleWeight"
}

// WeightOrRatio is either an absolute Weight or a Num/Denom ratio of the role total.
type WeightOrRatio struct {
	IsRatio bool
	Weight  sdk.Balance
	Num     uint64
	Denom   uint64
}

// Weight builds a fixed threshold.
func Weight(w sdk.Balance) WeightOrRatio {
	return WeightOrRatio{Weight: w}
}

// Ratio builds a ratio threshold.
// Example payload: Ratio(1, 2)
func Ratio(num, denom uint64) WeightOrRatio {
	return WeightOrRatio{IsRatio: true, Num: num, Denom: denom}
}

// ToWeight turns the threshold into an absolute amount against total. Ratios round down
// and add one so 1/2 means strictly more than half, clamped to total.
func (t WeightOrRatio) ToWeight(total sdk.Balance) sdk.Balance {
	if !t.IsRatio {
		return t.Weight.Min(total)
	}
	if t.Denom == 0 {
		return total
	}
	return total.MulDiv(t.Num, t.Denom).Add(sdk.NewBalance(1)).Min(total)
}

func (t WeightOrRatio) validate() error {
	if t.IsRatio && t.Denom == 0 {
		return ErrInvalidRatio
	}
	return nil
}

// VotePolicy is how one role resolves votes for one proposal kind.
type VotePolicy struct {
	WeightKind WeightKind
	// Quorum is the minimum weight needed no matter what the threshold says.
	Quorum    sdk.Balance
	Threshold WeightOrRatio
}

// DefaultVotePolicy is role weighted, no quorum, more than half.
func DefaultVotePolicy() VotePolicy {
	return VotePolicy{
		WeightKind: RoleWeight,
		Quorum:     sdk.Zero,
		Threshold:  Ratio(1, 2),
	}
}

// thresholdFor is max(quorum, to_weight(total)).
func (vp VotePolicy) thresholdFor(total sdk.Balance) sdk.Balance {
	return vp.Quorum.Max(vp.Threshold.ToWeight(total))
}
