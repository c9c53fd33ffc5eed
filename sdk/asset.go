package sdk

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Asset identifies what a payout moves. The empty asset is the native base token,
// anything else is the account id of a fungible token contract.
type Asset string

// AssetNative is the chain's base token.
const AssetNative Asset = ""

// String returns the raw asset id for logging or host calls.
// Example payload: sdk.AssetNative.String()
func (a Asset) String() string {
	return string(a)
}

// IsNative is true for the base token.
func (a Asset) IsNative() bool {
	return a == AssetNative
}

// -----------------------------------------------------------------------------
// Balance
// -----------------------------------------------------------------------------

// Balance is an unsigned token amount. It covers the full u128 range the host uses
// (and more), so bonds, stakes and vote weights never get rounded.
type Balance uint256.Int

// Zero is the zero balance.
var Zero = Balance{}

// NewBalance lifts a uint64 into a Balance.
// Example payload: sdk.NewBalance(1_000)
func NewBalance(v uint64) Balance {
	return Balance(*uint256.NewInt(v))
}

// ParseBalance reads a base-10 amount like "1000000000000000000000000".
func ParseBalance(s string) (Balance, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Zero, errors.Wrapf(err, "invalid balance %q", s)
	}
	return Balance(*v), nil
}

// MustParseBalance is ParseBalance for constants and tests.
func MustParseBalance(s string) Balance {
	b, err := ParseBalance(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Int exposes a copy as *uint256.Int for arithmetic.
func (b Balance) Int() *uint256.Int {
	v := uint256.Int(b)
	return &v
}

// String prints the decimal form, the same shape ParseBalance accepts.
func (b Balance) String() string {
	return b.Int().Dec()
}

// IsZero reports b == 0.
func (b Balance) IsZero() bool {
	return b.Int().IsZero()
}

// Cmp returns -1, 0 or +1.
func (b Balance) Cmp(o Balance) int {
	return b.Int().Cmp(o.Int())
}

// Lt is b < o.
func (b Balance) Lt(o Balance) bool { return b.Cmp(o) < 0 }

// Gte is b >= o.
func (b Balance) Gte(o Balance) bool { return b.Cmp(o) >= 0 }

// Add returns b + o.
func (b Balance) Add(o Balance) Balance {
	var z uint256.Int
	z.Add(b.Int(), o.Int())
	return Balance(z)
}

// SafeSub returns b - o and false when o > b.
func (b Balance) SafeSub(o Balance) (Balance, bool) {
	if b.Lt(o) {
		return Zero, false
	}
	var z uint256.Int
	z.Sub(b.Int(), o.Int())
	return Balance(z), true
}

// Sub returns b - o, saturating at zero.
func (b Balance) Sub(o Balance) Balance {
	out, _ := b.SafeSub(o)
	return out
}

// MulDiv returns floor(b * num / denom). denom must not be zero.
func (b Balance) MulDiv(num, denom uint64) Balance {
	var z uint256.Int
	z.Mul(b.Int(), uint256.NewInt(num))
	z.Div(&z, uint256.NewInt(denom))
	return Balance(z)
}

// Min returns the smaller one.
func (b Balance) Min(o Balance) Balance {
	if b.Lt(o) {
		return b
	}
	return o
}

// Max returns the bigger one.
func (b Balance) Max(o Balance) Balance {
	if b.Lt(o) {
		return o
	}
	return b
}

// Bytes is the minimal big endian form used by the binary codec.
func (b Balance) Bytes() []byte {
	return b.Int().Bytes()
}

// BalanceFromBytes undoes Bytes.
func BalanceFromBytes(buf []byte) Balance {
	var z uint256.Int
	z.SetBytes(buf)
	return Balance(z)
}
