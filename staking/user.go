package staking

import (
	"sort"

	"github.com/CosmWasm/tinyjson/jlexer"
	"github.com/CosmWasm/tinyjson/jwriter"
	"github.com/pkg/errors"

	"sputnik_dao/sdk"
)

const userPrefix = "\x60"

func userKey(a sdk.Address) string { return userPrefix + a.String() }

// Delegation is the weight one user placed on one account.
type Delegation struct {
	Account sdk.Address
	Amount  sdk.Balance
}

// User is a depositor. Free can be delegated or withdrawn, the delegated part cannot
// leave the staking account.
type User struct {
	Account      sdk.Address
	Free         sdk.Balance
	Delegated    []Delegation
	NextActionAt uint64
}

// Total is free plus delegated.
func (u User) Total() sdk.Balance {
	t := u.Free
	for _, d := range u.Delegated {
		t = t.Add(d.Amount)
	}
	return t
}

func (u User) delegatedTo(a sdk.Address) sdk.Balance {
	for _, d := range u.Delegated {
		if d.Account == a {
			return d.Amount
		}
	}
	return sdk.Zero
}

// setDelegated keeps Delegated sorted and drops zero entries.
func (u *User) setDelegated(a sdk.Address, amount sdk.Balance) {
	out := u.Delegated[:0]
	for _, d := range u.Delegated {
		if d.Account != a {
			out = append(out, d)
		}
	}
	if !amount.IsZero() {
		out = append(out, Delegation{Account: a, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	u.Delegated = out
}

func (u User) empty() bool {
	return u.Free.IsZero() && len(u.Delegated) == 0
}

// MarshalTinyJSON writes the stored and printed form.
// Example payload: {"account":"carol.near","free":"10","delegated":[{"account":"bob.near","amount":"5"}],"next_action_at":0}
func (u User) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"account":`)
	w.String(u.Account.String())
	w.RawString(`,"free":`)
	w.String(u.Free.String())
	w.RawString(`,"delegated":[`)
	for i, d := range u.Delegated {
		if i > 0 {
			w.RawByte(',')
		}
		w.RawString(`{"account":`)
		w.String(d.Account.String())
		w.RawString(`,"amount":`)
		w.String(d.Amount.String())
		w.RawByte('}')
	}
	w.RawString(`],"next_action_at":`)
	w.Uint64(u.NextActionAt)
	w.RawByte('}')
}

func readBalance(l *jlexer.Lexer) sdk.Balance {
	b, err := sdk.ParseBalance(l.String())
	if err != nil {
		l.AddError(err)
	}
	return b
}

// UnmarshalTinyJSON reads what MarshalTinyJSON wrote.
func (u *User) UnmarshalTinyJSON(l *jlexer.Lexer) {
	l.Delim('{')
	for !l.IsDelim('}') {
		key := l.UnsafeFieldName(false)
		l.WantColon()
		switch key {
		case "account":
			u.Account = sdk.Address(l.String())
		case "free":
			u.Free = readBalance(l)
		case "delegated":
			l.Delim('[')
			for !l.IsDelim(']') {
				var d Delegation
				l.Delim('{')
				for !l.IsDelim('}') {
					k := l.UnsafeFieldName(false)
					l.WantColon()
					switch k {
					case "account":
						d.Account = sdk.Address(l.String())
					case "amount":
						d.Amount = readBalance(l)
					default:
						l.SkipRecursive()
					}
					l.WantComma()
				}
				l.Delim('}')
				u.Delegated = append(u.Delegated, d)
				l.WantComma()
			}
			l.Delim(']')
		case "next_action_at":
			u.NextActionAt = l.Uint64()
		default:
			l.SkipRecursive()
		}
		l.WantComma()
	}
	l.Delim('}')
}

func encodeUser(u User) []byte {
	w := jwriter.Writer{}
	u.MarshalTinyJSON(&w)
	out, _ := w.BuildBytes()
	return out
}

func decodeUser(raw []byte) (User, error) {
	var u User
	l := jlexer.Lexer{Data: raw}
	u.UnmarshalTinyJSON(&l)
	if err := l.Error(); err != nil {
		return User{}, errors.Wrap(err, "decode staking user")
	}
	return u, nil
}
