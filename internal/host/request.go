package host

import (
	"github.com/CosmWasm/tinyjson/jlexer"
	"github.com/CosmWasm/tinyjson/jwriter"
	"github.com/pkg/errors"

	"sputnik_dao/sdk"
)

// RequestKind tells payouts and remote calls apart in the outbox.
type RequestKind uint8

const (
	RequestPayout RequestKind = iota + 1
	RequestCall
)

func (k RequestKind) String() string {
	switch k {
	case RequestPayout:
		return "payout"
	case RequestCall:
		return "call"
	}
	return "unknown"
}

// Request is one parked outbox entry. Exactly one of Payout and Call is set.
type Request struct {
	ID     string
	Kind   RequestKind
	Payout *sdk.Payout
	Call   *sdk.RemoteCall
}

const (
	balancePrefix = "\x70"
	outboxPrefix  = "\x71"
)

func balanceKey(account sdk.Address, asset sdk.Asset) string {
	return balancePrefix + asset.String() + "\x00" + account.String()
}

func balanceMutation(account sdk.Address, asset sdk.Asset, b sdk.Balance) sdk.Mutation {
	m := sdk.Mutation{Key: balanceKey(account, asset)}
	if !b.IsZero() {
		m.Value = b.Bytes()
	}
	return m
}

func outboxKey(id string) string { return outboxPrefix + id }

// MarshalTinyJSON writes the request the way `daoctl outbox` prints it.
// Example payload: {"id":"…","kind":"payout","token":"usdc.near","receiver":"bob.near","amount":"10"}
func (r Request) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"id":`)
	w.String(r.ID)
	w.RawString(`,"kind":`)
	w.String(r.Kind.String())
	switch {
	case r.Payout != nil:
		p := r.Payout
		w.RawString(`,"token":`)
		w.String(p.Token.String())
		w.RawString(`,"receiver":`)
		w.String(p.Receiver.String())
		w.RawString(`,"amount":`)
		w.String(p.Amount.String())
		w.RawString(`,"memo":`)
		w.String(p.Memo)
		if p.Msg != nil {
			w.RawString(`,"msg":`)
			w.String(*p.Msg)
		}
	case r.Call != nil:
		w.RawString(`,"receiver":`)
		w.String(r.Call.Receiver.String())
		w.RawString(`,"actions":[`)
		for i, a := range r.Call.Actions {
			if i > 0 {
				w.RawByte(',')
			}
			w.RawString(`{"method":`)
			w.String(a.Method)
			w.RawString(`,"args":`)
			w.Base64Bytes(a.Args)
			w.RawString(`,"deposit":`)
			w.String(a.Deposit.String())
			w.RawString(`,"gas":`)
			w.Uint64(a.Gas)
			w.RawByte('}')
		}
		w.RawByte(']')
	}
	w.RawByte('}')
}

// UnmarshalTinyJSON is the inverse of MarshalTinyJSON.
func (r *Request) UnmarshalTinyJSON(l *jlexer.Lexer) {
	var (
		kind         string
		token        sdk.Asset
		receiver     sdk.Address
		amount, memo string
		msg          *string
		actions      []sdk.FunctionCallAction
	)
	l.Delim('{')
	for !l.IsDelim('}') {
		key := l.UnsafeFieldName(false)
		l.WantColon()
		switch key {
		case "id":
			r.ID = l.String()
		case "kind":
			kind = l.String()
		case "token":
			token = sdk.Asset(l.String())
		case "receiver":
			receiver = sdk.Address(l.String())
		case "amount":
			amount = l.String()
		case "memo":
			memo = l.String()
		case "msg":
			s := l.String()
			msg = &s
		case "actions":
			l.Delim('[')
			for !l.IsDelim(']') {
				actions = append(actions, readAction(l))
				l.WantComma()
			}
			l.Delim(']')
		default:
			l.SkipRecursive()
		}
		l.WantComma()
	}
	l.Delim('}')
	if l.Error() != nil {
		return
	}

	switch kind {
	case "payout":
		amt, err := sdk.ParseBalance(amount)
		if err != nil {
			l.AddError(err)
			return
		}
		r.Kind = RequestPayout
		r.Payout = &sdk.Payout{ID: r.ID, Token: token, Receiver: receiver, Amount: amt, Memo: memo, Msg: msg}
	case "call":
		r.Kind = RequestCall
		r.Call = &sdk.RemoteCall{ID: r.ID, Receiver: receiver, Actions: actions}
	default:
		l.AddError(errors.Errorf("unknown request kind %q", kind))
	}
}

func readAction(l *jlexer.Lexer) sdk.FunctionCallAction {
	var a sdk.FunctionCallAction
	l.Delim('{')
	for !l.IsDelim('}') {
		key := l.UnsafeFieldName(false)
		l.WantColon()
		switch key {
		case "method":
			a.Method = l.String()
		case "args":
			a.Args = l.Bytes()
		case "deposit":
			d, err := sdk.ParseBalance(l.String())
			if err != nil {
				l.AddError(err)
			}
			a.Deposit = d
		case "gas":
			a.Gas = l.Uint64()
		default:
			l.SkipRecursive()
		}
		l.WantComma()
	}
	l.Delim('}')
	return a
}

func encodeRequest(r Request) []byte {
	w := jwriter.Writer{}
	r.MarshalTinyJSON(&w)
	out, _ := w.BuildBytes()
	return out
}

func decodeRequest(raw []byte) (Request, error) {
	var r Request
	l := jlexer.Lexer{Data: raw}
	r.UnmarshalTinyJSON(&l)
	if err := l.Error(); err != nil {
		return Request{}, errors.Wrap(err, "decode outbox entry")
	}
	return r, nil
}
