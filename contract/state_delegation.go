package contract

import (
	"sputnik_dao/sdk"
)

// delegationOf returns the account's weight and whether it is registered.
func (c *callCtx) delegationOf(account sdk.Address) (sdk.Balance, bool, error) {
	raw, err := c.st.get(delegationKey(account))
	if err != nil {
		return sdk.Zero, false, err
	}
	if raw == nil {
		return sdk.Zero, false, nil
	}
	b, err := decodeDelegation(raw)
	if err != nil {
		return sdk.Zero, false, err
	}
	return b, true, nil
}

func (c *callCtx) setDelegation(account sdk.Address, amount sdk.Balance) {
	c.st.set(delegationKey(account), encodeDelegation(amount))
}

// userInfo is the caller as role matching sees it.
func (c *callCtx) userInfo(account sdk.Address) (UserInfo, error) {
	amount, _, err := c.delegationOf(account)
	if err != nil {
		return UserInfo{}, err
	}
	return UserInfo{Account: account, Amount: amount}, nil
}
