package contract

import "sputnik_dao/sdk"

// packU64BE appends x big endian so ids scan in numeric order.
func packU64BE(x uint64, dst []byte) []byte {
	return append(dst,
		byte(x>>56),
		byte(x>>48),
		byte(x>>40),
		byte(x>>32),
		byte(x>>24),
		byte(x>>16),
		byte(x>>8),
		byte(x),
	)
}

// unpackU64BE reads the id back out of a key suffix.
func unpackU64BE(b []byte) uint64 {
	var x uint64
	for i := 0; i < 8 && i < len(b); i++ {
		x = x<<8 | uint64(b[i])
	}
	return x
}

func singleKey(prefix byte) string {
	return string([]byte{prefix})
}

func idKey(prefix byte, id uint64) string {
	buf := make([]byte, 0, 9)
	buf = append(buf, prefix)
	buf = packU64BE(id, buf)
	return string(buf)
}

func addrKey(prefix byte, addr sdk.Address) string {
	s := addr.String()
	buf := make([]byte, 0, 1+len(s))
	buf = append(buf, prefix)
	buf = append(buf, s...)
	return string(buf)
}

// globalsKey holds the daoState aggregate.
func globalsKey() string { return singleKey(kGlobals) }

func configKey() string { return singleKey(kConfig) }

func policyKey() string { return singleKey(kPolicy) }

// proposalKey sorts proposals by id under 0x10.
func proposalKey(id uint64) string { return idKey(kProposal, id) }

// pendingKey holds the in flight call of a proposal.
func pendingKey(proposalID uint64) string { return idKey(kPending, proposalID) }

// pendingCallKey maps a call id back to its proposal.
func pendingCallKey(callID string) string {
	buf := make([]byte, 0, 1+len(callID))
	buf = append(buf, kPendingCall)
	buf = append(buf, callID...)
	return string(buf)
}

func bountyKey(id uint64) string { return idKey(kBounty, id) }

// bountyClaimCountKey is a decimal counter, one per bounty.
func bountyClaimCountKey(id uint64) string { return idKey(kBountyClaimCount, id) }

// bountyClaimsKey lists every claim an account holds.
func bountyClaimsKey(addr sdk.Address) string { return addrKey(kBountyClaims, addr) }

// delegationKey holds one registered account's delegated weight.
func delegationKey(addr sdk.Address) string { return addrKey(kDelegation, addr) }
