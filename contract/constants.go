package contract

import "sputnik_dao/sdk"

// -----------------------------------------------------------------------------
// Policy Defaults
// -----------------------------------------------------------------------------

const (
	// DefaultProposalPeriod is one week in nanoseconds.
	DefaultProposalPeriod uint64 = 604_800_000_000_000
	// DefaultBountyForgivenessPeriod is one day in nanoseconds.
	DefaultBountyForgivenessPeriod uint64 = 86_400_000_000_000
	// DefaultBondYocto is 1 native token with 24 decimals.
	DefaultBondYocto = "1000000000000000000000000"
)

var (
	DefaultProposalBond = sdk.MustParseBalance(DefaultBondYocto)
	DefaultBountyBond   = sdk.MustParseBalance(DefaultBondYocto)
)

// Role names the default policy ships with.
const (
	RoleAll     = "all"
	RoleCouncil = "council"
)

// -----------------------------------------------------------------------------
// Remote Call Budgets
// -----------------------------------------------------------------------------

const (
	// GasForUpgradeSelf is attached to the self upgrade call.
	GasForUpgradeSelf uint64 = 200_000_000_000_000
	// GasForUpgradeRemote is attached to remote upgrade calls.
	GasForUpgradeRemote uint64 = 150_000_000_000_000
	// GasForTransfer is attached to fungible token transfers.
	GasForTransfer uint64 = 10_000_000_000_000
	// GasForTransferCall is attached to fungible token transfer-and-call.
	GasForTransferCall uint64 = 35_000_000_000_000
)

// -----------------------------------------------------------------------------
// Validation Limits
// -----------------------------------------------------------------------------

const (
	// MaxDescriptionLength caps proposal and bounty descriptions.
	MaxDescriptionLength = 8_192
	// MaxRoleNameLength caps role names.
	MaxRoleNameLength = 64
	// MaxViewLimit caps paginated list views.
	MaxViewLimit = 100
)

// -----------------------------------------------------------------------------
// Storage Key Prefixes
// -----------------------------------------------------------------------------

const (
	// kGlobals stores the daoState aggregate.
	kGlobals byte = 0x01
	// kConfig stores the encoded Config.
	kConfig byte = 0x02
	// kPolicy stores the policy json.
	kPolicy byte = 0x03
	// kProposal stores versioned proposal blobs by id.
	kProposal byte = 0x10
	// kPending stores pending call records by proposal id.
	kPending byte = 0x11
	// kPendingCall maps a call id back to its proposal id.
	kPendingCall byte = 0x12
	// kBounty stores versioned bounty blobs by id.
	kBounty byte = 0x20
	// kBountyClaimCount stores decimal claim counters by bounty id.
	kBountyClaimCount byte = 0x21
	// kBountyClaims stores an account's claim list.
	kBountyClaims byte = 0x22
	// kDelegation stores per account delegation entries.
	kDelegation byte = 0x30
)
