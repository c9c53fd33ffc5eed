package contract

import (
	"github.com/pkg/errors"
)

// Class buckets errors by what went wrong, so callers can tell a denied caller from a
// malformed payload without matching on strings.
type Class uint8

const (
	ClassUnknown Class = iota
	ClassAuthorization
	ClassStatePrecondition
	ClassResourcePrecondition
	ClassStructural
	ClassExternal
	ClassNotFound
)

// String prints the class for logs.
func (c Class) String() string {
	switch c {
	case ClassAuthorization:
		return "authorization"
	case ClassStatePrecondition:
		return "state"
	case ClassResourcePrecondition:
		return "resource"
	case ClassStructural:
		return "structural"
	case ClassExternal:
		return "external"
	case ClassNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a stable, classified error code. The message is the code itself so it reads
// the same in logs, cli output and tests.
type Error struct {
	Class Class
	Code  string
}

func (e *Error) Error() string { return e.Code }

func newError(class Class, code string) *Error {
	return &Error{Class: class, Code: code}
}

// ClassOf digs the classification out of a (possibly wrapped) error.
func ClassOf(err error) Class {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ClassUnknown
}

// authorization
var (
	ErrPermissionDenied     = newError(ClassAuthorization, "ERR_PERMISSION_DENIED")
	ErrNoStaking            = newError(ClassAuthorization, "ERR_NO_STAKING")
	ErrNotStakingContract   = newError(ClassAuthorization, "ERR_NOT_STAKING_CONTRACT")
	ErrBountyDoneMustBeSelf = newError(ClassAuthorization, "ERR_BOUNTY_DONE_MUST_BE_SELF")
	ErrNotSelf              = newError(ClassAuthorization, "ERR_NOT_SELF")
)

// state preconditions
var (
	ErrAlreadyInitialized          = newError(ClassStatePrecondition, "ERR_CONTRACT_IS_INITIALIZED")
	ErrNotInitialized              = newError(ClassStatePrecondition, "ERR_CONTRACT_NOT_INITIALIZED")
	ErrAlreadyVoted                = newError(ClassStatePrecondition, "ERR_ALREADY_VOTED")
	ErrProposalNotReadyForVote     = newError(ClassStatePrecondition, "ERR_PROPOSAL_NOT_READY_FOR_VOTE")
	ErrProposalNotInProgress       = newError(ClassStatePrecondition, "ERR_PROPOSAL_NOT_IN_PROGRESS")
	ErrProposalNotExpiredOrFailed  = newError(ClassStatePrecondition, "ERR_PROPOSAL_NOT_EXPIRED_OR_FAILED")
	ErrWrongAction                 = newError(ClassStatePrecondition, "ERR_WRONG_ACTION")
	ErrStakingContractCantChange   = newError(ClassStatePrecondition, "ERR_STAKING_CONTRACT_CANT_CHANGE")
	ErrNotRegistered               = newError(ClassStatePrecondition, "ERR_NOT_REGISTERED")
	ErrBountyAllClaimed            = newError(ClassStatePrecondition, "ERR_BOUNTY_ALL_CLAIMED")
	ErrBountyAlreadyClaimed        = newError(ClassStatePrecondition, "ERR_BOUNTY_ALREADY_CLAIMED")
	ErrBountyClaimCompleted        = newError(ClassStatePrecondition, "ERR_BOUNTY_CLAIM_COMPLETED")
	ErrUnexpectedCallback          = newError(ClassStatePrecondition, "ERR_UNEXPECTED_CALLBACK")
	ErrUnexpectedProposalForUpdate = newError(ClassStatePrecondition, "ERR_UNEXPECTED_PROPOSAL_STATUS")
)

// resource preconditions
var (
	ErrMinBond                 = newError(ClassResourcePrecondition, "ERR_MIN_BOND")
	ErrBountyWrongBond         = newError(ClassResourcePrecondition, "ERR_BOUNTY_WRONG_BOND")
	ErrBountyWrongDeadline     = newError(ClassResourcePrecondition, "ERR_BOUNTY_WRONG_DEADLINE")
	ErrInvalidStakingContract  = newError(ClassResourcePrecondition, "ERR_INVALID_STAKING_CONTRACT")
	ErrLockedAmountUnderflow   = newError(ClassResourcePrecondition, "ERR_LOCKED_AMOUNT_UNDERFLOW")
	ErrDelegationTotalMismatch = newError(ClassResourcePrecondition, "ERR_DELEGATION_TOTAL_MISMATCH")
)

// structural validation
var (
	ErrInvalidPolicy      = newError(ClassStructural, "ERR_INVALID_POLICY")
	ErrBaseTokenNoMsg     = newError(ClassStructural, "ERR_BASE_TOKEN_NO_MSG")
	ErrInvalidRatio       = newError(ClassStructural, "ERR_INVALID_RATIO")
	ErrInvalidRole        = newError(ClassStructural, "ERR_INVALID_ROLE")
	ErrInvalidAccountID   = newError(ClassStructural, "ERR_INVALID_ACCOUNT_ID")
	ErrInvalidPermission  = newError(ClassStructural, "ERR_INVALID_PERMISSION")
	ErrInvalidBounty      = newError(ClassStructural, "ERR_INVALID_BOUNTY")
	ErrInvalidKind        = newError(ClassStructural, "ERR_INVALID_PROPOSAL_KIND")
	ErrEmptyFunctionCall  = newError(ClassStructural, "ERR_EMPTY_FUNCTION_CALL")
	ErrCorruptState       = newError(ClassStructural, "ERR_CORRUPT_STATE")
	ErrUnknownVoteAction  = newError(ClassStructural, "ERR_UNKNOWN_ACTION")
	ErrInvalidDescription = newError(ClassStructural, "ERR_INVALID_DESCRIPTION")
)

// external failures
var (
	ErrExternalCall = newError(ClassExternal, "ERR_EXTERNAL_CALL_FAILED")
)

// lookups
var (
	ErrNoProposal  = newError(ClassNotFound, "ERR_NO_PROPOSAL")
	ErrNoBounty    = newError(ClassNotFound, "ERR_NO_BOUNTY")
	ErrNoClaim     = newError(ClassNotFound, "ERR_NO_BOUNTY_CLAIMS")
	ErrMissingRole = newError(ClassNotFound, "ERR_MISSING_ROLE")
)
