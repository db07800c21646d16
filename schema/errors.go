package schema

import (
	"errors"
)

var (
	ErrNotExist = errors.New("not_exist_record")

	// session
	ErrNoWalletProvider    = errors.New("no_wallet_provider")
	ErrNoAccount           = errors.New("no_account")
	ErrUserRejected        = errors.New("user_rejected")
	ErrUnknownChain        = errors.New("unknown_chain")
	ErrNetworkMismatch     = errors.New("network_mismatch")
	ErrNetworkSwitchFailed = errors.New("network_switch_failed")
	ErrNoSession           = errors.New("no_session")

	// workflow preconditions
	ErrInvalidDomainFormat = errors.New("invalid_domain_format")
	ErrInvalidAddress      = errors.New("invalid_address")
	ErrUserCancelled       = errors.New("user_cancelled")
	ErrOperationInFlight   = errors.New("operation_in_flight")

	// workflow state checks
	ErrDomainUnavailable   = errors.New("domain_unavailable")
	ErrNotOwner            = errors.New("not_owner")
	ErrInsufficientBalance = errors.New("insufficient_balance")

	// after submission
	ErrTransactionReverted = errors.New("transaction_reverted")
	ErrTimedOut            = errors.New("timed_out")

	ErrTransientRead = errors.New("transient_read_failure") // refresh step only, never fatal
)

var kinds = []error{
	ErrNotExist,
	ErrNoWalletProvider, ErrNoAccount, ErrUserRejected, ErrUnknownChain,
	ErrNetworkMismatch, ErrNetworkSwitchFailed, ErrNoSession,
	ErrInvalidDomainFormat, ErrInvalidAddress, ErrUserCancelled, ErrOperationInFlight,
	ErrDomainUnavailable, ErrNotOwner, ErrInsufficientBalance,
	ErrTransactionReverted, ErrTimedOut, ErrTransientRead,
}

// KindOf returns the sentinel name wrapped by err, or "internal_error" when err
// does not belong to the taxonomy.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return "internal_error"
}

// ParseKind is the inverse of KindOf, used by clients decoding api errors.
func ParseKind(kind string) error {
	for _, k := range kinds {
		if k.Error() == kind {
			return k
		}
	}
	return nil
}
