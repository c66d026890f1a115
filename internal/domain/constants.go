package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Withdrawal statuses. REJECTED, FAILED and CONFIRMED are terminal.
const (
	WithdrawalRequested = "REQUESTED"
	WithdrawalApproved  = "APPROVED"
	WithdrawalSent      = "SENT"
	WithdrawalConfirmed = "CONFIRMED"
	WithdrawalRejected  = "REJECTED"
	WithdrawalFailed    = "FAILED"
)

// Deposit statuses.
const (
	DepositPendingConfirmation = "PENDING_CONFIRMATION"
	DepositPendingClaim        = "PENDING_CLAIM"
	DepositClaimed             = "CLAIMED"
	DepositAutoCredited        = "AUTO_CREDITED"
)

// Validation reason codes. Always recoverable by the user fixing the input.
const (
	ReasonInvalidAmount       = "INVALID_AMOUNT"
	ReasonBelowMinimum        = "BELOW_MINIMUM"
	ReasonAboveMaximum        = "ABOVE_MAXIMUM"
	ReasonInsufficientBalance = "INSUFFICIENT_BALANCE"
	ReasonDailyLimitExceeded  = "DAILY_LIMIT_EXCEEDED"
	ReasonInvalidAddress      = "INVALID_ADDRESS"
)

// State reason codes. Signal a stale client view; the caller should refetch.
const (
	ReasonInvalidTransition    = "INVALID_TRANSITION"
	ReasonWithdrawalInProgress = "WITHDRAWAL_IN_PROGRESS"
	ReasonNotYetConfirmed      = "NOT_YET_CONFIRMED"
)

const ReasonUserCancelled = "USER_CANCELLED"

// Wallet transaction journal types.
const (
	WalletTxTypeDeposit          = "DEPOSIT"
	WalletTxTypeDepositClaim     = "DEPOSIT_CLAIM"
	WalletTxTypeWithdrawal       = "WITHDRAWAL"
	WalletTxTypeWithdrawalRefund = "WITHDRAWAL_REFUND"
)

// IsTerminalWithdrawalStatus reports whether no further transition is allowed.
func IsTerminalWithdrawalStatus(status string) bool {
	return status == WithdrawalConfirmed || status == WithdrawalRejected || status == WithdrawalFailed
}
