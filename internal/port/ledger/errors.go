package ledger

import (
	"errors"
	"strings"
)

var (
	// ErrLedgerUnavailable marks a query that could not be completed at all
	// (network or RPC failure). Fatal to the projection cycle that hit it,
	// never to the process.
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrRecordNotFound is returned for a token with no record on the
	// contract, e.g. probing an unminted token ID.
	ErrRecordNotFound = errors.New("record not found on ledger")

	// ErrTxTimeout means a submitted transaction was not confirmed within
	// the adapter's confirmation window.
	ErrTxTimeout = errors.New("transaction confirmation timed out")
)

// CodeInsufficientPayment is the gateway's machine-readable code for a call
// declined because the attached value did not cover the price.
const CodeInsufficientPayment = "insufficient_payment"

// RejectedError is a transaction the ledger declined. Code is the gateway's
// machine-readable rejection code when it supplied one; Reason carries the
// human-readable text verbatim.
type RejectedError struct {
	Code   string
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return "transaction rejected by ledger"
	}
	return "transaction rejected by ledger: " + e.Reason
}

// InsufficientPayment reports whether the rejection was for a short payment.
// Older gateways omit the code, so the reason text is the fallback.
func (e *RejectedError) InsufficientPayment() bool {
	if e.Code != "" {
		return e.Code == CodeInsufficientPayment
	}
	return strings.Contains(strings.ToLower(e.Reason), "payment")
}
