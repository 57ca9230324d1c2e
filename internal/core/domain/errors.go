package domain

import (
	"errors"
	"fmt"
)

// Reason is a machine-readable failure code attached to every swap error.
type Reason string

const (
	// Precondition failures, detected locally before any state-changing call.
	ReasonInvalidInvoice        Reason = "InvalidInvoice"
	ReasonInvoiceExpired        Reason = "InvoiceExpired"
	ReasonAmountMismatch        Reason = "AmountMismatch"
	ReasonInsufficientLiquidity Reason = "InsufficientLiquidity"
	ReasonInvalidAmount         Reason = "InvalidAmount"
	ReasonInvalidPaymentHash    Reason = "InvalidPaymentHash"
	ReasonInvalidTimelock       Reason = "InvalidTimelock"
	ReasonInsufficientBalance   Reason = "InsufficientBalance"
	ReasonContractError         Reason = "ContractError"
	ReasonConfigError           Reason = "ConfigError"
	ReasonOutOfSequence         Reason = "OutOfSequence"

	// Settlement-layer failures.
	ReasonWalletConnectionFailed Reason = "WalletConnectionFailed"
	ReasonNoRouteFound           Reason = "NoRouteFound"
	ReasonPaymentFailed          Reason = "PaymentFailed"
	ReasonInvoiceCreationFailed  Reason = "InvoiceCreationFailed"

	// On-chain revert or failed confirmation.
	ReasonTransactionFailed Reason = "TransactionFailed"
)

// SwapError carries a reason code for programmatic handling next to the
// human-readable message. Adapters wrap the triggering error with %w so the
// original cause stays inspectable.
type SwapError struct {
	Reason  Reason
	Message string
	Err     error
}

func (e *SwapError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *SwapError) Unwrap() error {
	return e.Err
}

func NewSwapError(reason Reason, message string) *SwapError {
	return &SwapError{Reason: reason, Message: message}
}

func WrapSwapError(reason Reason, message string, err error) *SwapError {
	return &SwapError{Reason: reason, Message: message, Err: err}
}

func Errf(reason Reason, format string, args ...interface{}) *SwapError {
	return &SwapError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the reason code from err, or empty if err is not a SwapError.
func ReasonOf(err error) Reason {
	var swapErr *SwapError
	if errors.As(err, &swapErr) {
		return swapErr.Reason
	}
	return ""
}
