package nwc

import "encoding/json"

// Nostr event kinds reserved for Wallet Connect (NIP-47).
const (
	KindWalletInfo     = 13194
	KindWalletRequest  = 23194
	KindWalletResponse = 23195
)

// Wallet methods consumed by this client.
const (
	MethodGetInfo     = "get_info"
	MethodGetBalance  = "get_balance"
	MethodMakeInvoice = "make_invoice"
	MethodPayInvoice  = "pay_invoice"
)

// Error codes a wallet may return in a response payload.
const (
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeNotImplemented      = "NOT_IMPLEMENTED"
	ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrCodePaymentFailed       = "PAYMENT_FAILED"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInternal            = "INTERNAL"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeOther               = "OTHER"
)

type Request struct {
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

type Response struct {
	ResultType string          `json:"result_type"`
	Error      *ResponseError  `json:"error,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type MakeInvoiceParams struct {
	AmountMsat  uint64 `json:"amount"`
	Description string `json:"description,omitempty"`
	ExpirySec   uint64 `json:"expiry,omitempty"`
}

type MakeInvoiceResult struct {
	Type        string `json:"type"`
	Invoice     string `json:"invoice"`
	PaymentHash string `json:"payment_hash"`
	AmountMsat  uint64 `json:"amount"`
	CreatedAt   int64  `json:"created_at"`
	ExpiresAt   int64  `json:"expires_at"`
}

type PayInvoiceParams struct {
	Invoice string `json:"invoice"`
}

type PayInvoiceResult struct {
	Preimage     string `json:"preimage"`
	FeesPaidMsat uint64 `json:"fees_paid"`
}

type GetBalanceResult struct {
	BalanceMsat uint64 `json:"balance"`
}

type GetInfoResult struct {
	Alias   string   `json:"alias"`
	Pubkey  string   `json:"pubkey"`
	Network string   `json:"network"`
	Methods []string `json:"methods"`
}
