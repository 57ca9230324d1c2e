package utils

import (
	"strings"
	"time"

	decodepay "github.com/nbd-wtf/ln-decodepay"
)

// DecodedInvoice is the subset of a BOLT11 invoice the swap flow relies on.
type DecodedInvoice struct {
	PaymentHash string // hex, 64 chars
	AmountSat   uint64
	Description string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

var invoicePrefixes = []string{"lnbc", "lntb", "lnbcrt"}

// HasInvoiceShape reports whether s looks like a BOLT11 payment request:
// "ln" followed by a known network tag. Anything else must be rejected
// before attempting a full decode.
func HasInvoiceShape(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	for _, prefix := range invoicePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func DecodeInvoice(invoice string) (*DecodedInvoice, error) {
	bolt11, err := decodepay.Decodepay(strings.TrimSpace(invoice))
	if err != nil {
		return nil, err
	}

	createdAt := time.Unix(int64(bolt11.CreatedAt), 0)
	return &DecodedInvoice{
		PaymentHash: bolt11.PaymentHash,
		AmountSat:   uint64(bolt11.MSatoshi / 1000),
		Description: bolt11.Description,
		CreatedAt:   createdAt,
		ExpiresAt:   createdAt.Add(time.Duration(bolt11.Expiry) * time.Second),
	}, nil
}

func SatsFromInvoice(invoice string) uint64 {
	decoded, err := DecodeInvoice(invoice)
	if err != nil {
		return 0
	}
	return decoded.AmountSat
}

func IsValidInvoice(invoice string) bool {
	return HasInvoiceShape(invoice) && SatsFromInvoice(invoice) > 0
}
