package ports

import (
	"context"
	"time"
)

// LnInvoice is the payment rail's answer to an invoice creation request.
type LnInvoice struct {
	PaymentRequest string
	PaymentHash    string
	ExpiresAt      time.Time
}

// LnPayment is the payment rail's answer to a pay request. FeeSat may be
// zero when the rail does not report fees.
type LnPayment struct {
	Preimage string
	FeeSat   uint64
}

// LnService is the payment rail port. A single long-lived connection is
// reused across calls within a process; implementations must serialize
// concurrent use of the underlying handle.
type LnService interface {
	Connect(ctx context.Context, connectUrl string) error
	IsConnected() bool
	GetInfo(ctx context.Context) (alias string, pubkey string, err error)
	GetBalance(ctx context.Context) (sats uint64, err error)
	MakeInvoice(
		ctx context.Context, amountSat uint64, description string, expirySec uint64,
	) (*LnInvoice, error)
	PayInvoice(ctx context.Context, invoice string) (*LnPayment, error)
	Disconnect()
}
