package domain

import (
	"context"
	"time"
)

type SwapStatus int

const (
	// SwapCreated: invoice obtained, nothing committed on-chain yet.
	SwapCreated SwapStatus = iota
	// SwapLocked: tokens locked under the payment hash, invoice unpaid.
	SwapLocked
	// SwapSettled: invoice paid, preimage held, claim not yet confirmed.
	SwapSettled
	// SwapWithdrawn: lock claimed with the preimage. Terminal.
	SwapWithdrawn
	// SwapRefunded: lock reclaimed after timelock expiry. Terminal.
	SwapRefunded
	// SwapUnknown: settlement timed out, payment outcome unresolved. The
	// underlying payment may still settle out-of-band; callers must not
	// treat this as a hard failure.
	SwapUnknown
	// SwapFailed: a step failed before any ambiguity arose. Terminal.
	SwapFailed
)

func (s SwapStatus) String() string {
	switch s {
	case SwapCreated:
		return "created"
	case SwapLocked:
		return "locked"
	case SwapSettled:
		return "settled"
	case SwapWithdrawn:
		return "withdrawn"
	case SwapRefunded:
		return "refunded"
	case SwapUnknown:
		return "unknown"
	case SwapFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// Terminal reports whether no further transition is allowed from s.
func (s SwapStatus) Terminal() bool {
	return s == SwapWithdrawn || s == SwapRefunded || s == SwapFailed
}

// allowed transitions; anything else is rejected with OutOfSequence
var swapTransitions = map[SwapStatus][]SwapStatus{
	SwapCreated: {SwapLocked, SwapFailed},
	SwapLocked:  {SwapSettled, SwapUnknown, SwapRefunded, SwapFailed},
	SwapSettled: {SwapWithdrawn, SwapRefunded, SwapFailed},
	SwapUnknown: {SwapSettled, SwapWithdrawn, SwapRefunded},
}

// SwapAttempt aggregates one payment commitment, one invoice and one lock
// for a single orchestration run. Callers do not get to pick the call
// order: transitions outside the protocol sequence are rejected instead of
// trusted.
type SwapAttempt struct {
	Id           string
	Timestamp    int64
	Status       SwapStatus
	AmountSat    uint64
	TokenAmount  string // base units, string-encoded to avoid precision loss
	TokenAddress string
	PaymentHash  string
	Invoice      string
	Preimage     string
	ContractId   string
	Timelock     int64
	LockTxId     string
	RedeemTxId   string // the txid that resolved the lock, by either "claiming" or "refunding"
}

func NewSwapAttempt(id string, amountSat uint64, paymentHash, invoice string) SwapAttempt {
	return SwapAttempt{
		Id:          id,
		Timestamp:   time.Now().Unix(),
		Status:      SwapCreated,
		AmountSat:   amountSat,
		PaymentHash: paymentHash,
		Invoice:     invoice,
	}
}

func (s *SwapAttempt) transition(to SwapStatus) error {
	for _, next := range swapTransitions[s.Status] {
		if next == to {
			s.Status = to
			return nil
		}
	}
	return Errf(
		ReasonOutOfSequence,
		"swap %s: illegal transition %s -> %s", s.Id, s.Status, to,
	)
}

func (s *SwapAttempt) MarkLocked(contractId, lockTxId string, timelock int64) error {
	if err := s.transition(SwapLocked); err != nil {
		return err
	}
	s.ContractId = contractId
	s.LockTxId = lockTxId
	s.Timelock = timelock
	return nil
}

func (s *SwapAttempt) MarkSettled(preimage string) error {
	commitment := PaymentCommitment{PaymentHash: s.PaymentHash, Preimage: preimage}
	if err := commitment.Verify(); err != nil {
		return err
	}
	if err := s.transition(SwapSettled); err != nil {
		return err
	}
	s.Preimage = preimage
	return nil
}

func (s *SwapAttempt) MarkUnknown() error {
	return s.transition(SwapUnknown)
}

func (s *SwapAttempt) MarkWithdrawn(redeemTxId string) error {
	if err := s.transition(SwapWithdrawn); err != nil {
		return err
	}
	s.RedeemTxId = redeemTxId
	return nil
}

func (s *SwapAttempt) MarkRefunded(redeemTxId string) error {
	if err := s.transition(SwapRefunded); err != nil {
		return err
	}
	s.RedeemTxId = redeemTxId
	return nil
}

func (s *SwapAttempt) MarkFailed() error {
	return s.transition(SwapFailed)
}

// SwapRepository stores the swap attempts initiated by this node.
type SwapRepository interface {
	GetAll(ctx context.Context) ([]SwapAttempt, error)
	Get(ctx context.Context, swapId string) (*SwapAttempt, error)
	Add(ctx context.Context, swap SwapAttempt) error
	Update(ctx context.Context, swap SwapAttempt) error
	Close()
}
