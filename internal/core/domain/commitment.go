package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strings"
	"time"
)

const (
	// HashHexLen is the length of a 0x-prefixed 32-byte hex string.
	HashHexLen = 66
	// AddressHexLen is the length of a 0x-prefixed 20-byte hex string.
	AddressHexLen = 42
)

// PaymentCommitment is the cryptographic binding point of a swap: the
// payment hash shared between the invoice and the on-chain lock, and the
// preimage revealed once the off-chain payment settles.
type PaymentCommitment struct {
	PaymentHash string
	Preimage    string
}

// Verify checks sha256(preimage) == paymentHash. This is the sole
// cryptographic linkage between the two ledgers; it must hold whenever
// both values are present.
func (c PaymentCommitment) Verify() error {
	preimage, err := hex.DecodeString(strip0x(c.Preimage))
	if err != nil {
		return Errf(ReasonPaymentFailed, "preimage is not valid hex")
	}
	if len(preimage) != 32 {
		return Errf(ReasonPaymentFailed, "preimage must be 32 bytes, got %d", len(preimage))
	}
	digest := sha256.Sum256(preimage)
	if hex.EncodeToString(digest[:]) != strings.ToLower(strip0x(c.PaymentHash)) {
		return Errf(ReasonPaymentFailed, "preimage does not hash to payment hash")
	}
	return nil
}

// Invoice is the off-chain payment instruction. AmountSat is fixed at
// creation; the invoice becomes permanently invalid after ExpiresAt.
type Invoice struct {
	PaymentRequest string
	PaymentHash    string
	AmountSat      uint64
	Description    string
	ExpiresAt      time.Time
}

func (i Invoice) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Lock is the on-chain HTLC record. It is owned by the external ledger;
// the core only observes it and never holds a mutable copy that can drift
// from ground truth.
type Lock struct {
	ContractId   string
	Sender       string
	TokenAddress string
	Amount       *big.Int
	PaymentHash  string
	Timelock     int64
	Withdrawn    bool
	Refunded     bool
	Preimage     string
}

// Resolved reports whether the lock has reached one of its two terminal
// states. Withdrawn and Refunded are mutually exclusive for the lifetime
// of the contract id.
func (l Lock) Resolved() bool {
	return l.Withdrawn || l.Refunded
}

func (l Lock) Refundable(now time.Time) bool {
	return !l.Resolved() && now.Unix() >= l.Timelock
}

// IsValidHash reports whether s is a 0x-prefixed 64-hex-digit string.
func IsValidHash(s string) bool {
	return isHexOfLen(s, HashHexLen)
}

// IsValidAddress reports whether s is a 0x-prefixed 40-hex-digit string.
func IsValidAddress(s string) bool {
	return isHexOfLen(s, AddressHexLen)
}

func isHexOfLen(s string, total int) bool {
	if len(s) != total || !strings.HasPrefix(s, "0x") {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

func strip0x(s string) string {
	return strings.TrimPrefix(s, "0x")
}
