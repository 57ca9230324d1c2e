package domain_test

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/voltbridge/voltbridge/internal/core/domain"
)

func TestPaymentCommitment(t *testing.T) {
	t.Run("valid preimage", func(t *testing.T) {
		c := domain.PaymentCommitment{
			PaymentHash: testPaymentHash,
			Preimage:    testPreimage,
		}
		require.NoError(t, c.Verify())
	})

	t.Run("unprefixed and mixed case still verify", func(t *testing.T) {
		c := domain.PaymentCommitment{
			PaymentHash: testPaymentHash[2:],
			Preimage:    testPreimage[2:],
		}
		require.NoError(t, c.Verify())
	})

	t.Run("wrong preimage", func(t *testing.T) {
		c := domain.PaymentCommitment{
			PaymentHash: testPaymentHash,
			Preimage:    "0x" + hex.EncodeToString(append(make([]byte, 31), 1)),
		}
		err := c.Verify()
		require.Error(t, err)
		require.Equal(t, domain.ReasonPaymentFailed, domain.ReasonOf(err))
	})

	t.Run("short preimage is rejected before hashing", func(t *testing.T) {
		// 16 bytes hashes to something, but only 32-byte preimages can
		// resolve the on-chain lock
		c := domain.PaymentCommitment{
			PaymentHash: testPaymentHash,
			Preimage:    "0x" + hex.EncodeToString(make([]byte, 16)),
		}
		err := c.Verify()
		require.Error(t, err)
		require.ErrorContains(t, err, "32 bytes")
	})

	t.Run("non-hex preimage", func(t *testing.T) {
		c := domain.PaymentCommitment{
			PaymentHash: testPaymentHash,
			Preimage:    "not-hex",
		}
		require.Error(t, c.Verify())
	})
}

func TestLock(t *testing.T) {
	now := time.Now()

	t.Run("pending lock", func(t *testing.T) {
		lock := domain.Lock{Timelock: now.Add(time.Hour).Unix()}
		require.False(t, lock.Resolved())
		require.False(t, lock.Refundable(now))
	})

	t.Run("expired lock is refundable", func(t *testing.T) {
		lock := domain.Lock{Timelock: now.Add(-time.Hour).Unix()}
		require.False(t, lock.Resolved())
		require.True(t, lock.Refundable(now))
	})

	t.Run("resolved lock is never refundable", func(t *testing.T) {
		withdrawn := domain.Lock{Withdrawn: true, Timelock: now.Add(-time.Hour).Unix()}
		require.True(t, withdrawn.Resolved())
		require.False(t, withdrawn.Refundable(now))

		refunded := domain.Lock{Refunded: true, Timelock: now.Add(-time.Hour).Unix()}
		require.True(t, refunded.Resolved())
		require.False(t, refunded.Refundable(now))
	})
}

func TestHexValidators(t *testing.T) {
	require.True(t, domain.IsValidHash(testPaymentHash))
	require.False(t, domain.IsValidHash(testPaymentHash[2:]))
	require.False(t, domain.IsValidHash("0x1234"))
	require.False(t, domain.IsValidHash(""))
	require.False(t, domain.IsValidHash("0x"+strings.Repeat("g", 64)))

	require.True(t, domain.IsValidAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"))
	require.False(t, domain.IsValidAddress("5FbDB2315678afecb367f032d93F642f64180aa3"))
	require.False(t, domain.IsValidAddress("0x5FbDB2315678afecb367f032d93F642f64180aa"))
	require.False(t, domain.IsValidAddress(testPaymentHash))
}
