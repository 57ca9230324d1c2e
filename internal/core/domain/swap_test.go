package domain_test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/voltbridge/voltbridge/internal/core/domain"
)

var (
	testPreimage    = "0x" + hex.EncodeToString(make([]byte, 32))
	testPaymentHash = hashOf(testPreimage)
)

func hashOf(preimageHex string) string {
	raw, _ := hex.DecodeString(preimageHex[2:])
	digest := sha256.Sum256(raw)
	return "0x" + hex.EncodeToString(digest[:])
}

func newTestSwap() domain.SwapAttempt {
	return domain.NewSwapAttempt("swap-1", 1000, testPaymentHash, "lnbc10u1...")
}

func TestSwapLifecycle(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		swap := newTestSwap()
		require.Equal(t, domain.SwapCreated, swap.Status)
		require.False(t, swap.Status.Terminal())

		err := swap.MarkLocked("0xabc", "0xdef", 1893456000)
		require.NoError(t, err)
		require.Equal(t, domain.SwapLocked, swap.Status)
		require.Equal(t, "0xabc", swap.ContractId)
		require.Equal(t, int64(1893456000), swap.Timelock)

		err = swap.MarkSettled(testPreimage)
		require.NoError(t, err)
		require.Equal(t, domain.SwapSettled, swap.Status)
		require.Equal(t, testPreimage, swap.Preimage)

		err = swap.MarkWithdrawn("0xclaim")
		require.NoError(t, err)
		require.Equal(t, domain.SwapWithdrawn, swap.Status)
		require.Equal(t, "0xclaim", swap.RedeemTxId)
		require.True(t, swap.Status.Terminal())
	})

	t.Run("settle requires matching preimage", func(t *testing.T) {
		swap := newTestSwap()
		require.NoError(t, swap.MarkLocked("0xabc", "0xdef", 1893456000))

		wrong := "0x" + hex.EncodeToString(append(make([]byte, 31), 1))
		err := swap.MarkSettled(wrong)
		require.Error(t, err)
		require.Equal(t, domain.ReasonPaymentFailed, domain.ReasonOf(err))
		require.Equal(t, domain.SwapLocked, swap.Status)
		require.Empty(t, swap.Preimage)
	})

	t.Run("out of sequence transitions are rejected", func(t *testing.T) {
		swap := newTestSwap()

		// settle before lock
		err := swap.MarkSettled(testPreimage)
		require.Error(t, err)
		require.Equal(t, domain.ReasonOutOfSequence, domain.ReasonOf(err))

		// withdraw before settle
		err = swap.MarkWithdrawn("0xclaim")
		require.Error(t, err)
		require.Equal(t, domain.ReasonOutOfSequence, domain.ReasonOf(err))

		// refund straight from created
		err = swap.MarkRefunded("0xrefund")
		require.Error(t, err)
		require.Equal(t, domain.ReasonOutOfSequence, domain.ReasonOf(err))

		require.Equal(t, domain.SwapCreated, swap.Status)
	})

	t.Run("terminal states admit no further transition", func(t *testing.T) {
		swap := newTestSwap()
		require.NoError(t, swap.MarkLocked("0xabc", "0xdef", 1893456000))
		require.NoError(t, swap.MarkSettled(testPreimage))
		require.NoError(t, swap.MarkWithdrawn("0xclaim"))

		err := swap.MarkRefunded("0xrefund")
		require.Error(t, err)
		require.Equal(t, domain.ReasonOutOfSequence, domain.ReasonOf(err))
		require.Equal(t, domain.SwapWithdrawn, swap.Status)

		err = swap.MarkFailed()
		require.Error(t, err)
		require.Equal(t, domain.SwapWithdrawn, swap.Status)
	})

	t.Run("unknown can still settle or refund", func(t *testing.T) {
		swap := newTestSwap()
		require.NoError(t, swap.MarkLocked("0xabc", "0xdef", 1893456000))
		require.NoError(t, swap.MarkUnknown())
		require.Equal(t, domain.SwapUnknown, swap.Status)
		require.False(t, swap.Status.Terminal())

		require.NoError(t, swap.MarkSettled(testPreimage))
		require.NoError(t, swap.MarkWithdrawn("0xclaim"))

		other := newTestSwap()
		require.NoError(t, other.MarkLocked("0xabc", "0xdef", 1893456000))
		require.NoError(t, other.MarkUnknown())
		require.NoError(t, other.MarkRefunded("0xrefund"))
		require.Equal(t, domain.SwapRefunded, other.Status)
	})

	t.Run("statuses have stable names", func(t *testing.T) {
		require.Equal(t, "created", domain.SwapCreated.String())
		require.Equal(t, "locked", domain.SwapLocked.String())
		require.Equal(t, "settled", domain.SwapSettled.String())
		require.Equal(t, "withdrawn", domain.SwapWithdrawn.String())
		require.Equal(t, "refunded", domain.SwapRefunded.String())
		require.Equal(t, "unknown", domain.SwapUnknown.String())
		require.Equal(t, "failed", domain.SwapFailed.String())
	})
}
