package ports

import (
	"context"
	"math/big"

	"github.com/voltbridge/voltbridge/internal/core/domain"
)

// HtlcLedger is the on-chain HTLC port. State-changing calls are made on
// behalf of the delegation configured at construction; each returns only
// once the transaction reached the ledger's finality notion. Confirmation
// waits have no core-level timeout: a permanently stuck confirmation is an
// externally-reported condition, never a fabricated result.
type HtlcLedger interface {
	// SignerAddress is the 0x address on whose behalf state-changing
	// calls are broadcast.
	SignerAddress() string

	// ContractAddress is the HTLC contract, i.e. the spender tokens must
	// be approved for before a lock can be created.
	ContractAddress() string

	BalanceOf(ctx context.Context, token, owner string) (*big.Int, error)
	Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error)

	// GetLock reads the lock record for contractId from the ledger.
	GetLock(ctx context.Context, contractId string) (*domain.Lock, error)

	// CreateLock commits amount of token under paymentHash until timelock
	// and returns the created contract id with the transaction id.
	CreateLock(
		ctx context.Context, paymentHash string, timelock int64, token string, amount *big.Int,
	) (contractId string, txId string, err error)

	// Claim resolves the lock with the preimage. Any revert is reported as
	// a TransactionFailed swap error; partial success is never assumed.
	Claim(ctx context.Context, contractId, preimage string) (txId string, err error)

	// Refund reclaims the lock after its timelock elapsed.
	Refund(ctx context.Context, contractId string) (txId string, err error)

	Close()
}
