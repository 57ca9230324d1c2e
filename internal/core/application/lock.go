package application

import (
	"context"
	"math/big"
	"time"

	"github.com/voltbridge/voltbridge/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

type LockFundsRequest struct {
	PaymentHash string
	Timelock    int64  // absolute unix seconds
	Amount      string // token base units
}

type LockFundsPrecheck struct {
	Balance             string
	Allowance           string
	SufficientBalance   bool
	SufficientAllowance bool
}

type LockFundsResult struct {
	ContractId string
	TxId       string
	Timelock   int64
}

// PrecheckLockFunds runs every check that can run without a
// state-changing call: hash format, timelock ordering, balance and
// allowance reads. A missing allowance is reported, not fatal; it only
// means the subsequent createLock would revert.
func (s *Service) PrecheckLockFunds(
	ctx context.Context, req LockFundsRequest,
) (*LockFundsPrecheck, error) {
	amount, err := s.validateLockRequest(req)
	if err != nil {
		return nil, err
	}

	owner := s.ledgerSvc.SignerAddress()
	balance, err := s.ledgerSvc.BalanceOf(ctx, s.tokenAddress, owner)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(amount) < 0 {
		return nil, domain.Errf(
			domain.ReasonInsufficientBalance,
			"token balance %s is below lock amount %s", balance, amount,
		)
	}

	allowance, err := s.ledgerSvc.Allowance(
		ctx, s.tokenAddress, owner, s.ledgerSvc.ContractAddress(),
	)
	if err != nil {
		return nil, err
	}

	return &LockFundsPrecheck{
		Balance:             balance.String(),
		Allowance:           allowance.String(),
		SufficientBalance:   true,
		SufficientAllowance: allowance.Cmp(amount) >= 0,
	}, nil
}

// LockFunds commits tokens on the ledger under the payment hash. On
// success a lock exists on-chain, unresolved, with the given hash and
// timelock.
func (s *Service) LockFunds(
	ctx context.Context, req LockFundsRequest,
) (*LockFundsResult, error) {
	if _, err := s.PrecheckLockFunds(ctx, req); err != nil {
		return nil, err
	}

	amount, _ := new(big.Int).SetString(req.Amount, 10)
	contractId, txId, err := s.ledgerSvc.CreateLock(
		ctx, req.PaymentHash, req.Timelock, s.tokenAddress, amount,
	)
	if err != nil {
		return nil, err
	}

	log.Infof("locked %s tokens under %s, contract id %s", req.Amount, req.PaymentHash, contractId)
	return &LockFundsResult{ContractId: contractId, TxId: txId, Timelock: req.Timelock}, nil
}

func (s *Service) validateLockRequest(req LockFundsRequest) (*big.Int, error) {
	if !domain.IsValidHash(req.PaymentHash) {
		return nil, domain.Errf(
			domain.ReasonInvalidPaymentHash,
			"payment hash must be a 0x-prefixed 32-byte hex string",
		)
	}
	if req.Timelock <= time.Now().Unix() {
		return nil, domain.NewSwapError(
			domain.ReasonInvalidTimelock, "timelock must be in the future",
		)
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, domain.Errf(domain.ReasonInvalidAmount, "invalid lock amount %q", req.Amount)
	}
	return amount, nil
}

type ClaimLockRequest struct {
	ContractId string
	Preimage   string
}

type ClaimLockResult struct {
	TxId string
}

// PrecheckClaimLock reads the lock and verifies the preimage locally. The
// cached lock state only pre-guards: the ledger stays authoritative in
// case of a race with a refund.
func (s *Service) PrecheckClaimLock(ctx context.Context, req ClaimLockRequest) (*domain.Lock, error) {
	if !domain.IsValidHash(req.ContractId) {
		return nil, domain.NewSwapError(domain.ReasonContractError, "invalid contract id")
	}

	lock, err := s.ledgerSvc.GetLock(ctx, req.ContractId)
	if err != nil {
		return nil, err
	}
	if lock.Withdrawn {
		return nil, domain.Errf(
			domain.ReasonTransactionFailed, "lock %s already withdrawn", req.ContractId,
		)
	}
	if lock.Refunded {
		return nil, domain.Errf(
			domain.ReasonTransactionFailed, "lock %s already refunded", req.ContractId,
		)
	}

	commitment := domain.PaymentCommitment{
		PaymentHash: lock.PaymentHash, Preimage: req.Preimage,
	}
	if err := commitment.Verify(); err != nil {
		return nil, err
	}
	return lock, nil
}

// ClaimLock resolves the lock to withdrawn using the preimage.
func (s *Service) ClaimLock(ctx context.Context, req ClaimLockRequest) (*ClaimLockResult, error) {
	if _, err := s.PrecheckClaimLock(ctx, req); err != nil {
		return nil, err
	}

	txId, err := s.ledgerSvc.Claim(ctx, req.ContractId, req.Preimage)
	if err != nil {
		return nil, err
	}

	log.Infof("claimed lock %s with tx %s", req.ContractId, txId)
	return &ClaimLockResult{TxId: txId}, nil
}

type RefundLockRequest struct {
	ContractId string
}

type RefundLockResult struct {
	TxId string
}

// PrecheckRefundLock reads the lock and checks the timelock elapsed.
func (s *Service) PrecheckRefundLock(ctx context.Context, req RefundLockRequest) (*domain.Lock, error) {
	if !domain.IsValidHash(req.ContractId) {
		return nil, domain.NewSwapError(domain.ReasonContractError, "invalid contract id")
	}

	lock, err := s.ledgerSvc.GetLock(ctx, req.ContractId)
	if err != nil {
		return nil, err
	}
	if lock.Resolved() {
		return nil, domain.Errf(
			domain.ReasonTransactionFailed, "lock %s is already resolved", req.ContractId,
		)
	}
	if !lock.Refundable(time.Now()) {
		return nil, domain.Errf(
			domain.ReasonInvalidTimelock,
			"lock %s is not refundable before %d", req.ContractId, lock.Timelock,
		)
	}
	return lock, nil
}

// RefundLock resolves an expired lock back to its sender.
func (s *Service) RefundLock(ctx context.Context, req RefundLockRequest) (*RefundLockResult, error) {
	if _, err := s.PrecheckRefundLock(ctx, req); err != nil {
		return nil, err
	}

	txId, err := s.ledgerSvc.Refund(ctx, req.ContractId)
	if err != nil {
		return nil, err
	}

	log.Infof("refunded lock %s with tx %s", req.ContractId, txId)
	return &RefundLockResult{TxId: txId}, nil
}
