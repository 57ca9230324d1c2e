package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/voltbridge/voltbridge/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

// refundDelayBuffer keeps the scheduled refund clear of the ledger's
// timestamp granularity around the timelock boundary.
const refundDelayBuffer = 10 * time.Second

type RunSwapRequest struct {
	AmountSat            uint64
	TokenAmount          string // base units to lock on-chain
	Description          string
	TimelockSeconds      int64 // how far ahead the lock expiry is set
	SettleTimeoutSeconds uint64
}

// RunSwap executes the full protocol: invoice, lock, settlement, claim.
// Steps run strictly in sequence; the only detour is the refund path once
// the timelock elapses. The returned attempt reflects how far the run got,
// including the explicit unknown status on a settlement timeout.
func (s *Service) RunSwap(
	ctx context.Context, req RunSwapRequest,
) (*domain.SwapAttempt, error) {
	if req.TimelockSeconds <= 0 {
		return nil, domain.NewSwapError(
			domain.ReasonInvalidTimelock, "timelock duration must be positive",
		)
	}

	invoice, err := s.CreateInvoice(ctx, CreateInvoiceRequest{
		AmountSat:   req.AmountSat,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}

	swap := domain.NewSwapAttempt(
		uuid.NewString(), req.AmountSat, invoice.PaymentHash, invoice.PaymentRequest,
	)
	swap.TokenAmount = req.TokenAmount
	swap.TokenAddress = s.tokenAddress
	repo := s.repoManager.Swaps()
	if err := repo.Add(ctx, swap); err != nil {
		return nil, err
	}

	fail := func(failErr error) (*domain.SwapAttempt, error) {
		if err := swap.MarkFailed(); err == nil {
			s.update(ctx, swap)
		}
		return &swap, failErr
	}

	timelock := time.Now().Unix() + req.TimelockSeconds
	lock, err := s.LockFunds(ctx, LockFundsRequest{
		PaymentHash: invoice.PaymentHash,
		Timelock:    timelock,
		Amount:      req.TokenAmount,
	})
	if err != nil {
		return fail(err)
	}
	if err := swap.MarkLocked(lock.ContractId, lock.TxId, lock.Timelock); err != nil {
		return fail(err)
	}
	s.update(ctx, swap)

	payment, err := s.PayInvoice(ctx, PayInvoiceRequest{
		PaymentRequest:    invoice.PaymentRequest,
		ExpectedAmountSat: req.AmountSat,
		TimeoutSeconds:    req.SettleTimeoutSeconds,
	})
	if err != nil {
		// funds are locked on-chain either way, so a refund is scheduled
		// for the timelock; a timed-out payment additionally parks the
		// swap in the unknown state instead of failing it
		s.scheduleRefund(swap)
		if errors.Is(err, context.DeadlineExceeded) {
			if markErr := swap.MarkUnknown(); markErr == nil {
				s.update(ctx, swap)
			}
		}
		return &swap, err
	}

	if err := swap.MarkSettled(payment.Preimage); err != nil {
		s.scheduleRefund(swap)
		return &swap, err
	}
	s.update(ctx, swap)

	claim, err := s.ClaimLock(ctx, ClaimLockRequest{
		ContractId: swap.ContractId,
		Preimage:   swap.Preimage,
	})
	if err != nil {
		// the preimage is ours now; the claim can be retried until the
		// timelock, after which the refund path takes over
		s.scheduleRefund(swap)
		return &swap, err
	}

	if err := swap.MarkWithdrawn(claim.TxId); err != nil {
		return &swap, err
	}
	s.update(ctx, swap)

	log.Infof("swap %s completed, claim tx %s", swap.Id, claim.TxId)
	return &swap, nil
}

func (s *Service) GetSwaps(ctx context.Context) ([]domain.SwapAttempt, error) {
	return s.repoManager.Swaps().GetAll(ctx)
}

func (s *Service) GetSwap(ctx context.Context, swapId string) (*domain.SwapAttempt, error) {
	return s.repoManager.Swaps().Get(ctx, swapId)
}

// ResumePendingSwaps re-arms the refund path for swaps whose lock was
// still unresolved when the process last stopped.
func (s *Service) ResumePendingSwaps(ctx context.Context) error {
	swaps, err := s.repoManager.Swaps().GetAll(ctx)
	if err != nil {
		return err
	}

	for _, swap := range swaps {
		if swap.Status.Terminal() || swap.ContractId == "" {
			continue
		}

		lock, err := s.ledgerSvc.GetLock(ctx, swap.ContractId)
		if err != nil {
			log.WithError(err).Warnf("could not read lock for swap %s", swap.Id)
			continue
		}
		if lock.Resolved() {
			s.reconcile(ctx, swap, lock)
			continue
		}

		// a held preimage means settlement happened: claim beats refund
		if swap.Preimage != "" {
			if claim, err := s.ClaimLock(ctx, ClaimLockRequest{
				ContractId: swap.ContractId, Preimage: swap.Preimage,
			}); err == nil {
				if err := swap.MarkWithdrawn(claim.TxId); err != nil {
					log.WithError(err).Warnf("could not record claim of swap %s", swap.Id)
					continue
				}
				s.update(ctx, swap)
				continue
			}
		}
		s.scheduleRefund(swap)
	}
	return nil
}

// reconcile aligns a stored attempt with a lock that resolved while the
// process was down.
func (s *Service) reconcile(ctx context.Context, swap domain.SwapAttempt, lock *domain.Lock) {
	var err error
	if lock.Withdrawn {
		err = swap.MarkWithdrawn(swap.RedeemTxId)
	} else {
		err = swap.MarkRefunded(swap.RedeemTxId)
	}
	if err != nil {
		log.WithError(err).Warnf("could not reconcile swap %s", swap.Id)
		return
	}
	s.update(ctx, swap)
}

func (s *Service) scheduleRefund(swap domain.SwapAttempt) {
	at := time.Unix(swap.Timelock, 0).Add(refundDelayBuffer)
	err := s.schedulerSvc.ScheduleRefundAtTime(at, func() {
		ctx := context.Background()
		refund, err := s.RefundLock(ctx, RefundLockRequest{ContractId: swap.ContractId})
		if err != nil {
			log.WithError(err).Errorf("scheduled refund of swap %s failed", swap.Id)
			return
		}
		if err := swap.MarkRefunded(refund.TxId); err != nil {
			log.WithError(err).Warnf("could not record refund of swap %s", swap.Id)
			return
		}
		s.update(ctx, swap)
	})
	if err != nil {
		log.WithError(err).Errorf("could not schedule refund of swap %s", swap.Id)
		return
	}
	log.Infof("refund of swap %s scheduled for %s", swap.Id, at)
}

func (s *Service) update(ctx context.Context, swap domain.SwapAttempt) {
	if err := s.repoManager.Swaps().Update(ctx, swap); err != nil {
		log.WithError(err).Warnf("failed to persist swap %s", swap.Id)
	}
}
