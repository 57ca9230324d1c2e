package application

import (
	"context"
	"time"

	"github.com/voltbridge/voltbridge/internal/core/domain"
	"github.com/voltbridge/voltbridge/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

type PayInvoiceRequest struct {
	PaymentRequest    string
	ExpectedAmountSat uint64
	MaxFeeSat         uint64
	TimeoutSeconds    uint64 // 0 means wait indefinitely
}

type PayInvoiceResult struct {
	Preimage    string
	PaymentHash string
	AmountSat   uint64
	FeeSat      uint64
	TotalSat    uint64
	Timestamp   time.Time
}

// PayInvoice pays the invoice and returns the preimage. The preimage is
// verified against the invoice's payment hash before success is reported;
// a rail that claims success with a preimage that cannot unlock the lock
// is treated as a failed payment.
func (s *Service) PayInvoice(
	ctx context.Context, req PayInvoiceRequest,
) (*PayInvoiceResult, error) {
	validated, err := s.ValidateInvoice(ctx, ValidateInvoiceRequest{
		PaymentRequest:    req.PaymentRequest,
		ExpectedAmountSat: req.ExpectedAmountSat,
	})
	if err != nil {
		return nil, err
	}

	payCtx := ctx
	if req.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		payCtx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	payment, err := s.lnSvc.PayInvoice(payCtx, req.PaymentRequest)
	if err != nil {
		if payCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			// the payment was submitted and may still settle; the true
			// status is unknown, not failed. The deadline error stays
			// wrapped so callers can tell the two apart.
			return nil, domain.WrapSwapError(
				domain.ReasonPaymentFailed,
				"payment timed out, outcome unknown", context.DeadlineExceeded,
			)
		}
		if domain.ReasonOf(err) != "" {
			return nil, err
		}
		return nil, domain.WrapSwapError(domain.ReasonPaymentFailed, "payment failed", err)
	}

	if req.MaxFeeSat > 0 && payment.FeeSat > req.MaxFeeSat {
		log.Warnf(
			"payment fee %d sats exceeded the requested cap %d", payment.FeeSat, req.MaxFeeSat,
		)
	}

	result, err := s.verifySettlement(validated, payment)
	if err != nil {
		return nil, err
	}

	log.Infof(
		"paid invoice for %d sats, fee %d, preimage %s",
		result.AmountSat, result.FeeSat, result.Preimage,
	)
	return result, nil
}

func (s *Service) verifySettlement(
	invoice *ValidateInvoiceResult, payment *ports.LnPayment,
) (*PayInvoiceResult, error) {
	preimage := normalizeHash(payment.Preimage)
	if !domain.IsValidHash(preimage) {
		return nil, domain.Errf(
			domain.ReasonPaymentFailed,
			"rail returned a malformed preimage %q", payment.Preimage,
		)
	}

	commitment := domain.PaymentCommitment{
		PaymentHash: invoice.PaymentHash, Preimage: preimage,
	}
	if err := commitment.Verify(); err != nil {
		return nil, err
	}

	return &PayInvoiceResult{
		Preimage:    preimage,
		PaymentHash: invoice.PaymentHash,
		AmountSat:   invoice.AmountSat,
		FeeSat:      payment.FeeSat,
		TotalSat:    invoice.AmountSat + payment.FeeSat,
		Timestamp:   time.Now(),
	}, nil
}
