package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/voltbridge/voltbridge/internal/core/domain"
	"github.com/voltbridge/voltbridge/internal/core/ports"
	"github.com/voltbridge/voltbridge/utils"
	log "github.com/sirupsen/logrus"
)

const minInvoiceExpirySec = 60

type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Service wires the payment rail and the HTLC ledger into the swap
// protocol steps. Each step is exposed as a non-mutating precheck and a
// mutating execute; callers that want the whole flow use RunSwap.
type Service struct {
	BuildInfo BuildInfo

	lnSvc        ports.LnService
	ledgerSvc    ports.HtlcLedger
	repoManager  ports.RepoManager
	schedulerSvc ports.SchedulerService

	tokenAddress string

	// clock for invoice expiry checks, swapped out in tests
	now func() time.Time
}

func NewService(
	buildInfo BuildInfo,
	lnSvc ports.LnService,
	ledgerSvc ports.HtlcLedger,
	repoManager ports.RepoManager,
	schedulerSvc ports.SchedulerService,
	tokenAddress string,
) (*Service, error) {
	if !domain.IsValidAddress(tokenAddress) {
		return nil, fmt.Errorf("invalid token address %q", tokenAddress)
	}
	return &Service{
		BuildInfo:    buildInfo,
		lnSvc:        lnSvc,
		ledgerSvc:    ledgerSvc,
		repoManager:  repoManager,
		schedulerSvc: schedulerSvc,
		tokenAddress: tokenAddress,
		now:          time.Now,
	}, nil
}

func (s *Service) TokenAddress() string {
	return s.tokenAddress
}

func (s *Service) SignerAddress() string {
	return s.ledgerSvc.SignerAddress()
}

type NodeInfo struct {
	Version       string
	WalletAlias   string
	WalletPubkey  string
	SignerAddress string
	TokenAddress  string
}

func (s *Service) GetInfo(ctx context.Context) (*NodeInfo, error) {
	alias, pubkey, err := s.lnSvc.GetInfo(ctx)
	if err != nil {
		return nil, err
	}
	return &NodeInfo{
		Version:       s.BuildInfo.Version,
		WalletAlias:   alias,
		WalletPubkey:  pubkey,
		SignerAddress: s.ledgerSvc.SignerAddress(),
		TokenAddress:  s.tokenAddress,
	}, nil
}

func (s *Service) Stop() {
	s.schedulerSvc.Stop()
	s.lnSvc.Disconnect()
	s.ledgerSvc.Close()
	s.repoManager.Close()
	log.Info("service stopped")
}

type CreateInvoiceRequest struct {
	AmountSat   uint64
	Description string
	ExpirySec   uint64
}

type CreateInvoiceResult struct {
	PaymentRequest string
	PaymentHash    string
	AmountSat      uint64
	ExpiresAt      time.Time
}

// PrecheckCreateInvoice validates the request without touching the
// payment rail beyond a connectivity check.
func (s *Service) PrecheckCreateInvoice(
	ctx context.Context, req CreateInvoiceRequest,
) error {
	if req.AmountSat == 0 {
		return domain.NewSwapError(domain.ReasonInvalidAmount, "amount must be positive")
	}
	if req.ExpirySec > 0 && req.ExpirySec < minInvoiceExpirySec {
		return domain.Errf(
			domain.ReasonConfigError,
			"invoice expiry must be at least %d seconds", minInvoiceExpirySec,
		)
	}
	if !s.lnSvc.IsConnected() {
		return domain.NewSwapError(
			domain.ReasonWalletConnectionFailed, "wallet is not connected",
		)
	}
	return nil
}

// CreateInvoice asks the payment rail for an invoice and returns it along
// with the payment hash the on-chain lock must be bound to. The hash comes
// from the rail, never from the caller.
func (s *Service) CreateInvoice(
	ctx context.Context, req CreateInvoiceRequest,
) (*CreateInvoiceResult, error) {
	if err := s.PrecheckCreateInvoice(ctx, req); err != nil {
		return nil, err
	}

	expirySec := req.ExpirySec
	if expirySec == 0 {
		expirySec = 3600
	}

	invoice, err := s.lnSvc.MakeInvoice(ctx, req.AmountSat, req.Description, expirySec)
	if err != nil {
		if domain.ReasonOf(err) != "" {
			return nil, err
		}
		return nil, domain.WrapSwapError(
			domain.ReasonInvoiceCreationFailed, "failed to create invoice", err,
		)
	}

	paymentHash := normalizeHash(invoice.PaymentHash)
	if !domain.IsValidHash(paymentHash) {
		return nil, domain.Errf(
			domain.ReasonInvoiceCreationFailed,
			"wallet returned a malformed payment hash %q", invoice.PaymentHash,
		)
	}

	// the lock will be bound to this hash, so it must be the one the
	// invoice actually pays to; the wallet's word alone is not enough
	decoded, err := utils.DecodeInvoice(invoice.PaymentRequest)
	if err != nil {
		return nil, domain.WrapSwapError(
			domain.ReasonInvoiceCreationFailed, "wallet returned an undecodable invoice", err,
		)
	}
	if normalizeHash(decoded.PaymentHash) != paymentHash {
		return nil, domain.Errf(
			domain.ReasonInvoiceCreationFailed,
			"wallet returned payment hash %s but the invoice pays to %s",
			paymentHash, normalizeHash(decoded.PaymentHash),
		)
	}

	log.Infof("created invoice for %d sats with payment hash %s", req.AmountSat, paymentHash)
	return &CreateInvoiceResult{
		PaymentRequest: invoice.PaymentRequest,
		PaymentHash:    paymentHash,
		AmountSat:      req.AmountSat,
		ExpiresAt:      invoice.ExpiresAt,
	}, nil
}

type ValidateInvoiceRequest struct {
	PaymentRequest    string
	ExpectedAmountSat uint64
}

type ValidateInvoiceResult struct {
	PaymentHash        string
	AmountSat          uint64
	Description        string
	ExpiresAt          time.Time
	AvailableLiquidity *uint64 // nil when the rail could not report balance
}

// ValidateInvoice decodes and checks an invoice before committing to pay
// it. The amount check is what prevents paying a different amount than
// what was locked on-chain.
func (s *Service) ValidateInvoice(
	ctx context.Context, req ValidateInvoiceRequest,
) (*ValidateInvoiceResult, error) {
	if !utils.HasInvoiceShape(req.PaymentRequest) {
		return nil, domain.NewSwapError(
			domain.ReasonInvalidInvoice, "not a BOLT11 payment request",
		)
	}

	decoded, err := utils.DecodeInvoice(req.PaymentRequest)
	if err != nil {
		return nil, domain.WrapSwapError(
			domain.ReasonInvalidInvoice, "failed to decode invoice", err,
		)
	}
	if decoded.AmountSat == 0 {
		return nil, domain.NewSwapError(
			domain.ReasonInvalidInvoice, "invoice carries no amount",
		)
	}
	if s.now().After(decoded.ExpiresAt) {
		return nil, domain.Errf(
			domain.ReasonInvoiceExpired, "invoice expired at %s", decoded.ExpiresAt,
		)
	}
	if req.ExpectedAmountSat > 0 && req.ExpectedAmountSat != decoded.AmountSat {
		return nil, domain.Errf(
			domain.ReasonAmountMismatch,
			"invoice is for %d sats, expected %d", decoded.AmountSat, req.ExpectedAmountSat,
		)
	}

	result := &ValidateInvoiceResult{
		PaymentHash: normalizeHash(decoded.PaymentHash),
		AmountSat:   decoded.AmountSat,
		Description: decoded.Description,
		ExpiresAt:   decoded.ExpiresAt,
	}

	// best-effort liquidity check; when the rail cannot answer, proceed
	// and let settlement fail instead
	if s.lnSvc.IsConnected() {
		balance, err := s.lnSvc.GetBalance(ctx)
		if err != nil {
			log.WithError(err).Warn("could not check wallet balance, skipping liquidity check")
		} else {
			result.AvailableLiquidity = &balance
			if balance < decoded.AmountSat {
				return nil, domain.Errf(
					domain.ReasonInsufficientLiquidity,
					"wallet balance %d sats is below invoice amount %d", balance, decoded.AmountSat,
				)
			}
		}
	}

	return result, nil
}

func normalizeHash(hash string) string {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if !strings.HasPrefix(hash, "0x") {
		hash = "0x" + hash
	}
	return hash
}
