package nwc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/voltbridge/voltbridge/internal/core/domain"
	"github.com/voltbridge/voltbridge/internal/core/ports"
	"github.com/voltbridge/voltbridge/pkg/nwc"
	log "github.com/sirupsen/logrus"
)

type service struct {
	client *nwc.Client
}

func NewService() ports.LnService {
	return &service{nil}
}

func (s *service) Connect(ctx context.Context, connectUrl string) error {
	client, err := nwc.Connect(ctx, connectUrl)
	if err != nil {
		return domain.WrapSwapError(
			domain.ReasonWalletConnectionFailed, "failed to connect to wallet", err,
		)
	}

	info, err := client.GetInfo(ctx)
	if err != nil {
		client.Close()
		return domain.WrapSwapError(
			domain.ReasonWalletConnectionFailed, "wallet did not answer get_info", err,
		)
	}

	s.client = client
	log.Infof("connected to wallet %s with pubkey %s", info.Alias, client.WalletPubkey())
	return nil
}

func (s *service) IsConnected() bool {
	return s.client != nil
}

func (s *service) Disconnect() {
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}

func (s *service) GetInfo(ctx context.Context) (string, string, error) {
	if !s.IsConnected() {
		return "", "", fmt.Errorf("not connected")
	}
	info, err := s.client.GetInfo(ctx)
	if err != nil {
		return "", "", err
	}
	return info.Alias, info.Pubkey, nil
}

func (s *service) GetBalance(ctx context.Context) (uint64, error) {
	if !s.IsConnected() {
		return 0, fmt.Errorf("not connected")
	}
	balance, err := s.client.GetBalance(ctx)
	if err != nil {
		return 0, err
	}
	return balance.BalanceMsat / 1000, nil
}

func (s *service) MakeInvoice(
	ctx context.Context, amountSat uint64, description string, expirySec uint64,
) (*ports.LnInvoice, error) {
	if !s.IsConnected() {
		return nil, fmt.Errorf("not connected")
	}
	resp, err := s.client.MakeInvoice(ctx, nwc.MakeInvoiceParams{
		AmountMsat:  amountSat * 1000,
		Description: description,
		ExpirySec:   expirySec,
	})
	if err != nil {
		return nil, domain.WrapSwapError(
			domain.ReasonInvoiceCreationFailed, "wallet rejected invoice creation", err,
		)
	}

	expiresAt := time.Unix(resp.ExpiresAt, 0)
	if resp.ExpiresAt == 0 {
		expiresAt = time.Now().Add(time.Duration(expirySec) * time.Second)
	}
	return &ports.LnInvoice{
		PaymentRequest: resp.Invoice,
		PaymentHash:    resp.PaymentHash,
		ExpiresAt:      expiresAt,
	}, nil
}

func (s *service) PayInvoice(ctx context.Context, invoice string) (*ports.LnPayment, error) {
	if !s.IsConnected() {
		return nil, fmt.Errorf("not connected")
	}
	resp, err := s.client.PayInvoice(ctx, nwc.PayInvoiceParams{Invoice: invoice})
	if err != nil {
		return nil, domain.WrapSwapError(payReason(err), "payment failed", err)
	}

	return &ports.LnPayment{
		Preimage: resp.Preimage,
		FeeSat:   resp.FeesPaidMsat / 1000,
	}, nil
}

func payReason(err error) domain.Reason {
	if strings.Contains(strings.ToLower(err.Error()), "route") {
		return domain.ReasonNoRouteFound
	}
	return domain.ReasonPaymentFailed
}
