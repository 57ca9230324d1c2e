package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/voltbridge/voltbridge/internal/core/application"
	"github.com/voltbridge/voltbridge/internal/core/domain"
)

// Ability names exposed by this node. Every ability is reachable twice:
// precheck never mutates anything, execute performs the step.
const (
	abilityCreateInvoice   = "create-invoice"
	abilityValidateInvoice = "validate-invoice"
	abilityLockFunds       = "lock-funds"
	abilityPayInvoice      = "pay-invoice"
	abilityClaimLock       = "claim-lock"
	abilityRefundLock      = "refund-lock"
)

type handler struct {
	svc *application.Service
}

// abilityRequest is the uniform caller-facing request shape.
type abilityRequest struct {
	Parameters struct {
		AmountSat         uint64 `json:"amountSat"`
		Description       string `json:"description"`
		ExpirySec         uint64 `json:"expirySec"`
		PaymentRequest    string `json:"paymentRequest"`
		ExpectedAmountSat uint64 `json:"expectedAmountSat"`
		PaymentHash       string `json:"paymentHash"`
		Timelock          int64  `json:"timelock"`
		Amount            string `json:"amount"`
		MaxFeeSat         uint64 `json:"maxFeeSat"`
		TimeoutSeconds    uint64 `json:"timeoutSeconds"`
		ContractId        string `json:"contractId"`
		Preimage          string `json:"preimage"`
	} `json:"parameters"`
}

func (h *handler) precheck(c *gin.Context) {
	h.dispatch(c, false)
}

func (h *handler) execute(c *gin.Context) {
	h.dispatch(c, true)
}

func (h *handler) dispatch(c *gin.Context, mutate bool) {
	var req abilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, domain.WrapSwapError(domain.ReasonConfigError, "invalid request body", err))
		return
	}
	params := req.Parameters
	ctx := c.Request.Context()

	switch c.Param("name") {
	case abilityCreateInvoice:
		r := application.CreateInvoiceRequest{
			AmountSat:   params.AmountSat,
			Description: params.Description,
			ExpirySec:   params.ExpirySec,
		}
		if !mutate {
			if err := h.svc.PrecheckCreateInvoice(ctx, r); err != nil {
				fail(c, err)
				return
			}
			succeed(c, gin.H{"valid": true})
			return
		}
		invoice, err := h.svc.CreateInvoice(ctx, r)
		if err != nil {
			fail(c, err)
			return
		}
		succeed(c, gin.H{
			"paymentRequest": invoice.PaymentRequest,
			"paymentHash":    invoice.PaymentHash,
			"amountSat":      invoice.AmountSat,
			"expiresAt":      invoice.ExpiresAt.Unix(),
		})

	case abilityValidateInvoice:
		// validation is non-mutating; precheck and execute coincide
		result, err := h.svc.ValidateInvoice(ctx, application.ValidateInvoiceRequest{
			PaymentRequest:    params.PaymentRequest,
			ExpectedAmountSat: params.ExpectedAmountSat,
		})
		if err != nil {
			fail(c, err)
			return
		}
		data := gin.H{
			"paymentHash": result.PaymentHash,
			"amountSat":   result.AmountSat,
			"description": result.Description,
			"expiresAt":   result.ExpiresAt.Unix(),
		}
		if result.AvailableLiquidity != nil {
			data["availableLiquidity"] = *result.AvailableLiquidity
		}
		succeed(c, data)

	case abilityLockFunds:
		r := application.LockFundsRequest{
			PaymentHash: params.PaymentHash,
			Timelock:    params.Timelock,
			Amount:      params.Amount,
		}
		if !mutate {
			check, err := h.svc.PrecheckLockFunds(ctx, r)
			if err != nil {
				fail(c, err)
				return
			}
			succeed(c, gin.H{
				"balance":             check.Balance,
				"allowance":           check.Allowance,
				"sufficientBalance":   check.SufficientBalance,
				"sufficientAllowance": check.SufficientAllowance,
			})
			return
		}
		lock, err := h.svc.LockFunds(ctx, r)
		if err != nil {
			fail(c, err)
			return
		}
		succeed(c, gin.H{
			"contractId": lock.ContractId,
			"txId":       lock.TxId,
			"timelock":   lock.Timelock,
		})

	case abilityPayInvoice:
		r := application.PayInvoiceRequest{
			PaymentRequest:    params.PaymentRequest,
			ExpectedAmountSat: params.ExpectedAmountSat,
			MaxFeeSat:         params.MaxFeeSat,
			TimeoutSeconds:    params.TimeoutSeconds,
		}
		if !mutate {
			result, err := h.svc.ValidateInvoice(ctx, application.ValidateInvoiceRequest{
				PaymentRequest:    r.PaymentRequest,
				ExpectedAmountSat: r.ExpectedAmountSat,
			})
			if err != nil {
				fail(c, err)
				return
			}
			succeed(c, gin.H{
				"paymentHash": result.PaymentHash,
				"amountSat":   result.AmountSat,
				"expiresAt":   result.ExpiresAt.Unix(),
			})
			return
		}
		payment, err := h.svc.PayInvoice(ctx, r)
		if err != nil {
			fail(c, err)
			return
		}
		succeed(c, gin.H{
			"preimage":    payment.Preimage,
			"paymentHash": payment.PaymentHash,
			"amountSat":   payment.AmountSat,
			"feeSat":      payment.FeeSat,
			"totalSat":    payment.TotalSat,
			"timestamp":   payment.Timestamp.Unix(),
		})

	case abilityClaimLock:
		r := application.ClaimLockRequest{
			ContractId: params.ContractId,
			Preimage:   params.Preimage,
		}
		if !mutate {
			lock, err := h.svc.PrecheckClaimLock(ctx, r)
			if err != nil {
				fail(c, err)
				return
			}
			succeed(c, lockToJSON(lock))
			return
		}
		claim, err := h.svc.ClaimLock(ctx, r)
		if err != nil {
			fail(c, err)
			return
		}
		succeed(c, gin.H{"txId": claim.TxId})

	case abilityRefundLock:
		r := application.RefundLockRequest{ContractId: params.ContractId}
		if !mutate {
			lock, err := h.svc.PrecheckRefundLock(ctx, r)
			if err != nil {
				fail(c, err)
				return
			}
			succeed(c, lockToJSON(lock))
			return
		}
		refund, err := h.svc.RefundLock(ctx, r)
		if err != nil {
			fail(c, err)
			return
		}
		succeed(c, gin.H{"txId": refund.TxId})

	default:
		fail(c, domain.Errf(domain.ReasonConfigError, "unknown ability %q", c.Param("name")))
	}
}

func (h *handler) getInfo(c *gin.Context) {
	info, err := h.svc.GetInfo(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, gin.H{
		"version":       info.Version,
		"walletAlias":   info.WalletAlias,
		"walletPubkey":  info.WalletPubkey,
		"signerAddress": info.SignerAddress,
		"tokenAddress":  info.TokenAddress,
	})
}

func (h *handler) listSwaps(c *gin.Context) {
	swaps, err := h.svc.GetSwaps(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	payload := make([]gin.H, 0, len(swaps))
	for _, swap := range swaps {
		payload = append(payload, swapToJSON(&swap))
	}
	succeed(c, gin.H{"swaps": payload})
}

func (h *handler) getSwap(c *gin.Context) {
	swap, err := h.svc.GetSwap(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
		return
	}
	succeed(c, swapToJSON(swap))
}

func (h *handler) runSwap(c *gin.Context) {
	var req abilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, domain.WrapSwapError(domain.ReasonConfigError, "invalid request body", err))
		return
	}

	swap, err := h.svc.RunSwap(c.Request.Context(), application.RunSwapRequest{
		AmountSat:            req.Parameters.AmountSat,
		TokenAmount:          req.Parameters.Amount,
		Description:          req.Parameters.Description,
		TimelockSeconds:      req.Parameters.Timelock,
		SettleTimeoutSeconds: req.Parameters.TimeoutSeconds,
	})
	if err != nil {
		if swap != nil && swap.Status == domain.SwapUnknown {
			// settlement outcome unresolved: not a success, not a hard
			// failure; the refund path is armed
			c.JSON(http.StatusAccepted, gin.H{
				"success": false,
				"reason":  string(domain.ReasonOf(err)),
				"error":   err.Error(),
				"timeout": true,
				"swap":    swapToJSON(swap),
			})
			return
		}
		fail(c, err)
		return
	}
	succeed(c, swapToJSON(swap))
}

func succeed(c *gin.Context, data gin.H) {
	data["success"] = true
	c.JSON(http.StatusOK, data)
}

func fail(c *gin.Context, err error) {
	reason := domain.ReasonOf(err)
	payload := gin.H{"success": false, "error": err.Error()}
	if reason != "" {
		payload["reason"] = string(reason)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		payload["timeout"] = true
	}
	c.JSON(statusFor(reason), payload)
}

func statusFor(reason domain.Reason) int {
	switch reason {
	case domain.ReasonWalletConnectionFailed,
		domain.ReasonNoRouteFound,
		domain.ReasonPaymentFailed,
		domain.ReasonInvoiceCreationFailed,
		domain.ReasonTransactionFailed:
		return http.StatusBadGateway
	case "":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func lockToJSON(lock *domain.Lock) gin.H {
	return gin.H{
		"contractId":   lock.ContractId,
		"sender":       lock.Sender,
		"tokenAddress": lock.TokenAddress,
		"amount":       lock.Amount.String(),
		"paymentHash":  lock.PaymentHash,
		"timelock":     lock.Timelock,
		"withdrawn":    lock.Withdrawn,
		"refunded":     lock.Refunded,
		"preimage":     lock.Preimage,
	}
}

func swapToJSON(swap *domain.SwapAttempt) gin.H {
	return gin.H{
		"id":          swap.Id,
		"createdAt":   time.Unix(swap.Timestamp, 0).UTC().Format(time.RFC3339),
		"status":      swap.Status.String(),
		"amountSat":   swap.AmountSat,
		"tokenAmount": swap.TokenAmount,
		"paymentHash": swap.PaymentHash,
		"invoice":     swap.Invoice,
		"contractId":  swap.ContractId,
		"timelock":    swap.Timelock,
		"lockTxId":    swap.LockTxId,
		"redeemTxId":  swap.RedeemTxId,
	}
}
