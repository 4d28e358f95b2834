// Package handlers exposes the coordinators over HTTP. Every response body
// is the standard envelope; HTTP status is derived from the error code so
// clients can branch on either.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kirannarayanak/vyra"
	"github.com/kirannarayanak/vyra/bridge"
	"github.com/kirannarayanak/vyra/sdk"
)

// Handler carries the assembled SDK and logger for all routes.
type Handler struct {
	SDK *sdk.SDK
	Log *logrus.Logger
}

// New creates a Handler.
func New(s *sdk.SDK, log *logrus.Logger) *Handler {
	return &Handler{SDK: s, Log: log}
}

// statusFor maps stable error codes to HTTP status.
func statusFor(code vyra.ErrorCode) int {
	switch code {
	case vyra.CodeInvalidAddress, vyra.CodeInvalidAmount, vyra.CodeInvalidInput,
		vyra.CodeInvalidSplit, vyra.CodeInvalidMetadata:
		return http.StatusBadRequest
	case vyra.CodeWalletNotConnected:
		return http.StatusUnauthorized
	case vyra.CodeUnauthorized:
		return http.StatusForbidden
	case vyra.CodeInsufficientBalance:
		return http.StatusPaymentRequired
	case vyra.CodeNotFound:
		return http.StatusNotFound
	case vyra.CodeRateLimited:
		return http.StatusTooManyRequests
	case vyra.CodeTimeout:
		return http.StatusGatewayTimeout
	case vyra.CodeNetworkError:
		return http.StatusBadGateway
	case vyra.CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respond writes the envelope with its mapped HTTP status.
func respond[T any](c *gin.Context, resp vyra.Response[T]) {
	if resp.Success {
		c.JSON(http.StatusOK, resp)
		return
	}
	code := vyra.ErrorCode("")
	if resp.Error != nil {
		code = resp.Error.Code
	}
	c.JSON(statusFor(code), resp)
}

// badRequest writes a failed envelope for a malformed request body.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, vyra.Fail[struct{}](
		vyra.NewError(vyra.CodeInvalidInput, "malformed request body", err)))
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Network returns the bound network configuration.
func (h *Handler) Network(c *gin.Context) {
	n := h.SDK.Network()
	c.JSON(http.StatusOK, vyra.OK(gin.H{
		"name":          n.Name,
		"chainId":       n.ChainID,
		"blockExplorer": n.BlockExplorer,
		"token":         n.TokenAddress,
		"paymaster":     n.PaymasterAddress,
		"pos":           n.POSAddress,
		"bridge":        n.BridgeAddress,
	}))
}

// WalletInfo returns the operator account snapshot.
func (h *Handler) WalletInfo(c *gin.Context) {
	respond(c, h.SDK.Wallet().Info(c.Request.Context()))
}

// VyraBalance returns an address's VYR balance.
func (h *Handler) VyraBalance(c *gin.Context) {
	respond(c, h.SDK.Wallet().VyraBalance(c.Request.Context(), c.Param("address")))
}

// SendPayment submits a direct VYR transfer.
func (h *Handler) SendPayment(c *gin.Context) {
	var req vyra.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.SDK.Wallet().SendPayment(c.Request.Context(), req))
}

// EstimatePayment projects the gas cost of a transfer.
func (h *Handler) EstimatePayment(c *gin.Context) {
	var req struct {
		To     string `json:"to"`
		Amount string `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.SDK.Wallet().EstimateGasForPayment(c.Request.Context(), req.To, req.Amount))
}

// CreateInvoice submits an invoice creation.
func (h *Handler) CreateInvoice(c *gin.Context) {
	var req vyra.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.SDK.Invoices().CreateInvoice(c.Request.Context(), req))
}

// PayInvoice submits payment of an existing invoice.
func (h *Handler) PayInvoice(c *gin.Context) {
	var req struct {
		Customer string `json:"customer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.SDK.Invoices().ProcessPayment(c.Request.Context(), c.Param("id"), req.Customer))
}

// SplitPayment submits a split payment.
func (h *Handler) SplitPayment(c *gin.Context) {
	var req struct {
		vyra.SplitPaymentRequest
		Customer string `json:"customer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.SDK.Invoices().ProcessSplitPayment(c.Request.Context(), req.SplitPaymentRequest, req.Customer))
}

// PaymentReceipt returns the settled record of a payment.
func (h *Handler) PaymentReceipt(c *gin.Context) {
	respond(c, h.SDK.Invoices().PaymentReceipt(c.Request.Context(), c.Param("id")))
}

// MerchantStats returns the operator's merchant totals.
func (h *Handler) MerchantStats(c *gin.Context) {
	respond(c, h.SDK.Invoices().MerchantStats(c.Request.Context()))
}

// CreateSessionKey registers a fresh session key.
func (h *Handler) CreateSessionKey(c *gin.Context) {
	var req struct {
		Expiry int64 `json:"expiry"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.SDK.Paymaster().CreateSessionKey(c.Request.Context(), req.Expiry))
}

// RevokeSessionKey deactivates a session key.
func (h *Handler) RevokeSessionKey(c *gin.Context) {
	respond(c, h.SDK.Paymaster().RevokeSessionKey(c.Request.Context(), c.Param("address")))
}

// SessionKeyInfo returns a user's registered session key.
func (h *Handler) SessionKeyInfo(c *gin.Context) {
	respond(c, h.SDK.Paymaster().SessionKeyInfo(c.Request.Context(), c.Param("user")))
}

// AddSponsorBalance deposits into a user's sponsorship balance.
func (h *Handler) AddSponsorBalance(c *gin.Context) {
	var req struct {
		User   string `json:"user"`
		Amount string `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.SDK.Paymaster().AddSponsorBalance(c.Request.Context(), req.User, req.Amount))
}

// PaymasterStats returns sponsorship totals.
func (h *Handler) PaymasterStats(c *gin.Context) {
	respond(c, h.SDK.Paymaster().Stats(c.Request.Context()))
}

// BridgeDeposit locks VYR for bridging.
func (h *Handler) BridgeDeposit(c *gin.Context) {
	var req struct {
		Amount string `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.SDK.Bridge().Deposit(c.Request.Context(), req.Amount))
}

// ProcessDeposit relays a deposit with validator signatures.
func (h *Handler) ProcessDeposit(c *gin.Context) {
	var req struct {
		Signatures []string `json:"signatures"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sigs, err := bridge.DecodeSignatures(req.Signatures)
	if err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.SDK.Bridge().ProcessDeposit(c.Request.Context(), c.Param("id"), sigs))
}

// InitiateWithdrawal redeems an L2 burn on L1.
func (h *Handler) InitiateWithdrawal(c *gin.Context) {
	var req struct {
		Amount     string   `json:"amount"`
		L2TxHash   string   `json:"l2TxHash"`
		Signatures []string `json:"signatures"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sigs, err := bridge.DecodeSignatures(req.Signatures)
	if err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.SDK.Bridge().InitiateWithdrawal(c.Request.Context(), req.Amount, req.L2TxHash, sigs))
}

// BridgeValidators lists the validator set.
func (h *Handler) BridgeValidators(c *gin.Context) {
	respond(c, h.SDK.Bridge().Validators(c.Request.Context()))
}

// BridgeStats returns bridge totals.
func (h *Handler) BridgeStats(c *gin.Context) {
	respond(c, h.SDK.Bridge().Stats(c.Request.Context()))
}

// SignMessage signs a personal message with the operator key.
func (h *Handler) SignMessage(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.SDK.Wallet().SignMessage(req.Message))
}

// VerifyMessage checks a personal message signature.
func (h *Handler) VerifyMessage(c *gin.Context) {
	var req struct {
		Message   string `json:"message"`
		Signature string `json:"signature"`
		Address   string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.SDK.Wallet().VerifyMessage(req.Message, req.Signature, req.Address))
}
