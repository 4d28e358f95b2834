// Package invoice coordinates merchant invoice creation and payment
// processing against the point-of-sale contract.
//
// Invoice creation and payment execution are two independently-signed acts:
// the merchant signs the creation authorization, the customer (or the
// merchant on their behalf) signs the execution authorization, and the two
// signatures are never interchangeable because their digests cover
// different field tuples.
package invoice

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/kirannarayanak/vyra"
	"github.com/kirannarayanak/vyra/fees"
	"github.com/kirannarayanak/vyra/hashing"
	"github.com/kirannarayanak/vyra/retry"
	"github.com/kirannarayanak/vyra/signer"
)

// Status is an invoice lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSigned    Status = "signed"
	StatusSubmitted Status = "submitted"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// DefaultExpiry is applied when a request carries no expiry.
const DefaultExpiry = time.Hour

// Invoice is the coordinator's record of a created invoice.
type Invoice struct {
	ID          string `json:"id"`
	Status      Status `json:"status"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Expiry      int64  `json:"expiry"`
	Merchant    string `json:"merchant"`
	Nonce       uint64 `json:"nonce"`
	Signature   string `json:"signature"`
	TxHash      string `json:"txHash,omitempty"`
}

// Coordinator builds, signs, and submits invoice operations.
type Coordinator struct {
	network  vyra.NetworkConfig
	caller   vyra.ContractCaller
	provider vyra.Provider
	signer   *signer.Signer
	nonces   vyra.NonceSource
	timeouts vyra.TimeoutConfig
	retryCfg retry.Config
	onEvent  vyra.Callback
	now      func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSigner binds the merchant signing capability.
func WithSigner(s *signer.Signer) Option {
	return func(c *Coordinator) { c.signer = s }
}

// WithProvider binds the RPC collaborator used for confirmation polling.
func WithProvider(p vyra.Provider) Option {
	return func(c *Coordinator) { c.provider = p }
}

// WithNonceSource overrides the signing nonce source.
func WithNonceSource(n vyra.NonceSource) Option {
	return func(c *Coordinator) { c.nonces = n }
}

// WithTimeouts overrides the per-call timeouts.
func WithTimeouts(tc vyra.TimeoutConfig) Option {
	return func(c *Coordinator) { c.timeouts = tc }
}

// WithCallback registers a payment event callback.
func WithCallback(cb vyra.Callback) Option {
	return func(c *Coordinator) { c.onEvent = cb }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// New creates a Coordinator bound to one network configuration.
func New(network vyra.NetworkConfig, caller vyra.ContractCaller, opts ...Option) *Coordinator {
	c := &Coordinator{
		network:  network,
		caller:   caller,
		nonces:   vyra.NewMemoryNonceSource(),
		timeouts: vyra.DefaultTimeouts,
		retryCfg: retry.DefaultConfig,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateInvoice validates, signs, and submits an invoice creation.
// User-initiated single-shot: submission failures are surfaced without
// automatic retry.
func (c *Coordinator) CreateInvoice(ctx context.Context, req vyra.InvoiceRequest) vyra.Response[Invoice] {
	start := c.now()

	inv, digest, err := c.buildInvoice(ctx, req)
	if err != nil {
		return vyra.Fail[Invoice](err)
	}

	sig, err := c.signer.SignDigest(digest)
	if err != nil {
		return vyra.Fail[Invoice](vyra.NewError(vyra.CodeWalletNotConnected, "cannot sign invoice", err))
	}
	inv.Signature = hexutil.Encode(sig)
	inv.Status = StatusSigned

	amountWei, _ := vyra.ToWei(inv.Amount)
	c.emit(vyra.EventAttempt, "create_invoice", inv.Amount, inv.Merchant, "", nil, start)

	subCtx, cancel := vyra.Bound(ctx, c.timeouts.SubmitTimeout)
	defer cancel()

	txHash, err := c.caller.Submit(subCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.POSAddress),
		Method:   "createInvoice",
		Args:     []interface{}{amountWei, inv.Description, big.NewInt(inv.Expiry), sig},
	})
	if err != nil {
		verr := vyra.ClassifySubmit(err, vyra.CodeInvoiceCreateFailed, "invoice creation failed")
		c.emit(vyra.EventFailure, "create_invoice", inv.Amount, inv.Merchant, "", verr, start)
		return vyra.Fail[Invoice](verr)
	}

	inv.Status = StatusSubmitted
	inv.TxHash = txHash.Hex()
	c.emit(vyra.EventSuccess, "create_invoice", inv.Amount, inv.Merchant, inv.TxHash, nil, start)
	return vyra.Submitted(inv, txHash)
}

// buildInvoice validates the request and produces a draft invoice together
// with the typed digest to sign. All failures here are local: no network
// call is made.
func (c *Coordinator) buildInvoice(ctx context.Context, req vyra.InvoiceRequest) (Invoice, common.Hash, error) {
	if c.signer == nil {
		return Invoice{}, common.Hash{}, vyra.ErrNotConnected
	}
	if err := vyra.ValidateAmount(req.Amount); err != nil {
		return Invoice{}, common.Hash{}, err
	}
	if req.Description == "" {
		return Invoice{}, common.Hash{}, vyra.NewError(vyra.CodeInvalidInput, "invoice description cannot be empty", nil)
	}
	if err := req.Metadata.Validate(); err != nil {
		return Invoice{}, common.Hash{}, err
	}

	merchant := c.signer.Address()
	if req.Merchant != "" {
		if err := vyra.ValidateAddress(req.Merchant); err != nil {
			return Invoice{}, common.Hash{}, err
		}
		if common.HexToAddress(req.Merchant) != merchant {
			return Invoice{}, common.Hash{}, vyra.NewError(vyra.CodeUnauthorized,
				"invoice merchant does not match bound signer", nil)
		}
	}

	now := c.now()
	expiry := req.Expiry
	if expiry == 0 {
		expiry = now.Add(DefaultExpiry).Unix()
	}
	if expiry <= now.Unix() {
		return Invoice{}, common.Hash{}, vyra.NewError(vyra.CodeInvalidInput,
			fmt.Sprintf("invoice expiry %d is in the past", expiry), nil)
	}

	nonce, err := c.nonces.Next(ctx, merchant)
	if err != nil {
		return Invoice{}, common.Hash{}, fmt.Errorf("nonce source: %w", err)
	}

	amountWei, _ := vyra.ToWei(req.Amount)
	descHash := hashing.HashString(req.Description)

	msg := hashing.PaymentMessage{
		Signer:          merchant,
		Amount:          amountWei,
		DescriptionHash: descHash,
		Expiry:          expiry,
		Nonce:           nonce,
		ChainID:         big.NewInt(c.network.ChainID),
	}
	digest := hashing.TypedDigest(c.posDomain(), msg.Digest())

	inv := Invoice{
		ID:          hashing.InvoiceID(merchant, amountWei, descHash, now.Unix()).Hex(),
		Status:      StatusDraft,
		Amount:      vyra.FromWei(amountWei),
		Description: req.Description,
		Expiry:      expiry,
		Merchant:    merchant.Hex(),
		Nonce:       nonce,
	}
	return inv, digest, nil
}

// ProcessPayment signs and submits payment of an existing invoice by a
// customer. The invoice amount is read back from the contract so the signed
// tuple matches what the on-chain verifier reconstructs.
func (c *Coordinator) ProcessPayment(ctx context.Context, invoiceID, customer string) vyra.Response[string] {
	start := c.now()

	if c.signer == nil {
		return vyra.Fail[string](vyra.ErrNotConnected)
	}
	id, err := vyra.ParseHash32(invoiceID)
	if err != nil {
		return vyra.Fail[string](vyra.NewError(vyra.CodeInvalidInput, "invalid invoice id", err))
	}
	if err := vyra.ValidateAddress(customer); err != nil {
		return vyra.Fail[string](err)
	}
	customerAddr := common.HexToAddress(customer)

	amount, err := c.invoiceAmount(ctx, id)
	if err != nil {
		return vyra.Fail[string](vyra.ClassifySubmit(err, vyra.CodePaymentProcessFailed, "cannot read invoice"))
	}

	digest := hashing.TypedDigest(c.posDomain(),
		hashing.PaymentExecutionDigest(customerAddr, id, amount, big.NewInt(c.network.ChainID)))
	sig, err := c.signer.SignDigest(digest)
	if err != nil {
		return vyra.Fail[string](vyra.NewError(vyra.CodeWalletNotConnected, "cannot sign payment", err))
	}

	c.emit(vyra.EventAttempt, "process_payment", vyra.FromWei(amount), customer, "", nil, start)

	subCtx, cancel := vyra.Bound(ctx, c.timeouts.SubmitTimeout)
	defer cancel()

	txHash, err := c.caller.Submit(subCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.POSAddress),
		Method:   "processPayment",
		Args:     []interface{}{id, customerAddr, sig},
	})
	if err != nil {
		verr := vyra.ClassifySubmit(err, vyra.CodePaymentProcessFailed, "payment processing failed")
		c.emit(vyra.EventFailure, "process_payment", vyra.FromWei(amount), customer, "", verr, start)
		return vyra.Fail[string](verr)
	}

	c.emit(vyra.EventSuccess, "process_payment", vyra.FromWei(amount), customer, txHash.Hex(), nil, start)
	return vyra.Submitted(txHash.Hex(), txHash)
}

// ProcessSplitPayment validates the split before any digest is built: an
// invalid split must fail before a signature exists, so no signed commitment
// over bad percentages can ever leak.
func (c *Coordinator) ProcessSplitPayment(ctx context.Context, req vyra.SplitPaymentRequest, customer string) vyra.Response[string] {
	start := c.now()

	if c.signer == nil {
		return vyra.Fail[string](vyra.ErrNotConnected)
	}
	if err := fees.ValidateSplit(req.Percentages); err != nil {
		return vyra.Fail[string](err)
	}
	if len(req.Recipients) != len(req.Percentages) {
		return vyra.Fail[string](vyra.NewError(vyra.CodeInvalidSplit,
			fmt.Sprintf("%d recipients for %d percentages", len(req.Recipients), len(req.Percentages)), nil))
	}
	recipients := make([]common.Address, len(req.Recipients))
	for i, r := range req.Recipients {
		if err := vyra.ValidateAddress(r); err != nil {
			return vyra.Fail[string](err)
		}
		recipients[i] = common.HexToAddress(r)
	}
	if err := vyra.ValidateAmount(req.TotalAmount); err != nil {
		return vyra.Fail[string](err)
	}
	if err := vyra.ValidateAddress(customer); err != nil {
		return vyra.Fail[string](err)
	}
	customerAddr := common.HexToAddress(customer)
	totalWei, _ := vyra.ToWei(req.TotalAmount)

	digest := hashing.TypedDigest(c.posDomain(),
		hashing.SplitPaymentDigest(customerAddr, recipients, req.Percentages, totalWei, big.NewInt(c.network.ChainID)))
	sig, err := c.signer.SignDigest(digest)
	if err != nil {
		return vyra.Fail[string](vyra.NewError(vyra.CodeWalletNotConnected, "cannot sign split payment", err))
	}

	c.emit(vyra.EventAttempt, "process_split_payment", req.TotalAmount, customer, "", nil, start)

	subCtx, cancel := vyra.Bound(ctx, c.timeouts.SubmitTimeout)
	defer cancel()

	txHash, err := c.caller.Submit(subCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.POSAddress),
		Method:   "processSplitPayment",
		Args:     []interface{}{recipients, req.Percentages, totalWei, customerAddr, sig},
	})
	if err != nil {
		verr := vyra.ClassifySubmit(err, vyra.CodeSplitPaymentFailed, "split payment failed")
		c.emit(vyra.EventFailure, "process_split_payment", req.TotalAmount, customer, "", verr, start)
		return vyra.Fail[string](verr)
	}

	c.emit(vyra.EventSuccess, "process_split_payment", req.TotalAmount, customer, txHash.Hex(), nil, start)
	return vyra.Submitted(txHash.Hex(), txHash)
}

// Confirm polls for the receipt of a submitted invoice transaction.
// Read-only and idempotent, so transient failures are retried.
func (c *Coordinator) Confirm(ctx context.Context, txHash string, confirmations uint64) vyra.Response[vyra.Receipt] {
	if c.provider == nil {
		return vyra.Fail[vyra.Receipt](vyra.NewError(vyra.CodeTransactionWaitFailed, "no provider bound", nil))
	}
	hash, err := vyra.ParseHash32(txHash)
	if err != nil {
		return vyra.Fail[vyra.Receipt](vyra.NewError(vyra.CodeInvalidInput, "invalid transaction hash", err))
	}

	waitCtx, cancel := vyra.Bound(ctx, c.timeouts.ConfirmTimeout)
	defer cancel()

	receipt, err := retry.WithRetry(waitCtx, c.retryCfg, retry.IsRetryable, func() (*vyra.Receipt, error) {
		return c.provider.WaitForTransaction(waitCtx, hash, confirmations)
	})
	if err != nil {
		return vyra.Fail[vyra.Receipt](vyra.ClassifySubmit(err, vyra.CodeTransactionWaitFailed,
			"transaction confirmation failed").WithTxHash(hash.Hex()))
	}
	if receipt.Status == 0 {
		return vyra.Fail[vyra.Receipt](vyra.NewError(vyra.CodeContractReverted,
			"transaction reverted", vyra.ErrContractReverted).WithTxHash(hash.Hex()))
	}
	return vyra.Submitted(*receipt, hash)
}

// MerchantStats reads the bound merchant's settled totals.
func (c *Coordinator) MerchantStats(ctx context.Context) vyra.Response[vyra.MerchantStats] {
	if c.signer == nil {
		return vyra.Fail[vyra.MerchantStats](vyra.ErrNotConnected)
	}

	callCtx, cancel := vyra.Bound(ctx, c.timeouts.CallTimeout)
	defer cancel()

	results, err := c.caller.Call(callCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.POSAddress),
		Method:   "getMerchantStats",
		Args:     []interface{}{c.signer.Address()},
	})
	if err != nil {
		return vyra.Fail[vyra.MerchantStats](vyra.ClassifySubmit(err, vyra.CodeStatsFetchFailed, "merchant stats fetch failed"))
	}

	earnings, err := vyra.ResultBigInt(results, 0)
	if err != nil {
		return vyra.Fail[vyra.MerchantStats](vyra.NewError(vyra.CodeStatsFetchFailed, "malformed stats result", err))
	}
	count, err := vyra.ResultBigInt(results, 1)
	if err != nil {
		return vyra.Fail[vyra.MerchantStats](vyra.NewError(vyra.CodeStatsFetchFailed, "malformed stats result", err))
	}

	return vyra.OK(vyra.MerchantStats{
		TotalEarnings:     vyra.FromWei(earnings),
		TotalTransactions: count.Uint64(),
	})
}

// PaymentReceipt reads the settled record of a processed payment.
func (c *Coordinator) PaymentReceipt(ctx context.Context, paymentID string) vyra.Response[vyra.PaymentReceipt] {
	id, err := vyra.ParseHash32(paymentID)
	if err != nil {
		return vyra.Fail[vyra.PaymentReceipt](vyra.NewError(vyra.CodeInvalidInput, "invalid payment id", err))
	}

	callCtx, cancel := vyra.Bound(ctx, c.timeouts.CallTimeout)
	defer cancel()

	// Contract layout: (customer, merchant, amount, merchantFee, platformFee,
	// timestamp, refunded, invoiceId).
	results, err := c.caller.Call(callCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.POSAddress),
		Method:   "payments",
		Args:     []interface{}{id},
	})
	if err != nil {
		return vyra.Fail[vyra.PaymentReceipt](vyra.ClassifySubmit(err, vyra.CodeStatsFetchFailed, "payment lookup failed"))
	}

	customer, err := vyra.ResultAddress(results, 0)
	if err != nil {
		return vyra.Fail[vyra.PaymentReceipt](vyra.NewError(vyra.CodeStatsFetchFailed, "malformed payment record", err))
	}
	if customer == (common.Address{}) {
		return vyra.Fail[vyra.PaymentReceipt](vyra.NewError(vyra.CodeNotFound, "payment not found", nil))
	}
	merchant, _ := vyra.ResultAddress(results, 1)
	amount, err := vyra.ResultBigInt(results, 2)
	if err != nil {
		return vyra.Fail[vyra.PaymentReceipt](vyra.NewError(vyra.CodeStatsFetchFailed, "malformed payment record", err))
	}
	merchantFee, _ := vyra.ResultBigInt(results, 3)
	platformFee, _ := vyra.ResultBigInt(results, 4)
	ts, _ := vyra.ResultBigInt(results, 5)
	refunded, _ := vyra.ResultBool(results, 6)
	invoiceID, _ := vyra.ResultHash(results, 7)

	fee := new(big.Int)
	if merchantFee != nil {
		fee.Add(fee, merchantFee)
	}
	if platformFee != nil {
		fee.Add(fee, platformFee)
	}

	status := "confirmed"
	if refunded {
		status = "failed"
	}
	var timestamp int64
	if ts != nil {
		timestamp = ts.Int64()
	}

	return vyra.OK(vyra.PaymentReceipt{
		PaymentID: id.Hex(),
		InvoiceID: invoiceID.Hex(),
		From:      customer.Hex(),
		To:        merchant.Hex(),
		Amount:    vyra.FromWei(amount),
		Fee:       vyra.FromWei(fee),
		Timestamp: timestamp,
		Status:    status,
	})
}

// invoiceAmount reads an invoice's amount from the contract.
func (c *Coordinator) invoiceAmount(ctx context.Context, id common.Hash) (*big.Int, error) {
	callCtx, cancel := vyra.Bound(ctx, c.timeouts.CallTimeout)
	defer cancel()

	results, err := c.caller.Call(callCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.POSAddress),
		Method:   "invoiceAmount",
		Args:     []interface{}{id},
	})
	if err != nil {
		return nil, err
	}
	return vyra.ResultBigInt(results, 0)
}

// posDomain is the signing domain bound to the POS contract.
func (c *Coordinator) posDomain() common.Hash {
	return hashing.DomainSeparator(big.NewInt(c.network.ChainID), common.HexToAddress(c.network.POSAddress))
}

func (c *Coordinator) emit(typ vyra.EventType, op, amount, recipient, txHash string, err error, start time.Time) {
	if c.onEvent == nil {
		return
	}
	c.onEvent(vyra.Event{
		Type:      typ,
		Timestamp: c.now(),
		Operation: op,
		ChainID:   c.network.ChainID,
		Amount:    amount,
		Recipient: recipient,
		TxHash:    txHash,
		Error:     err,
		Duration:  c.now().Sub(start),
	})
}
