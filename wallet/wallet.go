// Package wallet coordinates direct VYR transfers and account inspection for
// a connected signing key.
package wallet

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/kirannarayanak/vyra"
	"github.com/kirannarayanak/vyra/signer"
)

// DefaultWatchInterval is the balance polling cadence when WatchBalance gets
// a zero interval.
const DefaultWatchInterval = 30 * time.Second

// transferSelector is the 4-byte selector of transfer(address,uint256).
var transferSelector = crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]

// Coordinator signs and submits wallet operations for one account.
type Coordinator struct {
	network  vyra.NetworkConfig
	caller   vyra.ContractCaller
	provider vyra.Provider
	signer   *signer.Signer
	timeouts vyra.TimeoutConfig
	onEvent  vyra.Callback
	now      func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSigner binds the account signing capability.
func WithSigner(s *signer.Signer) Option {
	return func(c *Coordinator) { c.signer = s }
}

// WithProvider binds the RPC collaborator for balances and gas estimation.
func WithProvider(p vyra.Provider) Option {
	return func(c *Coordinator) { c.provider = p }
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
		timeouts: vyra.DefaultTimeouts,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendPayment transfers VYR to a recipient. The sender's token balance is
// checked locally first so an obviously unfunded transfer fails with
// INSUFFICIENT_BALANCE before any gas is spent.
func (c *Coordinator) SendPayment(ctx context.Context, req vyra.PaymentRequest) vyra.Response[string] {
	start := c.now()

	if c.signer == nil {
		return vyra.Fail[string](vyra.ErrNotConnected)
	}
	if err := vyra.ValidateAddress(req.To); err != nil {
		return vyra.Fail[string](err)
	}
	if err := vyra.ValidateAmount(req.Amount); err != nil {
		return vyra.Fail[string](err)
	}
	if err := req.Metadata.Validate(); err != nil {
		return vyra.Fail[string](err)
	}
	amountWei, _ := vyra.ToWei(req.Amount)

	balance, err := c.tokenBalance(ctx, c.signer.Address())
	if err != nil {
		return vyra.Fail[string](vyra.ClassifySubmit(err, vyra.CodePaymentSendFailed, "balance check failed"))
	}
	if balance.Cmp(amountWei) < 0 {
		return vyra.Fail[string](vyra.NewError(vyra.CodeInsufficientBalance, "insufficient VYR balance", vyra.ErrInsufficientBalance).
			WithDetails("balance", vyra.FromWei(balance)).
			WithDetails("required", req.Amount))
	}

	c.emit(vyra.EventAttempt, "send_payment", req.Amount, req.To, "", nil, start)

	subCtx, cancel := vyra.Bound(ctx, c.timeouts.SubmitTimeout)
	defer cancel()

	txHash, err := c.caller.Submit(subCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.TokenAddress),
		Method:   "transfer",
		Args:     []interface{}{common.HexToAddress(req.To), amountWei},
	})
	if err != nil {
		verr := vyra.ClassifySubmit(err, vyra.CodePaymentSendFailed, "payment send failed")
		c.emit(vyra.EventFailure, "send_payment", req.Amount, req.To, "", verr, start)
		return vyra.Fail[string](verr)
	}

	c.emit(vyra.EventSuccess, "send_payment", req.Amount, req.To, txHash.Hex(), nil, start)
	return vyra.Submitted(txHash.Hex(), txHash)
}

// EstimateGasForPayment simulates a VYR transfer and returns its gas cost.
// The calldata is hand-encoded: selector plus the two ABI-padded arguments.
func (c *Coordinator) EstimateGasForPayment(ctx context.Context, to, amount string) vyra.Response[vyra.GasEstimate] {
	if c.provider == nil {
		return vyra.Fail[vyra.GasEstimate](vyra.NewError(vyra.CodeGasEstimateFailed, "no provider bound", nil))
	}
	if c.signer == nil {
		return vyra.Fail[vyra.GasEstimate](vyra.ErrNotConnected)
	}
	if err := vyra.ValidateAddress(to); err != nil {
		return vyra.Fail[vyra.GasEstimate](err)
	}
	if err := vyra.ValidateAmount(amount); err != nil {
		return vyra.Fail[vyra.GasEstimate](err)
	}
	amountWei, _ := vyra.ToWei(amount)

	data := make([]byte, 0, 4+64)
	data = append(data, transferSelector...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(to).Bytes(), 32)...)
	data = append(data, math.U256Bytes(new(big.Int).Set(amountWei))...)

	callCtx, cancel := vyra.Bound(ctx, c.timeouts.CallTimeout)
	defer cancel()

	gasLimit, err := c.provider.EstimateGas(callCtx, vyra.CallMsg{
		From: c.signer.Address(),
		To:   common.HexToAddress(c.network.TokenAddress),
		Data: data,
	})
	if err != nil {
		return vyra.Fail[vyra.GasEstimate](vyra.NewError(vyra.CodeGasEstimateFailed, "gas estimation failed", err))
	}

	feeData, err := c.provider.GetFeeData(callCtx)
	if err != nil {
		return vyra.Fail[vyra.GasEstimate](vyra.NewError(vyra.CodeGasEstimateFailed, "fee data fetch failed", err))
	}

	est := vyra.GasEstimate{
		GasLimit: new(big.Int).SetUint64(gasLimit).String(),
	}
	if feeData.GasPrice != nil {
		est.GasPrice = feeData.GasPrice.String()
		cost := new(big.Int).Mul(feeData.GasPrice, new(big.Int).SetUint64(gasLimit))
		est.VyrCost = vyra.FromWei(cost)
	}
	if feeData.MaxFeePerGas != nil {
		est.MaxFeePerGas = feeData.MaxFeePerGas.String()
	}
	if feeData.MaxPriorityFeePerGas != nil {
		est.MaxPriorityFeePerGas = feeData.MaxPriorityFeePerGas.String()
	}
	return vyra.OK(est)
}

// VyraBalance reads an account's VYR token balance.
func (c *Coordinator) VyraBalance(ctx context.Context, addr string) vyra.Response[string] {
	if err := vyra.ValidateAddress(addr); err != nil {
		return vyra.Fail[string](err)
	}
	balance, err := c.tokenBalance(ctx, common.HexToAddress(addr))
	if err != nil {
		return vyra.Fail[string](vyra.ClassifySubmit(err, vyra.CodeStatsFetchFailed, "balance fetch failed"))
	}
	return vyra.OK(vyra.FromWei(balance))
}

// Info snapshots the connected account's native and token balances.
func (c *Coordinator) Info(ctx context.Context) vyra.Response[vyra.WalletInfo] {
	if c.signer == nil {
		return vyra.Fail[vyra.WalletInfo](vyra.ErrNotConnected)
	}
	addr := c.signer.Address()

	info := vyra.WalletInfo{Address: addr.Hex()}

	tokenBal, err := c.tokenBalance(ctx, addr)
	if err != nil {
		return vyra.Fail[vyra.WalletInfo](vyra.ClassifySubmit(err, vyra.CodeStatsFetchFailed, "balance fetch failed"))
	}
	info.VyraBalance = vyra.FromWei(tokenBal)

	if c.provider != nil {
		callCtx, cancel := vyra.Bound(ctx, c.timeouts.CallTimeout)
		nativeBal, err := c.provider.GetBalance(callCtx, addr)
		cancel()
		if err != nil {
			return vyra.Fail[vyra.WalletInfo](vyra.ClassifySubmit(err, vyra.CodeStatsFetchFailed, "native balance fetch failed"))
		}
		info.Balance = vyra.FromWei(nativeBal)
	}
	return vyra.OK(info)
}

// SignMessage signs a human-readable message under the personal message
// encoding and returns the hex signature.
func (c *Coordinator) SignMessage(message string) vyra.Response[string] {
	sig, err := c.signer.SignText([]byte(message))
	if err != nil {
		return vyra.Fail[string](vyra.NewError(vyra.CodeMessageSignFailed, "message signing failed", err))
	}
	return vyra.OK(hexutil.Encode(sig))
}

// VerifyMessage reports whether sigHex over message recovers to expected.
func (c *Coordinator) VerifyMessage(message, sigHex, expected string) vyra.Response[bool] {
	if err := vyra.ValidateAddress(expected); err != nil {
		return vyra.Fail[bool](err)
	}
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return vyra.Fail[bool](vyra.NewError(vyra.CodeMessageVerifyFailed, "malformed signature", err))
	}
	recovered, err := signer.RecoverText([]byte(message), sig)
	if err != nil {
		return vyra.Fail[bool](vyra.NewError(vyra.CodeMessageVerifyFailed, "signature recovery failed", err))
	}
	return vyra.OK(recovered == common.HexToAddress(expected))
}

// WatchBalance polls the connected account's VYR balance and invokes fn on
// every change until ctx is cancelled. Runs in its own goroutine; the first
// reading is delivered immediately.
func (c *Coordinator) WatchBalance(ctx context.Context, interval time.Duration, fn func(balance string)) error {
	if c.signer == nil {
		return vyra.ErrNotConnected
	}
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	addr := c.signer.Address()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last string
		report := func() {
			bal, err := c.tokenBalance(ctx, addr)
			if err != nil {
				return
			}
			s := vyra.FromWei(bal)
			if s != last {
				last = s
				fn(s)
			}
		}

		report()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				report()
			}
		}
	}()
	return nil
}

func (c *Coordinator) tokenBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	callCtx, cancel := vyra.Bound(ctx, c.timeouts.CallTimeout)
	defer cancel()

	results, err := c.caller.Call(callCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.TokenAddress),
		Method:   "balanceOf",
		Args:     []interface{}{addr},
	})
	if err != nil {
		return nil, err
	}
	return vyra.ResultBigInt(results, 0)
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
