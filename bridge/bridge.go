// Package bridge coordinates L1/L2 VYR transfers: deposits, validator-signed
// withdrawals, and the idempotent relay of both across the bridge contract.
package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/kirannarayanak/vyra"
	"github.com/kirannarayanak/vyra/hashing"
	"github.com/kirannarayanak/vyra/signer"
)

// ProcessResult reports the outcome of a relay operation. AlreadyProcessed
// means another relayer completed the transfer first; the operation is a
// success with no new transaction.
type ProcessResult struct {
	ID               string `json:"id"`
	AlreadyProcessed bool   `json:"alreadyProcessed"`
	TxHash           string `json:"txHash,omitempty"`
}

// Coordinator builds, signs, and submits bridge operations.
type Coordinator struct {
	network  vyra.NetworkConfig
	caller   vyra.ContractCaller
	signer   *signer.Signer
	timeouts vyra.TimeoutConfig
	onEvent  vyra.Callback
	now      func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSigner binds the depositor or relayer signing capability.
func WithSigner(s *signer.Signer) Option {
	return func(c *Coordinator) { c.signer = s }
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

// Deposit locks VYR on L1 for crediting on L2.
func (c *Coordinator) Deposit(ctx context.Context, amount string) vyra.Response[vyra.BridgeDeposit] {
	start := c.now()

	if c.signer == nil {
		return vyra.Fail[vyra.BridgeDeposit](vyra.ErrNotConnected)
	}
	if err := vyra.ValidateAmount(amount); err != nil {
		return vyra.Fail[vyra.BridgeDeposit](err)
	}
	amountWei, _ := vyra.ToWei(amount)

	c.emit(vyra.EventAttempt, "bridge_deposit", amount, "", "", nil, start)

	subCtx, cancel := vyra.Bound(ctx, c.timeouts.SubmitTimeout)
	defer cancel()

	txHash, err := c.caller.Submit(subCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.BridgeAddress),
		Method:   "deposit",
		Args:     []interface{}{amountWei},
	})
	if err != nil {
		verr := vyra.ClassifySubmit(err, vyra.CodeDepositFailed, "bridge deposit failed")
		c.emit(vyra.EventFailure, "bridge_deposit", amount, "", "", verr, start)
		return vyra.Fail[vyra.BridgeDeposit](verr)
	}

	c.emit(vyra.EventSuccess, "bridge_deposit", amount, "", txHash.Hex(), nil, start)
	return vyra.Submitted(vyra.BridgeDeposit{
		Amount:    vyra.FromWei(amountWei),
		TxHash:    txHash.Hex(),
		Timestamp: start.Unix(),
	}, txHash)
}

// ProcessDeposit relays a deposit onto the destination chain. Processing is
// idempotent: the processed flag is consulted before submission, and a
// deposit already relayed by a competing relayer resolves as a success with
// AlreadyProcessed set and no new transaction.
func (c *Coordinator) ProcessDeposit(ctx context.Context, depositID string, signatures [][]byte) vyra.Response[ProcessResult] {
	start := c.now()

	if c.signer == nil {
		return vyra.Fail[ProcessResult](vyra.ErrNotConnected)
	}
	id, err := vyra.ParseHash32(depositID)
	if err != nil {
		return vyra.Fail[ProcessResult](vyra.NewError(vyra.CodeInvalidInput, "invalid deposit id", err))
	}
	if len(signatures) == 0 {
		return vyra.Fail[ProcessResult](vyra.NewError(vyra.CodeInvalidInput, "no validator signatures", nil))
	}

	processed, err := c.isProcessed(ctx, "processedDeposits", id)
	if err != nil {
		return vyra.Fail[ProcessResult](vyra.ClassifySubmit(err, vyra.CodeDepositProcessFailed, "deposit state check failed"))
	}
	if processed {
		return vyra.OK(ProcessResult{ID: id.Hex(), AlreadyProcessed: true})
	}

	c.emit(vyra.EventAttempt, "process_deposit", "", "", "", nil, start)

	subCtx, cancel := vyra.Bound(ctx, c.timeouts.SubmitTimeout)
	defer cancel()

	txHash, err := c.caller.Submit(subCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.BridgeAddress),
		Method:   "processDeposit",
		Args:     []interface{}{id, signatures},
	})
	if err != nil {
		// Lost the race after the check: the contract rejects duplicates, so
		// a revert here is re-examined against the processed flag.
		if p, perr := c.isProcessed(ctx, "processedDeposits", id); perr == nil && p {
			return vyra.OK(ProcessResult{ID: id.Hex(), AlreadyProcessed: true})
		}
		verr := vyra.ClassifySubmit(err, vyra.CodeDepositProcessFailed, "deposit processing failed")
		c.emit(vyra.EventFailure, "process_deposit", "", "", "", verr, start)
		return vyra.Fail[ProcessResult](verr)
	}

	c.emit(vyra.EventSuccess, "process_deposit", "", "", txHash.Hex(), nil, start)
	return vyra.Submitted(ProcessResult{ID: id.Hex(), TxHash: txHash.Hex()}, txHash)
}

// InitiateWithdrawal redeems an L2 burn on L1 with validator signatures.
// The withdrawal identifier is derived from (amount, l2TxHash), so a repeat
// of the same withdrawal short-circuits as already processed.
func (c *Coordinator) InitiateWithdrawal(ctx context.Context, amount, l2TxHash string, signatures [][]byte) vyra.Response[ProcessResult] {
	start := c.now()

	if c.signer == nil {
		return vyra.Fail[ProcessResult](vyra.ErrNotConnected)
	}
	if err := vyra.ValidateAmount(amount); err != nil {
		return vyra.Fail[ProcessResult](err)
	}
	l2Hash, err := vyra.ParseHash32(l2TxHash)
	if err != nil {
		return vyra.Fail[ProcessResult](vyra.NewError(vyra.CodeInvalidInput, "invalid L2 transaction hash", err))
	}
	if len(signatures) == 0 {
		return vyra.Fail[ProcessResult](vyra.NewError(vyra.CodeInvalidInput, "no validator signatures", nil))
	}
	amountWei, _ := vyra.ToWei(amount)

	id := hashing.WithdrawalID(amountWei, l2Hash)
	processed, err := c.isProcessed(ctx, "processedWithdrawals", id)
	if err != nil {
		return vyra.Fail[ProcessResult](vyra.ClassifySubmit(err, vyra.CodeWithdrawalFailed, "withdrawal state check failed"))
	}
	if processed {
		return vyra.OK(ProcessResult{ID: id.Hex(), AlreadyProcessed: true})
	}

	c.emit(vyra.EventAttempt, "initiate_withdrawal", amount, "", "", nil, start)

	subCtx, cancel := vyra.Bound(ctx, c.timeouts.SubmitTimeout)
	defer cancel()

	txHash, err := c.caller.Submit(subCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.BridgeAddress),
		Method:   "initiateWithdrawal",
		Args:     []interface{}{amountWei, l2Hash, signatures},
	})
	if err != nil {
		if p, perr := c.isProcessed(ctx, "processedWithdrawals", id); perr == nil && p {
			return vyra.OK(ProcessResult{ID: id.Hex(), AlreadyProcessed: true})
		}
		verr := vyra.ClassifySubmit(err, vyra.CodeWithdrawalFailed, "withdrawal failed")
		c.emit(vyra.EventFailure, "initiate_withdrawal", amount, "", "", verr, start)
		return vyra.Fail[ProcessResult](verr)
	}

	c.emit(vyra.EventSuccess, "initiate_withdrawal", amount, "", txHash.Hex(), nil, start)
	return vyra.Submitted(ProcessResult{ID: id.Hex(), TxHash: txHash.Hex()}, txHash)
}

// IsDepositProcessed reports whether a deposit has been relayed.
func (c *Coordinator) IsDepositProcessed(ctx context.Context, depositID string) vyra.Response[bool] {
	id, err := vyra.ParseHash32(depositID)
	if err != nil {
		return vyra.Fail[bool](vyra.NewError(vyra.CodeInvalidInput, "invalid deposit id", err))
	}
	processed, err := c.isProcessed(ctx, "processedDeposits", id)
	if err != nil {
		return vyra.Fail[bool](vyra.ClassifySubmit(err, vyra.CodeDepositProcessFailed, "deposit state check failed"))
	}
	return vyra.OK(processed)
}

// IsWithdrawalProcessed reports whether a withdrawal has been redeemed.
func (c *Coordinator) IsWithdrawalProcessed(ctx context.Context, withdrawalID string) vyra.Response[bool] {
	id, err := vyra.ParseHash32(withdrawalID)
	if err != nil {
		return vyra.Fail[bool](vyra.NewError(vyra.CodeInvalidInput, "invalid withdrawal id", err))
	}
	processed, err := c.isProcessed(ctx, "processedWithdrawals", id)
	if err != nil {
		return vyra.Fail[bool](vyra.ClassifySubmit(err, vyra.CodeWithdrawalFailed, "withdrawal state check failed"))
	}
	return vyra.OK(processed)
}

// Validators lists the bridge's current validator set.
func (c *Coordinator) Validators(ctx context.Context) vyra.Response[[]string] {
	callCtx, cancel := vyra.Bound(ctx, c.timeouts.CallTimeout)
	defer cancel()

	results, err := c.caller.Call(callCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.BridgeAddress),
		Method:   "getValidators",
	})
	if err != nil {
		return vyra.Fail[[]string](vyra.ClassifySubmit(err, vyra.CodeStatsFetchFailed, "validator fetch failed"))
	}
	addrs, err := vyra.ResultAddresses(results, 0)
	if err != nil {
		return vyra.Fail[[]string](vyra.NewError(vyra.CodeStatsFetchFailed, "malformed validator result", err))
	}

	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.Hex()
	}
	return vyra.OK(out)
}

// Stats reads the bridge's transfer totals.
func (c *Coordinator) Stats(ctx context.Context) vyra.Response[vyra.BridgeStats] {
	callCtx, cancel := vyra.Bound(ctx, c.timeouts.CallTimeout)
	defer cancel()

	results, err := c.caller.Call(callCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.BridgeAddress),
		Method:   "getBridgeStats",
	})
	if err != nil {
		return vyra.Fail[vyra.BridgeStats](vyra.ClassifySubmit(err, vyra.CodeStatsFetchFailed, "bridge stats fetch failed"))
	}

	deposits, err := vyra.ResultBigInt(results, 0)
	if err != nil {
		return vyra.Fail[vyra.BridgeStats](vyra.NewError(vyra.CodeStatsFetchFailed, "malformed stats result", err))
	}
	withdrawals, err := vyra.ResultBigInt(results, 1)
	if err != nil {
		return vyra.Fail[vyra.BridgeStats](vyra.NewError(vyra.CodeStatsFetchFailed, "malformed stats result", err))
	}
	feesCollected, err := vyra.ResultBigInt(results, 2)
	if err != nil {
		return vyra.Fail[vyra.BridgeStats](vyra.NewError(vyra.CodeStatsFetchFailed, "malformed stats result", err))
	}
	validators, err := vyra.ResultBigInt(results, 3)
	if err != nil {
		return vyra.Fail[vyra.BridgeStats](vyra.NewError(vyra.CodeStatsFetchFailed, "malformed stats result", err))
	}

	return vyra.OK(vyra.BridgeStats{
		TotalDeposits:    vyra.FromWei(deposits),
		TotalWithdrawals: vyra.FromWei(withdrawals),
		TotalFees:        vyra.FromWei(feesCollected),
		ValidatorCount:   validators.Uint64(),
	})
}

// DecodeSignatures converts hex-encoded validator signatures to bytes,
// checking each for the 65-byte [R || S || V] length.
func DecodeSignatures(hexSigs []string) ([][]byte, error) {
	sigs := make([][]byte, len(hexSigs))
	for i, h := range hexSigs {
		b, err := hexutil.Decode(h)
		if err != nil {
			return nil, fmt.Errorf("signature %d: %w", i, err)
		}
		if len(b) != signer.SignatureLength {
			return nil, fmt.Errorf("signature %d: invalid length %d", i, len(b))
		}
		sigs[i] = b
	}
	return sigs, nil
}

func (c *Coordinator) isProcessed(ctx context.Context, method string, id common.Hash) (bool, error) {
	callCtx, cancel := vyra.Bound(ctx, c.timeouts.CallTimeout)
	defer cancel()

	results, err := c.caller.Call(callCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.BridgeAddress),
		Method:   method,
		Args:     []interface{}{id},
	})
	if err != nil {
		return false, err
	}
	return vyra.ResultBool(results, 0)
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
