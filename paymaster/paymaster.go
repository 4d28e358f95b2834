// Package paymaster coordinates gas sponsorship: session keys, sponsor
// balances, and gas-to-VYR cost projection against the paymaster contract.
package paymaster

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kirannarayanak/vyra"
	"github.com/kirannarayanak/vyra/hashing"
	"github.com/kirannarayanak/vyra/signer"
)

// DefaultSessionDuration is applied when CreateSessionKey gets a zero expiry.
const DefaultSessionDuration = 24 * time.Hour

// SessionGrant is the result of creating a session key. It carries the
// generated key's private material exactly once; the coordinator keeps no
// copy after returning it.
type SessionGrant struct {
	Key vyra.SessionKey `json:"key"`

	// PrivateKey is the hex-encoded private key of the generated session
	// signer. The caller owns its storage.
	PrivateKey string `json:"privateKey"`

	TxHash string `json:"txHash"`
}

// Coordinator builds, signs, and submits paymaster operations.
type Coordinator struct {
	network  vyra.NetworkConfig
	caller   vyra.ContractCaller
	provider vyra.Provider
	signer   *signer.Signer
	nonces   vyra.NonceSource
	timeouts vyra.TimeoutConfig
	onEvent  vyra.Callback
	now      func() time.Time

	// generate produces a fresh session signer. Injectable for tests.
	generate func() (*signer.Signer, error)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSigner binds the user signing capability.
func WithSigner(s *signer.Signer) Option {
	return func(c *Coordinator) { c.signer = s }
}

// WithProvider binds the RPC collaborator used for gas estimation.
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

// WithKeyGenerator overrides session key generation.
func WithKeyGenerator(gen func() (*signer.Signer, error)) Option {
	return func(c *Coordinator) { c.generate = gen }
}

// New creates a Coordinator bound to one network configuration.
func New(network vyra.NetworkConfig, caller vyra.ContractCaller, opts ...Option) *Coordinator {
	c := &Coordinator{
		network:  network,
		caller:   caller,
		nonces:   vyra.NewMemoryNonceSource(),
		timeouts: vyra.DefaultTimeouts,
		now:      time.Now,
		generate: signer.Generate,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateSessionKey generates a fresh session signer and registers it on the
// paymaster. The returned grant is provisional: nonce starts at zero and the
// key reports active, but the on-chain record is authoritative once the
// registration confirms.
func (c *Coordinator) CreateSessionKey(ctx context.Context, expiry int64) vyra.Response[SessionGrant] {
	start := c.now()

	if c.signer == nil {
		return vyra.Fail[SessionGrant](vyra.ErrNotConnected)
	}
	now := c.now()
	if expiry == 0 {
		expiry = now.Add(DefaultSessionDuration).Unix()
	}
	if expiry <= now.Unix() {
		return vyra.Fail[SessionGrant](vyra.NewError(vyra.CodeInvalidInput,
			fmt.Sprintf("session expiry %d is in the past", expiry), nil))
	}

	session, err := c.generate()
	if err != nil {
		return vyra.Fail[SessionGrant](vyra.NewError(vyra.CodeSessionKeyCreateFailed, "cannot generate session key", err))
	}

	user := c.signer.Address()
	nonce, err := c.nonces.Next(ctx, user)
	if err != nil {
		return vyra.Fail[SessionGrant](vyra.NewError(vyra.CodeSessionKeyCreateFailed, "nonce source failed", err))
	}

	digest := hashing.TypedDigest(c.domain(),
		hashing.SessionKeyDigest(user, session.Address(), nonce, big.NewInt(c.network.ChainID)))
	sig, err := c.signer.SignDigest(digest)
	if err != nil {
		return vyra.Fail[SessionGrant](vyra.NewError(vyra.CodeWalletNotConnected, "cannot sign session key grant", err))
	}

	c.emit(vyra.EventAttempt, "create_session_key", "", session.Address().Hex(), "", nil, start)

	subCtx, cancel := vyra.Bound(ctx, c.timeouts.SubmitTimeout)
	defer cancel()

	txHash, err := c.caller.Submit(subCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.PaymasterAddress),
		Method:   "createSessionKey",
		Args:     []interface{}{session.Address(), big.NewInt(expiry), sig},
	})
	if err != nil {
		verr := vyra.ClassifySubmit(err, vyra.CodeSessionKeyCreateFailed, "session key creation failed")
		c.emit(vyra.EventFailure, "create_session_key", "", session.Address().Hex(), "", verr, start)
		return vyra.Fail[SessionGrant](verr)
	}

	c.emit(vyra.EventSuccess, "create_session_key", "", session.Address().Hex(), txHash.Hex(), nil, start)
	return vyra.Submitted(SessionGrant{
		Key: vyra.SessionKey{
			Address: session.Address().Hex(),
			Nonce:   0,
			Expiry:  expiry,
			Active:  true,
		},
		PrivateKey: session.PrivateKeyHex(),
		TxHash:     txHash.Hex(),
	}, txHash)
}

// RevokeSessionKey deactivates a registered session key.
func (c *Coordinator) RevokeSessionKey(ctx context.Context, sessionKey string) vyra.Response[string] {
	start := c.now()

	if c.signer == nil {
		return vyra.Fail[string](vyra.ErrNotConnected)
	}
	if err := vyra.ValidateAddress(sessionKey); err != nil {
		return vyra.Fail[string](err)
	}
	sessionAddr := common.HexToAddress(sessionKey)

	user := c.signer.Address()
	nonce, err := c.nonces.Next(ctx, user)
	if err != nil {
		return vyra.Fail[string](vyra.NewError(vyra.CodeSessionKeyRevokeFailed, "nonce source failed", err))
	}

	digest := hashing.TypedDigest(c.domain(),
		hashing.SessionKeyDigest(user, sessionAddr, nonce, big.NewInt(c.network.ChainID)))
	sig, err := c.signer.SignDigest(digest)
	if err != nil {
		return vyra.Fail[string](vyra.NewError(vyra.CodeWalletNotConnected, "cannot sign revocation", err))
	}

	c.emit(vyra.EventAttempt, "revoke_session_key", "", sessionKey, "", nil, start)

	subCtx, cancel := vyra.Bound(ctx, c.timeouts.SubmitTimeout)
	defer cancel()

	txHash, err := c.caller.Submit(subCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.PaymasterAddress),
		Method:   "revokeSessionKey",
		Args:     []interface{}{sessionAddr, sig},
	})
	if err != nil {
		verr := vyra.ClassifySubmit(err, vyra.CodeSessionKeyRevokeFailed, "session key revocation failed")
		c.emit(vyra.EventFailure, "revoke_session_key", "", sessionKey, "", verr, start)
		return vyra.Fail[string](verr)
	}

	c.emit(vyra.EventSuccess, "revoke_session_key", "", sessionKey, txHash.Hex(), nil, start)
	return vyra.Submitted(txHash.Hex(), txHash)
}

// SessionKeyInfo reads a user's registered session key record.
func (c *Coordinator) SessionKeyInfo(ctx context.Context, user string) vyra.Response[vyra.SessionKey] {
	if err := vyra.ValidateAddress(user); err != nil {
		return vyra.Fail[vyra.SessionKey](err)
	}

	record, err := c.sessionRecord(ctx, common.HexToAddress(user))
	if err != nil {
		return vyra.Fail[vyra.SessionKey](vyra.ClassifySubmit(err, vyra.CodeStatsFetchFailed, "session lookup failed"))
	}
	if record.Address == (common.Address{}) {
		return vyra.Fail[vyra.SessionKey](vyra.NewError(vyra.CodeNotFound, "no session key registered", nil))
	}
	return vyra.OK(vyra.SessionKey{
		Address: record.Address.Hex(),
		Nonce:   record.Nonce,
		Expiry:  record.Expiry,
		Active:  record.Active,
	})
}

// ValidateSessionKey checks whether sig authorizes a sponsored action for
// user's registered session key at the given nonce. An inactive record or a
// nonce that does not exactly match the on-chain value is rejected locally;
// the signature-validation call only happens for a live, current key.
func (c *Coordinator) ValidateSessionKey(ctx context.Context, user, sessionKey string, nonce uint64, sig []byte) vyra.Response[bool] {
	if err := vyra.ValidateAddress(user); err != nil {
		return vyra.Fail[bool](err)
	}
	if err := vyra.ValidateAddress(sessionKey); err != nil {
		return vyra.Fail[bool](err)
	}
	userAddr := common.HexToAddress(user)
	sessionAddr := common.HexToAddress(sessionKey)

	record, err := c.sessionRecord(ctx, userAddr)
	if err != nil {
		return vyra.Fail[bool](vyra.ClassifySubmit(err, vyra.CodeMessageVerifyFailed, "session lookup failed"))
	}
	if !record.Active || record.Address != sessionAddr {
		return vyra.OK(false)
	}
	if record.Expiry != 0 && record.Expiry <= c.now().Unix() {
		return vyra.OK(false)
	}
	// Strict equality. A stale nonce means the signature was built over an
	// already-consumed authorization and must not reach the verifier.
	if nonce != record.Nonce {
		return vyra.OK(false)
	}

	callCtx, cancel := vyra.Bound(ctx, c.timeouts.CallTimeout)
	defer cancel()

	results, err := c.caller.Call(callCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.PaymasterAddress),
		Method:   "validateSessionKey",
		Args:     []interface{}{userAddr, sessionAddr, new(big.Int).SetUint64(nonce), sig},
	})
	if err != nil {
		return vyra.Fail[bool](vyra.ClassifySubmit(err, vyra.CodeMessageVerifyFailed, "session key validation failed"))
	}
	valid, err := vyra.ResultBool(results, 0)
	if err != nil {
		return vyra.Fail[bool](vyra.NewError(vyra.CodeMessageVerifyFailed, "malformed validation result", err))
	}
	return vyra.OK(valid)
}

// AddSponsorBalance deposits VYR into a user's gas sponsorship balance.
func (c *Coordinator) AddSponsorBalance(ctx context.Context, user, amount string) vyra.Response[string] {
	start := c.now()

	if c.signer == nil {
		return vyra.Fail[string](vyra.ErrNotConnected)
	}
	if err := vyra.ValidateAddress(user); err != nil {
		return vyra.Fail[string](err)
	}
	if err := vyra.ValidateAmount(amount); err != nil {
		return vyra.Fail[string](err)
	}
	amountWei, _ := vyra.ToWei(amount)

	c.emit(vyra.EventAttempt, "add_sponsor_balance", amount, user, "", nil, start)

	subCtx, cancel := vyra.Bound(ctx, c.timeouts.SubmitTimeout)
	defer cancel()

	txHash, err := c.caller.Submit(subCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.PaymasterAddress),
		Method:   "addSponsorBalance",
		Args:     []interface{}{common.HexToAddress(user), amountWei},
	})
	if err != nil {
		verr := vyra.ClassifySubmit(err, vyra.CodeSponsorBalanceFailed, "sponsor deposit failed")
		c.emit(vyra.EventFailure, "add_sponsor_balance", amount, user, "", verr, start)
		return vyra.Fail[string](verr)
	}

	c.emit(vyra.EventSuccess, "add_sponsor_balance", amount, user, txHash.Hex(), nil, start)
	return vyra.Submitted(txHash.Hex(), txHash)
}

// HasSponsorBalance reports whether user's sponsorship balance covers the
// VYR cost of gasAmount at current rates.
func (c *Coordinator) HasSponsorBalance(ctx context.Context, user string, gasAmount uint64) vyra.Response[bool] {
	if err := vyra.ValidateAddress(user); err != nil {
		return vyra.Fail[bool](err)
	}

	callCtx, cancel := vyra.Bound(ctx, c.timeouts.CallTimeout)
	defer cancel()

	results, err := c.caller.Call(callCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.PaymasterAddress),
		Method:   "hasSponsorBalance",
		Args:     []interface{}{common.HexToAddress(user), new(big.Int).SetUint64(gasAmount)},
	})
	if err != nil {
		return vyra.Fail[bool](vyra.ClassifySubmit(err, vyra.CodeSponsorBalanceFailed, "sponsor balance check failed"))
	}
	ok, err := vyra.ResultBool(results, 0)
	if err != nil {
		return vyra.Fail[bool](vyra.NewError(vyra.CodeSponsorBalanceFailed, "malformed balance result", err))
	}
	return vyra.OK(ok)
}

// RequiredVyrAmount converts a gas amount to its VYR cost at the contract's
// current conversion rate.
func (c *Coordinator) RequiredVyrAmount(ctx context.Context, gasAmount uint64) vyra.Response[string] {
	callCtx, cancel := vyra.Bound(ctx, c.timeouts.CallTimeout)
	defer cancel()

	results, err := c.caller.Call(callCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.PaymasterAddress),
		Method:   "getRequiredVyrAmount",
		Args:     []interface{}{new(big.Int).SetUint64(gasAmount)},
	})
	if err != nil {
		return vyra.Fail[string](vyra.ClassifySubmit(err, vyra.CodeVyrAmountFailed, "VYR amount calculation failed"))
	}
	required, err := vyra.ResultBigInt(results, 0)
	if err != nil {
		return vyra.Fail[string](vyra.NewError(vyra.CodeVyrAmountFailed, "malformed amount result", err))
	}
	return vyra.OK(vyra.FromWei(required))
}

// EstimateGasForSponsoredTx simulates a sponsored call and projects its gas
// and VYR cost. An estimation failure, including one caused by the call
// reverting in simulation, is surfaced as GAS_ESTIMATE_FAILED and never
// reported as a zero estimate.
func (c *Coordinator) EstimateGasForSponsoredTx(ctx context.Context, to string, data []byte, value string) vyra.Response[vyra.GasEstimate] {
	if c.provider == nil {
		return vyra.Fail[vyra.GasEstimate](vyra.NewError(vyra.CodeGasEstimateFailed, "no provider bound", nil))
	}
	if c.signer == nil {
		return vyra.Fail[vyra.GasEstimate](vyra.ErrNotConnected)
	}
	if err := vyra.ValidateAddress(to); err != nil {
		return vyra.Fail[vyra.GasEstimate](err)
	}
	valueWei := new(big.Int)
	if value != "" {
		var err error
		if valueWei, err = vyra.ToWei(value); err != nil {
			return vyra.Fail[vyra.GasEstimate](err)
		}
	}

	callCtx, cancel := vyra.Bound(ctx, c.timeouts.CallTimeout)
	defer cancel()

	gasLimit, err := c.provider.EstimateGas(callCtx, vyra.CallMsg{
		From:  c.signer.Address(),
		To:    common.HexToAddress(to),
		Value: valueWei,
		Data:  data,
	})
	if err != nil {
		return vyra.Fail[vyra.GasEstimate](vyra.NewError(vyra.CodeGasEstimateFailed, "gas estimation failed", err).
			WithDetails("to", to))
	}

	feeData, err := c.provider.GetFeeData(callCtx)
	if err != nil {
		return vyra.Fail[vyra.GasEstimate](vyra.NewError(vyra.CodeGasEstimateFailed, "fee data fetch failed", err))
	}

	vyrCost := c.RequiredVyrAmount(ctx, gasLimit)
	if !vyrCost.Success {
		return vyra.Fail[vyra.GasEstimate](vyra.NewError(vyra.CodeGasEstimateFailed,
			"VYR cost projection failed", nil).WithDetails("cause", string(vyrCost.Error.Code)))
	}

	est := vyra.GasEstimate{
		GasLimit: new(big.Int).SetUint64(gasLimit).String(),
		VyrCost:  vyrCost.Data,
	}
	if feeData.GasPrice != nil {
		est.GasPrice = feeData.GasPrice.String()
	}
	if feeData.MaxFeePerGas != nil {
		est.MaxFeePerGas = feeData.MaxFeePerGas.String()
	}
	if feeData.MaxPriorityFeePerGas != nil {
		est.MaxPriorityFeePerGas = feeData.MaxPriorityFeePerGas.String()
	}
	return vyra.OK(est)
}

// Stats reads the paymaster's sponsorship totals.
func (c *Coordinator) Stats(ctx context.Context) vyra.Response[vyra.PaymasterStats] {
	callCtx, cancel := vyra.Bound(ctx, c.timeouts.CallTimeout)
	defer cancel()

	results, err := c.caller.Call(callCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.PaymasterAddress),
		Method:   "getPaymasterStats",
	})
	if err != nil {
		return vyra.Fail[vyra.PaymasterStats](vyra.ClassifySubmit(err, vyra.CodeStatsFetchFailed, "paymaster stats fetch failed"))
	}

	sponsoredGas, err := vyra.ResultBigInt(results, 0)
	if err != nil {
		return vyra.Fail[vyra.PaymasterStats](vyra.NewError(vyra.CodeStatsFetchFailed, "malformed stats result", err))
	}
	vyrSpent, err := vyra.ResultBigInt(results, 1)
	if err != nil {
		return vyra.Fail[vyra.PaymasterStats](vyra.NewError(vyra.CodeStatsFetchFailed, "malformed stats result", err))
	}
	sponsorships, err := vyra.ResultBigInt(results, 2)
	if err != nil {
		return vyra.Fail[vyra.PaymasterStats](vyra.NewError(vyra.CodeStatsFetchFailed, "malformed stats result", err))
	}

	return vyra.OK(vyra.PaymasterStats{
		TotalSponsoredGas: sponsoredGas.String(),
		TotalVyrSpent:     vyra.FromWei(vyrSpent),
		TotalSponsorships: sponsorships.String(),
	})
}

// sessionRecord is the decoded on-chain session entry.
type sessionRecord struct {
	Address common.Address
	Nonce   uint64
	Expiry  int64
	Active  bool
}

// sessionRecord reads a user's session entry. Contract layout:
// (sessionKey, nonce, expiry, active).
func (c *Coordinator) sessionRecord(ctx context.Context, user common.Address) (sessionRecord, error) {
	callCtx, cancel := vyra.Bound(ctx, c.timeouts.CallTimeout)
	defer cancel()

	results, err := c.caller.Call(callCtx, vyra.ContractCall{
		Contract: common.HexToAddress(c.network.PaymasterAddress),
		Method:   "sessions",
		Args:     []interface{}{user},
	})
	if err != nil {
		return sessionRecord{}, err
	}

	addr, err := vyra.ResultAddress(results, 0)
	if err != nil {
		return sessionRecord{}, err
	}
	nonce, err := vyra.ResultBigInt(results, 1)
	if err != nil {
		return sessionRecord{}, err
	}
	expiry, err := vyra.ResultBigInt(results, 2)
	if err != nil {
		return sessionRecord{}, err
	}
	active, err := vyra.ResultBool(results, 3)
	if err != nil {
		return sessionRecord{}, err
	}
	return sessionRecord{
		Address: addr,
		Nonce:   nonce.Uint64(),
		Expiry:  expiry.Int64(),
		Active:  active,
	}, nil
}

// domain is the signing domain bound to the paymaster contract.
func (c *Coordinator) domain() common.Hash {
	return hashing.DomainSeparator(big.NewInt(c.network.ChainID), common.HexToAddress(c.network.PaymasterAddress))
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
