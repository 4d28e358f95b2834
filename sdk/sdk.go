// Package sdk assembles the coordinators behind one entry point bound to a
// network, a signer, and a set of RPC collaborators.
package sdk

import (
	"context"
	"fmt"
	"sync"

	"github.com/kirannarayanak/vyra"
	"github.com/kirannarayanak/vyra/bridge"
	"github.com/kirannarayanak/vyra/invoice"
	"github.com/kirannarayanak/vyra/paymaster"
	"github.com/kirannarayanak/vyra/rpc"
	"github.com/kirannarayanak/vyra/signer"
	"github.com/kirannarayanak/vyra/wallet"
)

// SDK is the assembled client. Safe for concurrent use; SwitchNetwork
// replaces every coordinator atomically so callers never observe a mix of
// two networks.
type SDK struct {
	mu sync.RWMutex

	network  vyra.NetworkConfig
	caller   vyra.ContractCaller
	provider vyra.Provider
	signer   *signer.Signer
	nonces   vyra.NonceSource
	timeouts vyra.TimeoutConfig
	onEvent  vyra.Callback

	// ownsProvider is set when the SDK dialed the provider itself and is
	// responsible for closing and redialing it.
	ownsProvider bool

	wallet    *wallet.Coordinator
	invoices  *invoice.Coordinator
	paymaster *paymaster.Coordinator
	bridge    *bridge.Coordinator
}

// Option configures the SDK.
type Option func(*SDK)

// WithSigner binds the signing capability shared by all coordinators.
func WithSigner(s *signer.Signer) Option {
	return func(v *SDK) { v.signer = s }
}

// WithProvider injects an RPC provider instead of dialing the network's
// default endpoint.
func WithProvider(p vyra.Provider) Option {
	return func(v *SDK) { v.provider = p }
}

// WithNonceSource overrides the signing nonce source.
func WithNonceSource(n vyra.NonceSource) Option {
	return func(v *SDK) { v.nonces = n }
}

// WithTimeouts overrides the per-call timeouts.
func WithTimeouts(tc vyra.TimeoutConfig) Option {
	return func(v *SDK) { v.timeouts = tc }
}

// WithCallback registers a payment event callback shared by all
// coordinators.
func WithCallback(cb vyra.Callback) Option {
	return func(v *SDK) { v.onEvent = cb }
}

// New assembles an SDK for the given network. When no provider is injected,
// the network's default RPC endpoint is dialed and owned by the SDK.
func New(ctx context.Context, network vyra.NetworkConfig, caller vyra.ContractCaller, opts ...Option) (*SDK, error) {
	if err := network.Validate(); err != nil {
		return nil, err
	}
	if caller == nil {
		return nil, fmt.Errorf("nil contract caller")
	}

	v := &SDK{
		network:  network,
		caller:   caller,
		nonces:   vyra.NewMemoryNonceSource(),
		timeouts: vyra.DefaultTimeouts,
	}
	for _, opt := range opts {
		opt(v)
	}
	if err := v.timeouts.Validate(); err != nil {
		return nil, err
	}

	if v.provider == nil {
		p, err := rpc.Dial(ctx, network.RPCURL)
		if err != nil {
			return nil, err
		}
		v.provider = p
		v.ownsProvider = true
	}

	v.rebuild()
	return v, nil
}

// ForMainnet assembles an SDK against the Ethereum mainnet deployment.
func ForMainnet(ctx context.Context, caller vyra.ContractCaller, opts ...Option) (*SDK, error) {
	return New(ctx, vyra.Mainnet, caller, opts...)
}

// ForTestnet assembles an SDK against the Sepolia deployment.
func ForTestnet(ctx context.Context, caller vyra.ContractCaller, opts ...Option) (*SDK, error) {
	return New(ctx, vyra.Sepolia, caller, opts...)
}

// ForLocal assembles an SDK against the local development deployment.
func ForLocal(ctx context.Context, caller vyra.ContractCaller, opts ...Option) (*SDK, error) {
	return New(ctx, vyra.LocalDev, caller, opts...)
}

// rebuild reconstructs every coordinator from current fields.
// Caller holds the write lock (or is the constructor).
func (v *SDK) rebuild() {
	v.wallet = wallet.New(v.network, v.caller,
		wallet.WithSigner(v.signer),
		wallet.WithProvider(v.provider),
		wallet.WithTimeouts(v.timeouts),
		wallet.WithCallback(v.onEvent),
	)
	v.invoices = invoice.New(v.network, v.caller,
		invoice.WithSigner(v.signer),
		invoice.WithProvider(v.provider),
		invoice.WithNonceSource(v.nonces),
		invoice.WithTimeouts(v.timeouts),
		invoice.WithCallback(v.onEvent),
	)
	v.paymaster = paymaster.New(v.network, v.caller,
		paymaster.WithSigner(v.signer),
		paymaster.WithProvider(v.provider),
		paymaster.WithNonceSource(v.nonces),
		paymaster.WithTimeouts(v.timeouts),
		paymaster.WithCallback(v.onEvent),
	)
	v.bridge = bridge.New(v.network, v.caller,
		bridge.WithSigner(v.signer),
		bridge.WithTimeouts(v.timeouts),
		bridge.WithCallback(v.onEvent),
	)
}

// SwitchNetwork rebinds the SDK to another predefined network. The caller
// collaborator is replaced because contract submission is endpoint-bound; a
// provider owned by the SDK is redialed against the new network's endpoint.
func (v *SDK) SwitchNetwork(ctx context.Context, chainID int64, caller vyra.ContractCaller) error {
	network, err := vyra.GetNetworkConfig(chainID)
	if err != nil {
		return err
	}
	if caller == nil {
		return fmt.Errorf("nil contract caller")
	}

	var provider vyra.Provider
	var owns bool
	if v.ownsProvider {
		p, err := rpc.Dial(ctx, network.RPCURL)
		if err != nil {
			return err
		}
		provider = p
		owns = true
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if owns {
		if old, ok := v.provider.(*rpc.Client); ok {
			old.Close()
		}
		v.provider = provider
		v.ownsProvider = true
	}
	v.network = network
	v.caller = caller
	v.rebuild()
	return nil
}

// Connect binds a signing capability, rebuilding the coordinators.
func (v *SDK) Connect(s *signer.Signer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.signer = s
	v.rebuild()
}

// Disconnect removes the signing capability.
func (v *SDK) Disconnect() {
	v.Connect(nil)
}

// Network returns the bound network configuration.
func (v *SDK) Network() vyra.NetworkConfig {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.network
}

// Connected reports whether a signing capability is bound.
func (v *SDK) Connected() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.signer != nil
}

// Address returns the connected account address, or the empty string.
func (v *SDK) Address() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.signer == nil {
		return ""
	}
	return v.signer.Address().Hex()
}

// Wallet returns the wallet coordinator.
func (v *SDK) Wallet() *wallet.Coordinator {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.wallet
}

// Invoices returns the invoice coordinator.
func (v *SDK) Invoices() *invoice.Coordinator {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.invoices
}

// Paymaster returns the paymaster coordinator.
func (v *SDK) Paymaster() *paymaster.Coordinator {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.paymaster
}

// Bridge returns the bridge coordinator.
func (v *SDK) Bridge() *bridge.Coordinator {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.bridge
}

// Close releases an SDK-owned provider connection.
func (v *SDK) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ownsProvider {
		if c, ok := v.provider.(*rpc.Client); ok {
			c.Close()
		}
		v.provider = nil
		v.ownsProvider = false
	}
}
