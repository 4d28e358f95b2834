package vyra

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// FeeData is the current network fee schedule.
type FeeData struct {
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// CallMsg describes a call for gas estimation.
type CallMsg struct {
	From  common.Address
	To    common.Address
	Value *big.Int
	Data  []byte
}

// Receipt is the confirmation record of a mined transaction.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64

	// Status is 1 for success, 0 for revert.
	Status uint64
}

// Provider is the read-only RPC collaborator. Implementations must honor
// context cancellation on every call.
type Provider interface {
	// GetBalance returns the native balance of addr in wei.
	GetBalance(ctx context.Context, addr common.Address) (*big.Int, error)

	// GetFeeData returns the current fee schedule. Results are time-varying
	// and must not be cached beyond a single request.
	GetFeeData(ctx context.Context) (*FeeData, error)

	// EstimateGas simulates msg and returns a gas limit. Fails if the call
	// would revert.
	EstimateGas(ctx context.Context, msg CallMsg) (uint64, error)

	// ChainID returns the connected network's chain ID.
	ChainID(ctx context.Context) (*big.Int, error)

	// WaitForTransaction blocks until hash has the requested confirmations.
	WaitForTransaction(ctx context.Context, hash common.Hash, confirmations uint64) (*Receipt, error)
}

// ContractCall identifies a contract method invocation. Args follow the
// method's declared parameter order using Go types (*big.Int for uint256,
// common.Address, common.Hash for bytes32, []byte for bytes, string).
type ContractCall struct {
	Contract common.Address
	Method   string
	Args     []interface{}
}

// ContractCaller is the contract-call collaborator. Submit may fail on
// revert; the core never assumes success before receipt confirmation.
type ContractCaller interface {
	// Submit signs and broadcasts a state-changing call, returning its hash.
	Submit(ctx context.Context, call ContractCall) (common.Hash, error)

	// Call executes a read-only method and returns the decoded results in
	// declared return order.
	Call(ctx context.Context, call ContractCall) ([]interface{}, error)
}

// NonceSource supplies monotonic signing nonces per signer address. Nonce
// management is an injected dependency, never a hardcoded constant.
type NonceSource interface {
	// Next returns the current nonce for addr and advances it.
	Next(ctx context.Context, addr common.Address) (uint64, error)
}

// MemoryNonceSource is an in-process NonceSource. Suitable for tests and
// single-instance deployments; distributed deployments need a shared source.
type MemoryNonceSource struct {
	mu     sync.Mutex
	nonces map[common.Address]uint64
}

// NewMemoryNonceSource creates an empty in-memory nonce source.
func NewMemoryNonceSource() *MemoryNonceSource {
	return &MemoryNonceSource{nonces: make(map[common.Address]uint64)}
}

// Next implements NonceSource.
func (s *MemoryNonceSource) Next(_ context.Context, addr common.Address) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.nonces[addr]
	s.nonces[addr] = n + 1
	return n, nil
}
