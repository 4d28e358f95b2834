package rpc

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/kirannarayanak/vyra"
	"github.com/kirannarayanak/vyra/signer"
)

// viewReturns declares the ABI return types of every read-only contract
// method the coordinators consume. Raw JSON-RPC call results cannot be
// decoded without this; an unlisted method fails loudly rather than
// guessing.
var viewReturns = map[string][]string{
	"balanceOf":            {"uint256"},
	"invoiceAmount":        {"uint256"},
	"getMerchantStats":     {"uint256", "uint256"},
	"payments":             {"address", "address", "uint256", "uint256", "uint256", "uint256", "bool", "bytes32"},
	"sessions":             {"address", "uint256", "uint256", "bool"},
	"validateSessionKey":   {"bool"},
	"hasSponsorBalance":    {"bool"},
	"getRequiredVyrAmount": {"uint256"},
	"getPaymasterStats":    {"uint256", "uint256", "uint256"},
	"processedDeposits":    {"bool"},
	"processedWithdrawals": {"bool"},
	"getValidators":        {"address[]"},
	"getBridgeStats":       {"uint256", "uint256", "uint256", "uint256"},
}

// TxCaller is a vyra.ContractCaller that encodes calls from their Go
// argument types, signs state-changing transactions with a bound key, and
// broadcasts them over JSON-RPC.
type TxCaller struct {
	eth     *ethclient.Client
	signer  *signer.Signer
	chainID *big.Int
}

// NewTxCaller builds a caller over an existing connection. The signer is
// required for Submit and unused by Call.
func NewTxCaller(eth *ethclient.Client, s *signer.Signer, chainID *big.Int) *TxCaller {
	return &TxCaller{eth: eth, signer: s, chainID: chainID}
}

// DialTxCaller connects to a JSON-RPC endpoint and verifies its chain ID.
func DialTxCaller(ctx context.Context, url string, s *signer.Signer, chainID int64) (*TxCaller, error) {
	eth, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	remote, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}
	if remote.Int64() != chainID {
		eth.Close()
		return nil, fmt.Errorf("%w: endpoint reports chain %d, want %d", vyra.ErrInvalidNetwork, remote.Int64(), chainID)
	}
	return NewTxCaller(eth, s, remote), nil
}

// Close releases the underlying connection.
func (t *TxCaller) Close() {
	t.eth.Close()
}

// Submit implements vyra.ContractCaller.
func (t *TxCaller) Submit(ctx context.Context, call vyra.ContractCall) (common.Hash, error) {
	if t.signer == nil {
		return common.Hash{}, vyra.ErrNotConnected
	}

	data, err := encodeCall(call)
	if err != nil {
		return common.Hash{}, err
	}
	from := t.signer.Address()

	nonce, err := t.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("fetch nonce: %w", err)
	}
	gasLimit, err := t.eth.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &call.Contract,
		Data: data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimate gas for %s: %w", call.Method, err)
	}

	tx, err := t.buildTx(ctx, call.Contract, nonce, gasLimit, data)
	if err != nil {
		return common.Hash{}, err
	}
	signed, err := t.signer.SignTransaction(t.chainID, tx)
	if err != nil {
		return common.Hash{}, err
	}
	if err := t.eth.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("broadcast %s: %w", call.Method, err)
	}
	return signed.Hash(), nil
}

// Call implements vyra.ContractCaller.
func (t *TxCaller) Call(ctx context.Context, call vyra.ContractCall) ([]interface{}, error) {
	returns, ok := viewReturns[call.Method]
	if !ok {
		return nil, fmt.Errorf("unknown view method %q", call.Method)
	}

	data, err := encodeCall(call)
	if err != nil {
		return nil, err
	}
	msg := ethereum.CallMsg{To: &call.Contract, Data: data}
	if t.signer != nil {
		msg.From = t.signer.Address()
	}

	raw, err := t.eth.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", call.Method, err)
	}
	return decodeReturns(call.Method, returns, raw)
}

// buildTx prefers a dynamic-fee transaction when the chain reports a base
// fee, falling back to legacy pricing otherwise.
func (t *TxCaller) buildTx(ctx context.Context, to common.Address, nonce, gasLimit uint64, data []byte) (*types.Transaction, error) {
	head, err := t.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch head: %w", err)
	}
	if head.BaseFee != nil {
		tip, err := t.eth.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, fmt.Errorf("suggest gas tip: %w", err)
		}
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   t.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gasLimit,
			To:        &to,
			Data:      data,
		}), nil
	}

	gasPrice, err := t.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Data:     data,
	}), nil
}

// encodeCall derives the method's ABI signature from its Go argument types
// and packs selector plus arguments.
func encodeCall(call vyra.ContractCall) ([]byte, error) {
	typeNames := make([]string, len(call.Args))
	values := make([]interface{}, len(call.Args))
	args := make(abi.Arguments, len(call.Args))

	for i, a := range call.Args {
		name, value, err := abiArg(a)
		if err != nil {
			return nil, fmt.Errorf("%s arg %d: %w", call.Method, i, err)
		}
		typ, err := abi.NewType(name, "", nil)
		if err != nil {
			return nil, fmt.Errorf("%s arg %d: %w", call.Method, i, err)
		}
		typeNames[i] = name
		values[i] = value
		args[i] = abi.Argument{Type: typ}
	}

	packed, err := args.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", call.Method, err)
	}

	sig := fmt.Sprintf("%s(%s)", call.Method, strings.Join(typeNames, ","))
	data := make([]byte, 0, 4+len(packed))
	data = append(data, crypto.Keccak256([]byte(sig))[:4]...)
	return append(data, packed...), nil
}

// abiArg maps a Go argument to its ABI type name and packable value.
func abiArg(v interface{}) (string, interface{}, error) {
	switch a := v.(type) {
	case *big.Int:
		return "uint256", a, nil
	case common.Address:
		return "address", a, nil
	case common.Hash:
		return "bytes32", [32]byte(a), nil
	case []byte:
		return "bytes", a, nil
	case string:
		return "string", a, nil
	case bool:
		return "bool", a, nil
	case []common.Address:
		return "address[]", a, nil
	case [][]byte:
		return "bytes[]", a, nil
	case []*big.Int:
		return "uint256[]", a, nil
	case []int64:
		out := make([]*big.Int, len(a))
		for i, n := range a {
			out[i] = big.NewInt(n)
		}
		return "uint256[]", out, nil
	default:
		return "", nil, fmt.Errorf("unsupported argument type %T", v)
	}
}

// decodeReturns unpacks raw call output and normalizes go-ethereum's
// decoded forms to the types the Result helpers expect.
func decodeReturns(method string, returns []string, raw []byte) ([]interface{}, error) {
	args := make(abi.Arguments, len(returns))
	for i, name := range returns {
		typ, err := abi.NewType(name, "", nil)
		if err != nil {
			return nil, fmt.Errorf("%s return %d: %w", method, i, err)
		}
		args[i] = abi.Argument{Type: typ}
	}

	values, err := args.UnpackValues(raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	for i, v := range values {
		if b, ok := v.([32]byte); ok {
			values[i] = common.Hash(b)
		}
	}
	return values, nil
}

var _ vyra.ContractCaller = (*TxCaller)(nil)
