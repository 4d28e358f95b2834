package vyra

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseHash32 parses a 0x-prefixed 32-byte identifier (invoice, payment,
// deposit, withdrawal, or transaction hash).
func ParseHash32(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid identifier %q: %w", s, err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid identifier %q: want %d bytes, got %d", s, common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}

// Result coercion helpers for ContractCaller.Call return values. View-call
// results arrive as []interface{} in declared return order; these check both
// index bounds and dynamic type.

// ResultBigInt returns results[i] as *big.Int.
func ResultBigInt(results []interface{}, i int) (*big.Int, error) {
	if i >= len(results) {
		return nil, fmt.Errorf("missing result %d", i)
	}
	v, ok := results[i].(*big.Int)
	if !ok || v == nil {
		return nil, fmt.Errorf("result %d: want *big.Int, got %T", i, results[i])
	}
	return v, nil
}

// ResultBool returns results[i] as bool.
func ResultBool(results []interface{}, i int) (bool, error) {
	if i >= len(results) {
		return false, fmt.Errorf("missing result %d", i)
	}
	v, ok := results[i].(bool)
	if !ok {
		return false, fmt.Errorf("result %d: want bool, got %T", i, results[i])
	}
	return v, nil
}

// ResultAddress returns results[i] as common.Address.
func ResultAddress(results []interface{}, i int) (common.Address, error) {
	if i >= len(results) {
		return common.Address{}, fmt.Errorf("missing result %d", i)
	}
	v, ok := results[i].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("result %d: want common.Address, got %T", i, results[i])
	}
	return v, nil
}

// ResultAddresses returns results[i] as []common.Address.
func ResultAddresses(results []interface{}, i int) ([]common.Address, error) {
	if i >= len(results) {
		return nil, fmt.Errorf("missing result %d", i)
	}
	v, ok := results[i].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("result %d: want []common.Address, got %T", i, results[i])
	}
	return v, nil
}

// ResultHash returns results[i] as common.Hash.
func ResultHash(results []interface{}, i int) (common.Hash, error) {
	if i >= len(results) {
		return common.Hash{}, fmt.Errorf("missing result %d", i)
	}
	v, ok := results[i].(common.Hash)
	if !ok {
		return common.Hash{}, fmt.Errorf("result %d: want common.Hash, got %T", i, results[i])
	}
	return v, nil
}
