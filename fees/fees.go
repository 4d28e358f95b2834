// Package fees computes transfer, merchant, platform, and bridge fees from
// basis-point rates, and validates split-payment percentage sets.
//
// All arithmetic is integer floor division over wei, so results are
// deterministic across platforms and match the on-chain fee logic.
package fees

import (
	"fmt"
	"math/big"

	"github.com/kirannarayanak/vyra"
)

// Denominator is the basis-point scale: 10000 = 100.00%.
const Denominator = 10000

// Default fee rates in basis points.
const (
	DefaultTransferFeeBps = 10 // 0.1%
	DefaultMerchantFeeBps = 25 // 0.25%
	DefaultPlatformFeeBps = 5  // 0.05%
	DefaultBridgeFeeBps   = 10 // 0.1%
)

// Structure holds the fee schedule in basis points.
type Structure struct {
	TransferFee int64 `json:"transferFee"`
	MerchantFee int64 `json:"merchantFee"`
	PlatformFee int64 `json:"platformFee"`
	BridgeFee   int64 `json:"bridgeFee"`
}

// DefaultStructure is the standard Vyra fee schedule.
var DefaultStructure = Structure{
	TransferFee: DefaultTransferFeeBps,
	MerchantFee: DefaultMerchantFeeBps,
	PlatformFee: DefaultPlatformFeeBps,
	BridgeFee:   DefaultBridgeFeeBps,
}

var denominator = big.NewInt(Denominator)

// Fee returns floor(amount * rateBps / 10000) in wei.
func Fee(amount *big.Int, rateBps int64) (*big.Int, error) {
	if rateBps < 0 || rateBps > Denominator {
		return nil, fmt.Errorf("%w: rate %d basis points out of range", vyra.ErrInvalidAmount, rateBps)
	}
	f := new(big.Int).Mul(amount, big.NewInt(rateBps))
	return f.Quo(f, denominator), nil
}

// Net returns amount minus its fee in wei.
func Net(amount *big.Int, rateBps int64) (*big.Int, error) {
	f, err := Fee(amount, rateBps)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Sub(amount, f), nil
}

// FeeAmount is the decimal-string form of Fee.
func FeeAmount(amount string, rateBps int64) (string, error) {
	wei, err := vyra.ToWei(amount)
	if err != nil {
		return "", err
	}
	f, err := Fee(wei, rateBps)
	if err != nil {
		return "", err
	}
	return vyra.FromWei(f), nil
}

// NetAmount is the decimal-string form of Net.
func NetAmount(amount string, rateBps int64) (string, error) {
	wei, err := vyra.ToWei(amount)
	if err != nil {
		return "", err
	}
	n, err := Net(wei, rateBps)
	if err != nil {
		return "", err
	}
	return vyra.FromWei(n), nil
}

// ValidateSplit checks that percentages is a usable split set: non-empty,
// every share positive, and summing to exactly 10000. Any other total, over
// or under, fails; partial splits are never accepted implicitly.
func ValidateSplit(percentages []int64) error {
	if len(percentages) == 0 {
		return fmt.Errorf("%w: empty percentage set", vyra.ErrInvalidSplit)
	}
	var sum int64
	for i, p := range percentages {
		if p <= 0 || p > Denominator {
			return fmt.Errorf("%w: percentages[%d] = %d", vyra.ErrInvalidSplit, i, p)
		}
		sum += p
	}
	if sum != Denominator {
		return fmt.Errorf("%w: percentages sum to %d, want %d", vyra.ErrInvalidSplit, sum, Denominator)
	}
	return nil
}

// SplitAmounts computes each recipient's share as floor(total * p / 10000).
// Rounding remainders are NOT redistributed: the sum of shares may fall
// short of total by up to len(percentages)-1 wei, and that remainder belongs
// to the payer/platform. Callers must run ValidateSplit first; SplitAmounts
// only rejects malformed individual entries.
func SplitAmounts(totalAmount string, percentages []int64) ([]string, error) {
	total, err := vyra.ToWei(totalAmount)
	if err != nil {
		return nil, err
	}

	shares := make([]string, len(percentages))
	for i, p := range percentages {
		if p < 0 || p > Denominator {
			return nil, fmt.Errorf("%w: percentages[%d] = %d", vyra.ErrInvalidSplit, i, p)
		}
		share := new(big.Int).Mul(total, big.NewInt(p))
		share.Quo(share, denominator)
		shares[i] = vyra.FromWei(share)
	}
	return shares, nil
}

// SplitAmountsWei is SplitAmounts over wei values.
func SplitAmountsWei(total *big.Int, percentages []int64) ([]*big.Int, error) {
	shares := make([]*big.Int, len(percentages))
	for i, p := range percentages {
		if p < 0 || p > Denominator {
			return nil, fmt.Errorf("%w: percentages[%d] = %d", vyra.ErrInvalidSplit, i, p)
		}
		share := new(big.Int).Mul(total, big.NewInt(p))
		shares[i] = share.Quo(share, denominator)
	}
	return shares, nil
}
