// Package vyra implements the off-chain payment-authorization layer for the
// Vyra crypto-payment system: canonical message digests, deterministic fee
// math, gas-sponsorship coordination, and bridge transfer lifecycles.
//
// Amounts are exact fixed-point decimals with 18 fractional digits,
// represented as big-integer wei. On-chain contracts, the RPC client, and
// key custody are external collaborators; see the Provider, ContractCaller,
// and signer package boundaries.
package vyra

import (
	"fmt"
	"math/big"
	"strings"
)

// VYR token parameters.
const (
	Decimals = 18
	Symbol   = "VYR"
	Name     = "Vyra"
)

// weiPerVyr is 10^18.
var weiPerVyr = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// MaxSupplyWei is the 10B VYR hard cap. Conversions above this magnitude
// fail rather than silently truncate.
var MaxSupplyWei = new(big.Int).Mul(big.NewInt(10_000_000_000), weiPerVyr)

// ToWei converts a decimal VYR amount string to wei.
// Returns ErrInvalidAmount for non-numeric input, negative values, more than
// 18 fractional digits, or values above the max supply.
func ToWei(amount string) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("%w: negative value %q", ErrInvalidAmount, amount)
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" && fracPart == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if !isDigits(intPart) || !isDigits(fracPart) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if len(fracPart) > Decimals {
		return nil, fmt.Errorf("%w: more than %d fractional digits in %q", ErrInvalidAmount, Decimals, amount)
	}

	if intPart == "" {
		intPart = "0"
	}
	whole, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	wei := whole.Mul(whole, weiPerVyr)

	if fracPart != "" {
		// Right-pad the fraction to 18 digits.
		padded := fracPart + strings.Repeat("0", Decimals-len(fracPart))
		frac, ok := new(big.Int).SetString(padded, 10)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
		}
		wei.Add(wei, frac)
	}

	if wei.Cmp(MaxSupplyWei) > 0 {
		return nil, fmt.Errorf("%w: %q exceeds max supply", ErrInvalidAmount, amount)
	}
	return wei, nil
}

// FromWei converts a wei value to a normalized decimal VYR string. The
// fractional part keeps at least one digit with trailing zeros trimmed, so
// ToWei round-trips: FromWei(ToWei("1.50")) == "1.5".
func FromWei(wei *big.Int) string {
	if wei == nil || wei.Sign() == 0 {
		return "0.0"
	}

	v := new(big.Int).Set(wei)
	sign := ""
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}

	whole, frac := new(big.Int).QuoRem(v, weiPerVyr, new(big.Int))
	fracStr := fmt.Sprintf("%018s", frac.String())
	fracStr = strings.TrimRight(fracStr, "0")
	if fracStr == "" {
		fracStr = "0"
	}
	return sign + whole.String() + "." + fracStr
}

// FormatVyr renders a wei value with a fixed number of fractional digits for
// display. Extra digits are truncated, not rounded.
func FormatVyr(wei *big.Int, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	if decimals > Decimals {
		decimals = Decimals
	}

	s := FromWei(wei)
	i := strings.IndexByte(s, '.')
	whole, frac := s[:i], s[i+1:]
	if frac == "0" {
		frac = ""
	}
	if len(frac) < decimals {
		frac += strings.Repeat("0", decimals-len(frac))
	}
	frac = frac[:decimals]
	if decimals == 0 {
		return whole
	}
	return whole + "." + frac
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
