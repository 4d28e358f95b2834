package vyra

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// addressRegex matches the raw hex form (0x followed by 40 hex chars).
var addressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// IsValidAddress reports whether s is a well-formed 20-byte account address.
// Validity is a pure function of the string form: length, character set, and
// EIP-55 checksum. All-lowercase and all-uppercase hex carry no checksum and
// are accepted; mixed-case must match the checksum exactly.
func IsValidAddress(s string) bool {
	if !addressRegex.MatchString(s) {
		return false
	}
	hex := s[2:]
	if hex == strings.ToLower(hex) || hex == strings.ToUpper(hex) {
		return true
	}
	return common.HexToAddress(s).Hex() == s
}

// ValidateAddress returns ErrInvalidAddress if s is not a valid address.
func ValidateAddress(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}
	if !IsValidAddress(s) {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, s)
	}
	return nil
}

// ChecksumAddress returns the canonical EIP-55 checksummed rendering of s.
func ChecksumAddress(s string) (string, error) {
	if err := ValidateAddress(s); err != nil {
		return "", err
	}
	return common.HexToAddress(s).Hex(), nil
}

// ValidateAmount returns ErrInvalidAmount unless amount parses to a strictly
// positive VYR value.
func ValidateAmount(amount string) error {
	wei, err := ToWei(amount)
	if err != nil {
		return err
	}
	if wei.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %q", ErrInvalidAmount, amount)
	}
	return nil
}
