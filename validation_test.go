package vyra

import (
	"errors"
	"testing"
)

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want bool
	}{
		{"checksummed", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", true},
		{"all lowercase", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"all uppercase", "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED", true},
		{"zero address", "0x0000000000000000000000000000000000000000", true},
		{"bad checksum", "0x5Aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed", false},
		{"missing prefix", "5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", false},
		{"too short", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAe", false},
		{"too long", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed0", false},
		{"non-hex", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAzz", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidAddress(tt.addr); got != tt.want {
				t.Errorf("IsValidAddress(%q) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}
}

func TestValidateAddress(t *testing.T) {
	if err := ValidateAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"); err != nil {
		t.Errorf("valid address rejected: %v", err)
	}
	err := ValidateAddress("not-an-address")
	if !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("error = %v, want ErrInvalidAddress", err)
	}
}

func TestChecksumAddress(t *testing.T) {
	got, err := ChecksumAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	if err != nil {
		t.Fatalf("ChecksumAddress error = %v", err)
	}
	want := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	if got != want {
		t.Errorf("ChecksumAddress = %q, want %q", got, want)
	}

	if _, err := ChecksumAddress("0xzz"); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("error = %v, want ErrInvalidAddress", err)
	}
}

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount("1.5"); err != nil {
		t.Errorf("valid amount rejected: %v", err)
	}
	for _, bad := range []string{"0", "0.0", "-1", "abc", ""} {
		if err := ValidateAmount(bad); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ValidateAmount(%q) error = %v, want ErrInvalidAmount", bad, err)
		}
	}
}
