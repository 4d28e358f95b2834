package vyra

import "fmt"

// Metadata limits. Requests carry a closed, versioned key-value structure
// rather than free-form payloads so that digests stay reproducible.
const (
	MetadataVersion     = 1
	MaxMetadataFields   = 16
	MaxMetadataKeyLen   = 64
	MaxMetadataValueLen = 256
)

// Metadata is the closed key-value attachment allowed on requests.
type Metadata struct {
	// Version is the metadata schema version.
	Version int `json:"version"`

	// Fields holds string key-value pairs within the documented limits.
	Fields map[string]string `json:"fields,omitempty"`
}

// Validate enforces the metadata size and type limits.
func (m *Metadata) Validate() error {
	if m == nil {
		return nil
	}
	if m.Version != MetadataVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidMetadata, m.Version)
	}
	if len(m.Fields) > MaxMetadataFields {
		return fmt.Errorf("%w: more than %d fields", ErrInvalidMetadata, MaxMetadataFields)
	}
	for k, v := range m.Fields {
		if k == "" || len(k) > MaxMetadataKeyLen {
			return fmt.Errorf("%w: bad key %q", ErrInvalidMetadata, k)
		}
		if len(v) > MaxMetadataValueLen {
			return fmt.Errorf("%w: value for %q exceeds %d bytes", ErrInvalidMetadata, k, MaxMetadataValueLen)
		}
	}
	return nil
}

// PaymentRequest describes a direct VYR transfer.
type PaymentRequest struct {
	// To is the recipient address.
	To string `json:"to"`

	// Amount is the decimal VYR amount.
	Amount string `json:"amount"`

	// Description is an optional human-readable note.
	Description string `json:"description,omitempty"`

	// Metadata is an optional closed key-value attachment.
	Metadata *Metadata `json:"metadata,omitempty"`
}

// InvoiceRequest describes a merchant-issued request for payment.
// Consumed once to produce a signed on-chain creation call; never mutated
// after signing.
type InvoiceRequest struct {
	// Amount is the decimal VYR amount.
	Amount string `json:"amount"`

	// Description is the invoice description. Required; its keccak digest is
	// part of the signed message.
	Description string `json:"description"`

	// Expiry is a unix timestamp. Zero defaults to one hour from now.
	Expiry int64 `json:"expiry,omitempty"`

	// Merchant is the issuing address. Empty defaults to the bound signer.
	Merchant string `json:"merchant,omitempty"`

	// Metadata is an optional closed key-value attachment.
	Metadata *Metadata `json:"metadata,omitempty"`
}

// SplitPaymentRequest splits a total between recipients by basis points.
// Recipients and Percentages are positionally paired and must have equal
// length; percentages must sum to exactly 10000.
type SplitPaymentRequest struct {
	Recipients  []string `json:"recipients"`
	Percentages []int64  `json:"percentages"`
	TotalAmount string   `json:"totalAmount"`
	Description string   `json:"description,omitempty"`
}

// SessionKey is a delegated, time-boxed signing authorization for sponsored
// transactions. Expiry is advisory; Active is the authoritative on-chain
// flag and must be consulted, not derived client-side.
type SessionKey struct {
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
	Expiry  int64  `json:"expiry"`
	Active  bool   `json:"active"`
}

// GasEstimate is a derived, per-request gas and token cost projection.
// Never cached: gas price is time-varying.
type GasEstimate struct {
	GasLimit             string `json:"gasLimit"`
	GasPrice             string `json:"gasPrice"`
	MaxFeePerGas         string `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas,omitempty"`

	// VyrCost is the decimal VYR equivalent of the gas cost.
	VyrCost string `json:"vyrCost"`
}

// BridgeDeposit records an L1→L2 transfer.
type BridgeDeposit struct {
	Amount      string `json:"amount"`
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
	Timestamp   int64  `json:"timestamp"`
}

// BridgeWithdrawal records an L2→L1 transfer with its validator signatures.
type BridgeWithdrawal struct {
	Amount     string   `json:"amount"`
	L2TxHash   string   `json:"l2TxHash"`
	Signatures []string `json:"signatures"`
	Timestamp  int64    `json:"timestamp"`
}

// PaymentReceipt is the settled record of a processed payment.
type PaymentReceipt struct {
	PaymentID string `json:"paymentId"`
	InvoiceID string `json:"invoiceId"`
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Fee       string `json:"fee"`
	Timestamp int64  `json:"timestamp"`
	TxHash    string `json:"txHash,omitempty"`
	Status    string `json:"status"`
}

// MerchantStats summarizes a merchant's settled activity.
type MerchantStats struct {
	TotalEarnings     string `json:"totalEarnings"`
	TotalTransactions uint64 `json:"totalTransactions"`
}

// PaymasterStats summarizes gas sponsorship activity.
type PaymasterStats struct {
	TotalSponsoredGas string `json:"totalSponsoredGas"`
	TotalVyrSpent     string `json:"totalVyrSpent"`
	TotalSponsorships string `json:"totalSponsorships"`
}

// BridgeStats summarizes bridge activity.
type BridgeStats struct {
	TotalDeposits    string `json:"totalDeposits"`
	TotalWithdrawals string `json:"totalWithdrawals"`
	TotalFees        string `json:"totalFees"`
	ValidatorCount   uint64 `json:"validatorCount"`
}

// WalletInfo is a snapshot of a wallet's balances and sponsorship state.
type WalletInfo struct {
	Address     string      `json:"address"`
	Balance     string      `json:"balance"`
	VyraBalance string      `json:"vyraBalance"`
	SessionKey  *SessionKey `json:"sessionKey,omitempty"`
	IsSponsored bool        `json:"isSponsored"`
}
