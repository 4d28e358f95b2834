// Package hashing builds the canonical byte encodings and keccak256 digests
// for invoices, payments, split payments, and session-key operations.
//
// Encoding rule: each field is serialized to a fixed-width representation per
// its declared type (address → 20 bytes, uint256 → 32-byte big-endian,
// string → keccak256 of its UTF-8 bytes, bytes32 → raw 32 bytes; array
// elements are left-padded to 32 bytes) and concatenated in declared order.
// An on-chain verifier reproduces the identical digest from identical types,
// so field order and widths must not change independently of the consuming
// contract.
package hashing

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

// HashString returns the keccak256 digest of s's UTF-8 bytes.
func HashString(s string) common.Hash {
	return crypto.Keccak256Hash([]byte(s))
}

// packUint encodes v as a 32-byte big-endian unsigned integer.
func packUint(v *big.Int) []byte {
	if v == nil {
		v = new(big.Int)
	}
	return math.U256Bytes(new(big.Int).Set(v))
}

// packUint64 encodes v as a 32-byte big-endian unsigned integer.
func packUint64(v uint64) []byte {
	return packUint(new(big.Int).SetUint64(v))
}

// packInt64 encodes a non-negative int64 as a 32-byte big-endian integer.
func packInt64(v int64) []byte {
	return packUint(big.NewInt(v))
}

// packAddress32 encodes an address left-padded to 32 bytes, the width used
// for array elements.
func packAddress32(a common.Address) []byte {
	return common.LeftPadBytes(a.Bytes(), 32)
}

// PaymentMessage is the canonical tuple whose digest authorizes an invoice
// creation. The digest is a pure deterministic function of these six fields
// in this order.
type PaymentMessage struct {
	Signer          common.Address
	Amount          *big.Int
	DescriptionHash common.Hash
	Expiry          int64
	Nonce           uint64
	ChainID         *big.Int
}

// Digest returns the keccak256 digest of the packed six-field tuple.
func (m PaymentMessage) Digest() common.Hash {
	return crypto.Keccak256Hash(
		m.Signer.Bytes(),
		packUint(m.Amount),
		m.DescriptionHash.Bytes(),
		packInt64(m.Expiry),
		packUint64(m.Nonce),
		packUint(m.ChainID),
	)
}

// PaymentExecutionDigest authorizes payment of an existing invoice by a
// customer: (customer, invoiceID, amount, chainID).
func PaymentExecutionDigest(customer common.Address, invoiceID common.Hash, amount, chainID *big.Int) common.Hash {
	return crypto.Keccak256Hash(
		customer.Bytes(),
		invoiceID.Bytes(),
		packUint(amount),
		packUint(chainID),
	)
}

// SplitPaymentDigest authorizes a split payment:
// (customer, recipients[], percentages[], totalAmount, chainID).
func SplitPaymentDigest(customer common.Address, recipients []common.Address, percentages []int64, total, chainID *big.Int) common.Hash {
	data := make([]byte, 0, 20+32*(len(recipients)+len(percentages)+2))
	data = append(data, customer.Bytes()...)
	for _, r := range recipients {
		data = append(data, packAddress32(r)...)
	}
	for _, p := range percentages {
		data = append(data, packInt64(p)...)
	}
	data = append(data, packUint(total)...)
	data = append(data, packUint(chainID)...)
	return crypto.Keccak256Hash(data)
}

// SessionKeyDigest authorizes a session-key operation:
// (user, sessionKey, nonce, chainID).
func SessionKeyDigest(user, sessionKey common.Address, nonce uint64, chainID *big.Int) common.Hash {
	return crypto.Keccak256Hash(
		user.Bytes(),
		sessionKey.Bytes(),
		packUint64(nonce),
		packUint(chainID),
	)
}

// InvoiceID derives the content-addressed invoice identifier:
// (merchant, amount, descriptionHash, issuedAt).
func InvoiceID(merchant common.Address, amount *big.Int, descriptionHash common.Hash, issuedAt int64) common.Hash {
	return crypto.Keccak256Hash(
		merchant.Bytes(),
		packUint(amount),
		descriptionHash.Bytes(),
		packInt64(issuedAt),
	)
}

// PaymentID derives the content-addressed payment identifier:
// (invoiceID, customer, amount, paidAt).
func PaymentID(invoiceID common.Hash, customer common.Address, amount *big.Int, paidAt int64) common.Hash {
	return crypto.Keccak256Hash(
		invoiceID.Bytes(),
		customer.Bytes(),
		packUint(amount),
		packInt64(paidAt),
	)
}

// DepositID derives the content-addressed bridge deposit identifier:
// (depositor, amount, initiatedAt).
func DepositID(depositor common.Address, amount *big.Int, initiatedAt int64) common.Hash {
	return crypto.Keccak256Hash(
		depositor.Bytes(),
		packUint(amount),
		packInt64(initiatedAt),
	)
}

// WithdrawalID derives the content-addressed bridge withdrawal identifier:
// (amount, l2TxHash). Identical inputs always map to the same identifier so
// racing relayers converge on one processed record.
func WithdrawalID(amount *big.Int, l2TxHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(
		packUint(amount),
		l2TxHash.Bytes(),
	)
}
