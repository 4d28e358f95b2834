package hashing

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EIP-712 domain parameters for Vyra payment authorizations.
const (
	DomainName    = "Vyra"
	DomainVersion = "1"
)

// domainTypeHash is keccak256 of the EIP712Domain type signature.
var domainTypeHash = crypto.Keccak256Hash([]byte(
	"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)",
))

// DomainSeparator binds signatures to this protocol, chain, and verifying
// contract. A digest signed under one domain cannot be replayed under
// another.
func DomainSeparator(chainID *big.Int, verifyingContract common.Address) common.Hash {
	return crypto.Keccak256Hash(
		domainTypeHash.Bytes(),
		HashString(DomainName).Bytes(),
		HashString(DomainVersion).Bytes(),
		packUint(chainID),
		packAddress32(verifyingContract),
	)
}

// TypedDigest produces the final signable digest for a structured message:
// keccak256(0x19 0x01 || domainSeparator || structDigest).
//
// The 0x19 0x01 framing is structurally disjoint from the EIP-191 personal
// message prefix (0x19 "E"), so a payment authorization can never be
// disguised as a benign text message or vice versa.
func TypedDigest(domainSeparator, structDigest common.Hash) common.Hash {
	return crypto.Keccak256Hash(
		[]byte{0x19, 0x01},
		domainSeparator.Bytes(),
		structDigest.Bytes(),
	)
}
