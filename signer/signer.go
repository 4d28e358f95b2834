// Package signer wraps an ECDSA signing capability and produces signatures
// over typed payment digests and EIP-191 personal messages.
//
// The two signing paths use structurally disjoint encodings: SignDigest is
// reserved for 0x19 0x01 domain-tagged digests built by the hashing package,
// while SignText applies the "\x19Ethereum Signed Message:\n" prefix. A user
// can therefore never be tricked into authorizing a payment digest presented
// as a benign text message.
package signer

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil/hdkeychain"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	bip39 "github.com/tyler-smith/go-bip39"

	vyra "github.com/kirannarayanak/vyra"
)

// SignatureLength is the byte length of an [R || S || V] signature.
const SignatureLength = 65

// Signer holds a private key and signs on its behalf. The zero value is not
// usable; construct with New, FromKey, FromMnemonic, FromKeystore, or
// Generate.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// New creates a Signer from a hex-encoded private key, with or without the
// 0x prefix.
func New(privateKeyHex string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vyra.ErrInvalidKey, err)
	}
	return FromKey(key), nil
}

// FromKey wraps an existing private key.
func FromKey(key *ecdsa.PrivateKey) *Signer {
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// Generate creates a Signer with a fresh random key. Used for session keys.
func Generate() (*Signer, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return FromKey(key), nil
}

// FromMnemonic derives the account at m/44'/60'/0'/0/index from a BIP-39
// mnemonic with an empty passphrase.
func FromMnemonic(mnemonic string, index uint32) (*Signer, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, vyra.ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(mnemonic, "")
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vyra.ErrInvalidMnemonic, err)
	}

	path := []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + 60,
		hdkeychain.HardenedKeyStart + 0,
		0,
		index,
	}
	node := master
	for _, segment := range path {
		node, err = node.Child(segment)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", vyra.ErrInvalidMnemonic, err)
		}
	}

	priv, err := node.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vyra.ErrInvalidMnemonic, err)
	}
	return FromKey(priv.ToECDSA()), nil
}

// FromKeystore decrypts a go-ethereum keystore JSON file.
func FromKeystore(keyjson []byte, passphrase string) (*Signer, error) {
	key, err := keystore.DecryptKey(keyjson, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vyra.ErrInvalidKeystore, err)
	}
	return FromKey(key.PrivateKey), nil
}

// Address returns the signer's account address.
func (s *Signer) Address() common.Address {
	return s.address
}

// PrivateKeyHex exports the private key as a 0x-prefixed hex string. Used
// when handing a freshly generated session key to its owner.
func (s *Signer) PrivateKeyHex() string {
	if s == nil || s.key == nil {
		return ""
	}
	return "0x" + common.Bytes2Hex(crypto.FromECDSA(s.key))
}

// SignDigest signs a 32-byte digest and returns a 65-byte [R || S || V]
// signature with V in {27, 28}. The digest must already carry the 0x19 0x01
// domain tag from hashing.TypedDigest; raw application data must go through
// SignText instead.
func (s *Signer) SignDigest(digest common.Hash) ([]byte, error) {
	if s == nil || s.key == nil {
		return nil, vyra.ErrNotConnected
	}
	sig, err := crypto.Sign(digest.Bytes(), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign digest: %w", err)
	}
	sig[64] += 27
	return sig, nil
}

// SignTransaction signs tx for the given chain under the latest supported
// transaction signer.
func (s *Signer) SignTransaction(chainID *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	if s == nil || s.key == nil {
		return nil, vyra.ErrNotConnected
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signed, nil
}

// SignText signs a human-readable message under the EIP-191 personal
// message encoding.
func (s *Signer) SignText(message []byte) ([]byte, error) {
	if s == nil || s.key == nil {
		return nil, vyra.ErrNotConnected
	}
	sig, err := crypto.Sign(accounts.TextHash(message), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	sig[64] += 27
	return sig, nil
}

// RecoverText recovers the address that produced an EIP-191 personal
// message signature. It is a pure function and needs no signing capability.
func RecoverText(message, sig []byte) (common.Address, error) {
	return recoverAddress(common.BytesToHash(accounts.TextHash(message)), sig)
}

// RecoverDigest recovers the address that signed a typed digest.
func RecoverDigest(digest common.Hash, sig []byte) (common.Address, error) {
	return recoverAddress(digest, sig)
}

func recoverAddress(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length %d", len(sig))
	}

	// Normalize V back to {0, 1} for recovery.
	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}

	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
