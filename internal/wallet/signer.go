package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrNoSigningKey means neither PRIVATE_KEY nor the keychain holds a key.
var ErrNoSigningKey = errors.New("no signing key: set PRIVATE_KEY or run `btrd key set`")

// Signer holds the deployer's private key and signs EVM transactions.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewSigner parses a hex private key with or without a 0x prefix.
func NewSigner(hexKey string) (*Signer, error) {
	raw := normaliseHexKey(hexKey)
	if raw == "" {
		return nil, ErrNoSigningKey
	}
	key, err := crypto.HexToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return &Signer{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// Address returns the signer's account address.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignTx signs tx for chainID.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}

// ResolveSigner picks the signing key. An explicit privateKey wins; otherwise
// the key stored under keyName is used. ks may be nil.
func ResolveSigner(privateKey string, ks KeySource, keyName string) (*Signer, error) {
	if normaliseHexKey(privateKey) != "" {
		return NewSigner(privateKey)
	}
	if ks == nil || keyName == "" {
		return nil, ErrNoSigningKey
	}

	hexKey, err := ks.Retrieve(keyName)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, ErrNoSigningKey
	}
	if err != nil {
		return nil, fmt.Errorf("reading key %q: %w", keyName, err)
	}
	return NewSigner(hexKey)
}
