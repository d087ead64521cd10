// Package keys loads signing handles. The secret never leaves the handle:
// String, GoString and slog output show the address only.
package keys

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

type PrivateKey struct {
	prvkey  *ecdsa.PrivateKey
	address common.Address
}

func New(prvkey *ecdsa.PrivateKey) (*PrivateKey, error) {
	if prvkey == nil {
		return nil, errors.New("nil private key")
	}
	return &PrivateKey{
		prvkey:  prvkey,
		address: crypto.PubkeyToAddress(prvkey.PublicKey),
	}, nil
}

// FromHex accepts a raw hex key with or without 0x.
func FromHex(raw string) (*PrivateKey, error) {
	prvkey, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
	if err != nil {
		// The underlying error may echo input bytes.
		return nil, errors.New("invalid hex private key")
	}
	return New(prvkey)
}

// FromKeystore decrypts a Web3 Secret Storage (v3) file.
func FromKeystore(path, password string) (*PrivateKey, error) {
	keyjson, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}
	key, err := keystore.DecryptKey(keyjson, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore %s: %w", path, err)
	}
	return New(key.PrivateKey)
}

// Address is the zero address for a nil handle.
func (k *PrivateKey) Address() common.Address {
	if k == nil {
		return common.Address{}
	}
	return k.address
}

func (k *PrivateKey) SignTx(tx *types.Transaction, signer types.Signer) (*types.Transaction, error) {
	if k == nil {
		return nil, errors.New("nil private key")
	}
	return types.SignTx(tx, signer, k.prvkey)
}

func (k *PrivateKey) String() string {
	return "key(" + k.Address().Hex() + ")"
}

func (k *PrivateKey) GoString() string {
	return k.String()
}

func (k *PrivateKey) LogValue() slog.Value {
	return slog.StringValue(k.Address().Hex())
}
