package keys

import (
	"bytes"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known development key, never funded on a real network.
const devKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var devAddress = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

func TestFromHex(t *testing.T) {
	for _, raw := range []string{devKey, "0x" + devKey, " " + devKey + "\n"} {
		key, err := FromHex(raw)
		require.NoError(t, err)
		assert.Equal(t, devAddress, key.Address())
	}
}

func TestFromHexDoesNotEchoInput(t *testing.T) {
	bad := devKey[:60] + "zz"
	_, err := FromHex(bad)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), devKey[:60])
}

func TestNewRejectsNil(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestFromKeystore(t *testing.T) {
	prvkey, err := crypto.GenerateKey()
	require.NoError(t, err)

	keyjson, err := keystore.EncryptKey(&keystore.Key{
		Id:         uuid.New(),
		Address:    crypto.PubkeyToAddress(prvkey.PublicKey),
		PrivateKey: prvkey,
	}, "hunter2", keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, keyjson, 0o600))

	key, err := FromKeystore(path, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(prvkey.PublicKey), key.Address())

	_, err = FromKeystore(path, "wrong")
	assert.ErrorIs(t, err, keystore.ErrDecrypt)

	_, err = FromKeystore(filepath.Join(t.TempDir(), "missing.json"), "hunter2")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSignTx(t *testing.T) {
	key, err := FromHex(devKey)
	require.NoError(t, err)

	signer := types.NewLondonSigner(big.NewInt(13473))
	tx, err := key.SignTx(types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(13473),
		Nonce:     1,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       21_000,
		To:        &devAddress,
	}), signer)
	require.NoError(t, err)

	from, err := types.Sender(signer, tx)
	require.NoError(t, err)
	assert.Equal(t, devAddress, from)
}

func TestKeyNeverPrinted(t *testing.T) {
	key, err := FromHex(devKey)
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("signing", "key", key)

	outputs := []string{
		key.String(),
		fmt.Sprintf("%v %+v %#v %s", key, key, key, key),
		buf.String(),
	}
	for _, out := range outputs {
		assert.NotContains(t, strings.ToLower(out), devKey)
		assert.Contains(t, out, devAddress.Hex())
	}
}

func TestNilKey(t *testing.T) {
	var key *PrivateKey
	assert.Equal(t, common.Address{}, key.Address())
	assert.Equal(t, "key("+common.Address{}.Hex()+")", key.String())

	_, err := key.SignTx(types.NewTx(&types.DynamicFeeTx{}), types.NewLondonSigner(big.NewInt(1)))
	assert.Error(t, err)
}
