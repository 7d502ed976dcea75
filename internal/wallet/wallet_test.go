package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"bookchain/internal/models"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Hardhat's first development account
const (
	devKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func openTestKeystore(t *testing.T) *Keystore {
	return OpenWithScrypt(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
}

func TestImportHex(t *testing.T) {
	ks := openTestKeystore(t)

	addr, err := ks.ImportHex(devKey, "secret")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(devAddress), addr)
	assert.True(t, ks.Has(addr))
	assert.Equal(t, []common.Address{addr}, ks.Accounts())

	_, err = ks.ImportHex(devKey, "secret")
	assert.ErrorIs(t, err, keystore.ErrAccountAlreadyExists)

	_, err = ks.ImportHex("0xzz", "secret")
	assert.Error(t, err)
}

func TestCreate(t *testing.T) {
	ks := openTestKeystore(t)

	addr, err := ks.Create("secret")
	require.NoError(t, err)
	assert.NotEqual(t, common.Address{}, addr)
	assert.True(t, ks.Has(addr))
}

func TestWallet_TransactOpts(t *testing.T) {
	ks := openTestKeystore(t)
	addr, err := ks.ImportHex(devKey, "secret")
	require.NoError(t, err)

	calls := 0
	w, err := ks.Wallet(addr, func() (string, error) {
		calls++
		return "secret", nil
	})
	require.NoError(t, err)
	assert.Equal(t, addr, w.Address())

	opts, err := w.TransactOpts(context.Background(), big.NewInt(31337))
	require.NoError(t, err)
	assert.Equal(t, addr, opts.From)
	assert.NotNil(t, opts.Signer)

	_, err = w.TransactOpts(context.Background(), big.NewInt(31337))
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "passphrase is asked once")

	require.NoError(t, w.Lock())
	require.NoError(t, w.Unlock())
	assert.Equal(t, 2, calls)
}

func TestWallet_WrongPassphrase(t *testing.T) {
	ks := openTestKeystore(t)
	addr, err := ks.ImportHex(devKey, "secret")
	require.NoError(t, err)

	w, err := ks.Wallet(addr, Static("nope"))
	require.NoError(t, err)
	assert.ErrorIs(t, w.Unlock(), ErrWrongPassphrase)

	w, err = ks.Wallet(addr, func() (string, error) { return "", errors.New("no tty") })
	require.NoError(t, err)
	assert.Error(t, w.Unlock())
}

func TestWallet_NotFound(t *testing.T) {
	ks := openTestKeystore(t)
	_, err := ks.Wallet(common.HexToAddress(devAddress), Static("secret"))
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestEnvOrPrompt(t *testing.T) {
	t.Setenv(PassphraseEnv, "from-env")
	pass, err := EnvOrPrompt("Passphrase: ")()
	require.NoError(t, err)
	assert.Equal(t, "from-env", pass)

	pass, err = NewPassphrase()
	require.NoError(t, err)
	assert.Equal(t, "from-env", pass)
}
