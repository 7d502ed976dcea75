// Package wallet manages the encrypted keystore holding the signing keys of
// connected accounts.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"bookchain/internal/models"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrWrongPassphrase is returned when the keystore cannot be decrypted
var ErrWrongPassphrase = errors.New("incorrect passphrase")

// PassphraseFunc supplies the keystore passphrase when a key is unlocked
type PassphraseFunc func() (string, error)

// Keystore is a directory of encrypted account keys
type Keystore struct {
	ks *keystore.KeyStore
}

// Open opens the keystore at dir with standard scrypt parameters
func Open(dir string) *Keystore {
	return OpenWithScrypt(dir, keystore.StandardScryptN, keystore.StandardScryptP)
}

// OpenWithScrypt opens the keystore at dir with custom scrypt parameters
func OpenWithScrypt(dir string, scryptN, scryptP int) *Keystore {
	return &Keystore{ks: keystore.NewKeyStore(dir, scryptN, scryptP)}
}

// Create generates a new account encrypted with passphrase
func (k *Keystore) Create(passphrase string) (common.Address, error) {
	account, err := k.ks.NewAccount(passphrase)
	if err != nil {
		return common.Address{}, fmt.Errorf("error creating account: %w", err)
	}
	return account.Address, nil
}

// ImportHex imports a hex-encoded private key
func (k *Keystore) ImportHex(hexKey, passphrase string) (common.Address, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid private key: %w", err)
	}

	account, err := k.ks.ImportECDSA(key, passphrase)
	if err != nil {
		if errors.Is(err, keystore.ErrAccountAlreadyExists) {
			return crypto.PubkeyToAddress(key.PublicKey), fmt.Errorf("account %s already imported: %w", crypto.PubkeyToAddress(key.PublicKey).Hex(), err)
		}
		return common.Address{}, fmt.Errorf("error importing key: %w", err)
	}
	return account.Address, nil
}

// Accounts lists the addresses held in the keystore
func (k *Keystore) Accounts() []common.Address {
	var addrs []common.Address
	for _, a := range k.ks.Accounts() {
		addrs = append(addrs, a.Address)
	}
	return addrs
}

// Has reports whether the keystore holds a key for addr
func (k *Keystore) Has(addr common.Address) bool {
	return k.ks.HasAddress(addr)
}

// Wallet returns a signer for addr. The key is unlocked lazily.
func (k *Keystore) Wallet(addr common.Address, passphrase PassphraseFunc) (*Wallet, error) {
	account, err := k.ks.Find(accounts.Account{Address: addr})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", addr.Hex(), models.ErrAccountNotFound)
	}
	return &Wallet{ks: k.ks, account: account, passphrase: passphrase}, nil
}

// Wallet signs transactions for one keystore account
type Wallet struct {
	ks         *keystore.KeyStore
	account    accounts.Account
	passphrase PassphraseFunc

	mu       sync.Mutex
	unlocked bool
}

// Address returns the account address
func (w *Wallet) Address() common.Address {
	return w.account.Address
}

// Unlock decrypts the key, asking for the passphrase once
func (w *Wallet) Unlock() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.unlocked {
		return nil
	}
	if w.passphrase == nil {
		return fmt.Errorf("no passphrase source for %s", w.account.Address.Hex())
	}

	pass, err := w.passphrase()
	if err != nil {
		return fmt.Errorf("error reading passphrase: %w", err)
	}
	if err := w.ks.Unlock(w.account, pass); err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return ErrWrongPassphrase
		}
		return fmt.Errorf("error unlocking account: %w", err)
	}

	w.unlocked = true
	return nil
}

// Lock drops the decrypted key from memory
func (w *Wallet) Lock() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.unlocked = false
	return w.ks.Lock(w.account.Address)
}

// TransactOpts unlocks the key if needed and returns signing options for chainID
func (w *Wallet) TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	if err := w.Unlock(); err != nil {
		return nil, err
	}

	opts, err := bind.NewKeyStoreTransactorWithChainID(w.ks, w.account, chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}
