// Package wallet derives native segwit addresses from a BIP84 account and
// scans them for on-chain activity through the API client.
package wallet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
)

// Branches of a BIP44 style account
const (
	BranchExternal uint32 = 0
	BranchChange   uint32 = 1
)

const bip84Purpose = 84

var (
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	ErrInvalidPath     = errors.New("invalid derivation path")
	ErrInvalidBranch   = errors.New("invalid branch")
)

// Account is an account-level extended public key. Addresses are derived as
// <account>/<branch>/<index> and encoded as P2WPKH. Only public keys are
// kept, so an Account is safe for concurrent use.
type Account struct {
	pub      *hdkeychain.ExtendedKey
	branches [2]*hdkeychain.ExtendedKey
	params   *chaincfg.Params
	path     string
}

// DefaultAccountPath returns the first BIP84 account path for params, m/84'/coin'/0'
func DefaultAccountPath(params *chaincfg.Params) string {
	return fmt.Sprintf("m/%d'/%d'/0'", bip84Purpose, params.HDCoinType)
}

// NewAccountFromMnemonic derives the first BIP84 account of a BIP39 mnemonic
func NewAccountFromMnemonic(mnemonic, passphrase string, params *chaincfg.Params) (*Account, error) {
	return NewAccountFromMnemonicPath(mnemonic, passphrase, DefaultAccountPath(params), params)
}

// NewAccountFromMnemonicPath derives the account at path from a BIP39 mnemonic
func NewAccountFromMnemonicPath(mnemonic, passphrase, path string, params *chaincfg.Params) (*Account, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	return NewAccountFromSeed(seed, path, params)
}

// NewAccountFromSeed derives the account at path from a BIP32 seed
func NewAccountFromSeed(seed []byte, path string, params *chaincfg.Params) (*Account, error) {
	indexes, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	key, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}
	for _, i := range indexes {
		key, err = key.Derive(i)
		if err != nil {
			return nil, fmt.Errorf("failed to derive %s: %w", path, err)
		}
	}
	return newAccount(key, params, path)
}

// NewAccountFromExtendedKey wraps an account-level xpub or xprv. Any
// SLIP-132 version (zpub, vpub, ...) is accepted; addresses are always P2WPKH.
func NewAccountFromExtendedKey(key string, params *chaincfg.Params) (*Account, error) {
	extKey, err := hdkeychain.NewKeyFromString(strings.TrimSpace(key))
	if err != nil {
		return nil, fmt.Errorf("invalid extended key: %w", err)
	}
	return newAccount(extKey, params, "")
}

func newAccount(key *hdkeychain.ExtendedKey, params *chaincfg.Params, path string) (*Account, error) {
	// a private ExtendedKey caches its public key on first use, which
	// races when addresses are derived from several goroutines
	pub, err := key.Neuter()
	if errors.Is(err, chaincfg.ErrUnknownHDKeyID) {
		// SLIP-132 private versions (zprv, vprv) have no registered public pair
		var clone *hdkeychain.ExtendedKey
		if clone, err = key.CloneWithVersion(params.HDPrivateKeyID[:]); err == nil {
			pub, err = clone.Neuter()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to neuter account key: %w", err)
	}
	a := &Account{
		pub:    pub,
		params: params,
		path:   path,
	}
	for _, branch := range []uint32{BranchExternal, BranchChange} {
		child, err := pub.Derive(branch)
		if err != nil {
			return nil, fmt.Errorf("failed to derive branch %d: %w", branch, err)
		}
		a.branches[branch] = child
	}
	return a, nil
}

// Params returns the chain parameters addresses are encoded for
func (a *Account) Params() *chaincfg.Params {
	return a.params
}

// Path returns the derivation path of the account, empty when it was built from an extended key
func (a *Account) Path() string {
	return a.path
}

// ExtendedPublicKey returns the account xpub, suitable for watch-only scans
func (a *Account) ExtendedPublicKey() (string, error) {
	return a.pub.String(), nil
}

// Address derives the P2WPKH address at branch/index
func (a *Account) Address(branch, index uint32) (btcutil.Address, error) {
	if branch > BranchChange {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBranch, branch)
	}
	if index >= hdkeychain.HardenedKeyStart {
		return nil, fmt.Errorf("%w: index %d is hardened", ErrInvalidPath, index)
	}
	child, err := a.branches[branch].Derive(index)
	if err != nil {
		return nil, fmt.Errorf("failed to derive %d/%d: %w", branch, index, err)
	}
	pubKey, err := child.ECPubKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get public key: %w", err)
	}
	pubKeyHash := btcutil.Hash160(pubKey.SerializeCompressed())
	return btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, a.params)
}

// ParsePath parses a path such as m/84'/0'/0'. Both ' and h mark hardened indexes.
func ParsePath(path string) ([]uint32, error) {
	parts := strings.Split(strings.TrimSpace(path), "/")
	if len(parts) == 0 || parts[0] != "m" {
		return nil, fmt.Errorf("%w: %q must start with m", ErrInvalidPath, path)
	}
	indexes := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		childNum, err := parseChildNum(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, path, err)
		}
		indexes = append(indexes, childNum)
	}
	return indexes, nil
}

func parseChildNum(childStr string) (uint32, error) {
	hardened := strings.HasSuffix(childStr, "'") || strings.HasSuffix(childStr, "h")
	if hardened {
		childStr = childStr[:len(childStr)-1]
	}
	childNum, err := strconv.ParseUint(childStr, 10, 32)
	if err != nil {
		return 0, err
	}
	if childNum >= hdkeychain.HardenedKeyStart {
		return 0, fmt.Errorf("index %d out of range", childNum)
	}
	if hardened {
		childNum += hdkeychain.HardenedKeyStart
	}
	return uint32(childNum), nil
}
