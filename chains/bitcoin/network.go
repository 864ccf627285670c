// Package bitcoin holds the chain helpers used around the API client:
// network parameters, address handling, raw transactions and fee estimates.
package bitcoin

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// ParamsForNetwork returns the chain parameters for a network name.
// testnet4 shares address encoding and key versions with testnet3, so the
// testnet3 parameters are used for both.
func ParamsForNetwork(network string) (*chaincfg.Params, error) {
	switch strings.ToLower(strings.TrimSpace(network)) {
	case "mainnet", "main", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3", "testnet4":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", network)
	}
}

// ParseAddress decodes address and checks it belongs to params
func ParseAddress(address string, params *chaincfg.Params) (btcutil.Address, error) {
	addr, err := btcutil.DecodeAddress(strings.TrimSpace(address), params)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}
	if !addr.IsForNet(params) {
		return nil, fmt.Errorf("address %q is not valid on %s", address, params.Name)
	}
	return addr, nil
}

// ValidateAddress validates a Bitcoin address
func ValidateAddress(address string, params *chaincfg.Params) error {
	_, err := ParseAddress(address, params)
	return err
}

// AddressScript returns the output script paying to addr
func AddressScript(addr btcutil.Address) ([]byte, error) {
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to create output script: %w", err)
	}
	return script, nil
}
