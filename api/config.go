package api

import "fmt"

// network names
const (
	NetworkMainnet  = "mainnet"
	NetworkTestnet  = "testnet"
	NetworkTestnet4 = "testnet4"
	NetworkSignet   = "signet"
)

// default base URLs on mempool.space
const (
	MainnetBaseURL  = "https://mempool.space/api"
	TestnetBaseURL  = "https://mempool.space/testnet/api"
	Testnet4BaseURL = "https://mempool.space/testnet4/api"
	SignetBaseURL   = "https://mempool.space/signet/api"
)

// BaseURLForNetwork returns the public mempool.space base URL for network
func BaseURLForNetwork(network string) (string, error) {
	switch network {
	case NetworkMainnet:
		return MainnetBaseURL, nil
	case NetworkTestnet:
		return TestnetBaseURL, nil
	case NetworkTestnet4:
		return Testnet4BaseURL, nil
	case NetworkSignet:
		return SignetBaseURL, nil
	default:
		return "", fmt.Errorf("no default base URL for network %q", network)
	}
}
