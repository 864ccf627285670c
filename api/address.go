package api

import (
	"context"
	"net/url"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// AddressTxsPageSize is the number of confirmed transactions the server
// returns per page of Get Address Transactions
const AddressTxsPageSize = 25

// GetAddress fetches funding and spending totals for an address
func (c *Client) GetAddress(ctx context.Context, addr btcutil.Address) (AddressInfo, error) {
	return call(ctx, c, EndpointAddress, nil, nil, decodeJSON[AddressInfo], encodeAddress(addr))
}

// GetAddressTxs fetches the transaction history of an address, newest first.
// The first page also carries unconfirmed transactions. Pass the txid of the
// last transaction of a page as afterTxid to get the next page.
func (c *Client) GetAddressTxs(ctx context.Context, addr btcutil.Address, afterTxid *chainhash.Hash) ([]AddressTx, error) {
	var query url.Values
	if afterTxid != nil {
		query = url.Values{"after_txid": []string{afterTxid.String()}}
	}
	return call(ctx, c, EndpointAddressTxs, query, nil, decodeJSON[[]AddressTx], encodeAddress(addr))
}

// GetAddressMempoolTxs fetches the unconfirmed transactions of an address
func (c *Client) GetAddressMempoolTxs(ctx context.Context, addr btcutil.Address) ([]AddressTx, error) {
	return call(ctx, c, EndpointAddressMempoolTxs, nil, nil, decodeJSON[[]AddressTx], encodeAddress(addr))
}

// GetAddressUtxos fetches the unspent outputs of an address
func (c *Client) GetAddressUtxos(ctx context.Context, addr btcutil.Address) ([]AddressUtxo, error) {
	return call(ctx, c, EndpointAddressUtxos, nil, nil, decodeJSON[[]AddressUtxo], encodeAddress(addr))
}

// encodeAddress returns "" for a nil address so path resolution rejects it
func encodeAddress(addr btcutil.Address) string {
	if addr == nil {
		return ""
	}
	return addr.EncodeAddress()
}
