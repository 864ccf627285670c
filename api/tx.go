package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// ErrEmptyTx is returned when broadcasting without a transaction
var ErrEmptyTx = errors.New("transaction must not be empty")

// GetTx fetches a transaction
func (c *Client) GetTx(ctx context.Context, txid chainhash.Hash) (TxInfo, error) {
	return call(ctx, c, EndpointTx, nil, nil, decodeJSON[TxInfo], txid.String())
}

// GetTxStatus fetches the confirmation status of a transaction
func (c *Client) GetTxStatus(ctx context.Context, txid chainhash.Hash) (Status, error) {
	return call(ctx, c, EndpointTxStatus, nil, nil, decodeJSON[Status], txid.String())
}

// GetTxRaw fetches a transaction in its serialized form and decodes it
func (c *Client) GetTxRaw(ctx context.Context, txid chainhash.Hash) (*wire.MsgTx, error) {
	return call(ctx, c, EndpointTxHex, nil, nil, decodeMsgTx, txid.String())
}

// GetTxMerkleProof fetches the merkle inclusion proof of a confirmed transaction
func (c *Client) GetTxMerkleProof(ctx context.Context, txid chainhash.Hash) (MerkleProof, error) {
	return call(ctx, c, EndpointTxMerkleProof, nil, nil, decodeJSON[MerkleProof], txid.String())
}

// GetTxOutspend fetches the spending status of output vout of a transaction
func (c *Client) GetTxOutspend(ctx context.Context, txid chainhash.Hash, vout uint32) (OutputStatus, error) {
	return call(ctx, c, EndpointTxOutspend, nil, nil, decodeJSON[OutputStatus], txid.String(), strconv.FormatUint(uint64(vout), 10))
}

// GetTxOutspends fetches the spending status of every output of a transaction
func (c *Client) GetTxOutspends(ctx context.Context, txid chainhash.Hash) ([]OutputStatus, error) {
	return call(ctx, c, EndpointTxOutspends, nil, nil, decodeJSON[[]OutputStatus], txid.String())
}

// BroadcastTx serializes tx and submits it to the network.
// It returns the txid reported by the server.
func (c *Client) BroadcastTx(ctx context.Context, tx *wire.MsgTx) (chainhash.Hash, error) {
	if tx == nil {
		return chainhash.Hash{}, ErrEmptyTx
	}
	var buf bytes.Buffer
	buf.Grow(tx.SerializeSize())
	if err := tx.Serialize(&buf); err != nil {
		return chainhash.Hash{}, fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return c.BroadcastRawTx(ctx, hex.EncodeToString(buf.Bytes()))
}

// BroadcastRawTx submits an already hex encoded transaction.
// The hex is sent as is; the server does the validation.
func (c *Client) BroadcastRawTx(ctx context.Context, rawHex string) (chainhash.Hash, error) {
	rawHex = strings.TrimSpace(rawHex)
	if rawHex == "" {
		return chainhash.Hash{}, ErrEmptyTx
	}
	return call(ctx, c, EndpointBroadcastTx, nil, []byte(rawHex), decodeHash)
}
