package api

import (
	"context"
	"strconv"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// GetTipHeight fetches the height of the chain tip
func (c *Client) GetTipHeight(ctx context.Context) (uint32, error) {
	return call(ctx, c, EndpointTipHeight, nil, nil, decodeUint32)
}

// GetTipHash fetches the hash of the chain tip
func (c *Client) GetTipHash(ctx context.Context) (chainhash.Hash, error) {
	return call(ctx, c, EndpointTipHash, nil, nil, decodeHash)
}

// GetBlockHash fetches the hash of the best chain block at height
func (c *Client) GetBlockHash(ctx context.Context, height uint32) (chainhash.Hash, error) {
	return call(ctx, c, EndpointBlockHash, nil, nil, decodeHash, formatUint32(height))
}

// GetBlock fetches a block summary
func (c *Client) GetBlock(ctx context.Context, hash chainhash.Hash) (BlockSummary, error) {
	return call(ctx, c, EndpointBlock, nil, nil, decodeJSON[BlockSummary], hash.String())
}

// GetBlockStatus fetches whether a block is in the best chain
func (c *Client) GetBlockStatus(ctx context.Context, hash chainhash.Hash) (BlockStatus, error) {
	return call(ctx, c, EndpointBlockStatus, nil, nil, decodeJSON[BlockStatus], hash.String())
}

// GetBlockHeader fetches and decodes the 80 byte block header
func (c *Client) GetBlockHeader(ctx context.Context, hash chainhash.Hash) (*wire.BlockHeader, error) {
	return call(ctx, c, EndpointBlockHeader, nil, nil, decodeBlockHeader, hash.String())
}

// GetBlockTxids fetches the ids of all transactions in a block
func (c *Client) GetBlockTxids(ctx context.Context, hash chainhash.Hash) ([]chainhash.Hash, error) {
	return call(ctx, c, EndpointBlockTxids, nil, nil, decodeJSON[[]chainhash.Hash], hash.String())
}

// GetBlocks fetches the most recent blocks, newest first. When startHeight
// is non-nil the listing starts at that height instead of the tip.
func (c *Client) GetBlocks(ctx context.Context, startHeight *uint32) ([]BlockSummary, error) {
	if startHeight == nil {
		return call(ctx, c, EndpointBlocks, nil, nil, decodeJSON[[]BlockSummary])
	}
	return call(ctx, c, EndpointBlocksFrom, nil, nil, decodeJSON[[]BlockSummary], formatUint32(*startHeight))
}

func formatUint32(n uint32) string {
	return strconv.FormatUint(uint64(n), 10)
}
