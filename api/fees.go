package api

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// GetRecommendedFees fetches the currently suggested fee rates
func (c *Client) GetRecommendedFees(ctx context.Context) (RecommendedFees, error) {
	return call(ctx, c, EndpointRecommendedFees, nil, nil, decodeJSON[RecommendedFees])
}

// GetMempoolBlocks fetches the projected next blocks built from the mempool
func (c *Client) GetMempoolBlocks(ctx context.Context) ([]MempoolBlock, error) {
	return call(ctx, c, EndpointMempoolBlocks, nil, nil, decodeJSON[[]MempoolBlock])
}

// GetDifficultyAdjustment fetches progress towards the next difficulty retarget
func (c *Client) GetDifficultyAdjustment(ctx context.Context) (DifficultyAdjustment, error) {
	return call(ctx, c, EndpointDifficultyAdjustment, nil, nil, decodeJSON[DifficultyAdjustment])
}

// GetMempool fetches mempool backlog statistics
func (c *Client) GetMempool(ctx context.Context) (MempoolStats, error) {
	return call(ctx, c, EndpointMempool, nil, nil, decodeJSON[MempoolStats])
}

// GetMempoolTxids fetches the ids of every transaction in the mempool
func (c *Client) GetMempoolTxids(ctx context.Context) ([]chainhash.Hash, error) {
	return call(ctx, c, EndpointMempoolTxids, nil, nil, decodeJSON[[]chainhash.Hash])
}

// GetMempoolRecent fetches the last transactions to enter the mempool
func (c *Client) GetMempoolRecent(ctx context.Context) ([]MempoolRecentTx, error) {
	return call(ctx, c, EndpointMempoolRecent, nil, nil, decodeJSON[[]MempoolRecentTx])
}
