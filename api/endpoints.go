package api

import (
	"net/url"
	"strings"
)

// Endpoint describes one API call: its method and a path template
// relative to the base URL. Placeholders are written as {name}.
type Endpoint struct {
	Name   string
	Method Method
	Path   string
}

// Fees and mempool
var (
	EndpointRecommendedFees      = Endpoint{Name: "recommended-fees", Method: MethodGet, Path: "/v1/fees/recommended"}
	EndpointMempoolBlocks        = Endpoint{Name: "mempool-blocks", Method: MethodGet, Path: "/v1/fees/mempool-blocks"}
	EndpointDifficultyAdjustment = Endpoint{Name: "difficulty-adjustment", Method: MethodGet, Path: "/v1/difficulty-adjustment"}
	EndpointMempool              = Endpoint{Name: "mempool", Method: MethodGet, Path: "/mempool"}
	EndpointMempoolTxids         = Endpoint{Name: "mempool-txids", Method: MethodGet, Path: "/mempool/txids"}
	EndpointMempoolRecent        = Endpoint{Name: "mempool-recent", Method: MethodGet, Path: "/mempool/recent"}
)

// Blocks
var (
	EndpointTipHeight   = Endpoint{Name: "tip-height", Method: MethodGet, Path: "/blocks/tip/height"}
	EndpointTipHash     = Endpoint{Name: "tip-hash", Method: MethodGet, Path: "/blocks/tip/hash"}
	EndpointBlockHash   = Endpoint{Name: "block-hash", Method: MethodGet, Path: "/block-height/{height}"}
	EndpointBlock       = Endpoint{Name: "block", Method: MethodGet, Path: "/block/{hash}"}
	EndpointBlockStatus = Endpoint{Name: "block-status", Method: MethodGet, Path: "/block/{hash}/status"}
	EndpointBlockHeader = Endpoint{Name: "block-header", Method: MethodGet, Path: "/block/{hash}/header"}
	EndpointBlockTxids  = Endpoint{Name: "block-txids", Method: MethodGet, Path: "/block/{hash}/txids"}
	EndpointBlocks      = Endpoint{Name: "blocks", Method: MethodGet, Path: "/blocks"}
	EndpointBlocksFrom  = Endpoint{Name: "blocks-from-height", Method: MethodGet, Path: "/blocks/{height}"}
)

// Transactions
var (
	EndpointTx            = Endpoint{Name: "tx", Method: MethodGet, Path: "/tx/{txid}"}
	EndpointTxStatus      = Endpoint{Name: "tx-status", Method: MethodGet, Path: "/tx/{txid}/status"}
	EndpointTxHex         = Endpoint{Name: "tx-hex", Method: MethodGet, Path: "/tx/{txid}/hex"}
	EndpointTxMerkleProof = Endpoint{Name: "tx-merkle-proof", Method: MethodGet, Path: "/tx/{txid}/merkle-proof"}
	EndpointTxOutspend    = Endpoint{Name: "tx-outspend", Method: MethodGet, Path: "/tx/{txid}/outspend/{vout}"}
	EndpointTxOutspends   = Endpoint{Name: "tx-outspends", Method: MethodGet, Path: "/tx/{txid}/outspends"}
	EndpointBroadcastTx   = Endpoint{Name: "broadcast-tx", Method: MethodPost, Path: "/tx"}
)

// Addresses
var (
	EndpointAddress           = Endpoint{Name: "address", Method: MethodGet, Path: "/address/{address}"}
	EndpointAddressTxs        = Endpoint{Name: "address-txs", Method: MethodGet, Path: "/address/{address}/txs"}
	EndpointAddressMempoolTxs = Endpoint{Name: "address-mempool-txs", Method: MethodGet, Path: "/address/{address}/txs/mempool"}
	EndpointAddressUtxos      = Endpoint{Name: "address-utxo", Method: MethodGet, Path: "/address/{address}/utxo"}
)

// Endpoints returns every endpoint the Client knows about
func Endpoints() []Endpoint {
	return []Endpoint{
		EndpointRecommendedFees,
		EndpointMempoolBlocks,
		EndpointDifficultyAdjustment,
		EndpointMempool,
		EndpointMempoolTxids,
		EndpointMempoolRecent,
		EndpointTipHeight,
		EndpointTipHash,
		EndpointBlockHash,
		EndpointBlock,
		EndpointBlockStatus,
		EndpointBlockHeader,
		EndpointBlockTxids,
		EndpointBlocks,
		EndpointBlocksFrom,
		EndpointTx,
		EndpointTxStatus,
		EndpointTxHex,
		EndpointTxMerkleProof,
		EndpointTxOutspend,
		EndpointTxOutspends,
		EndpointBroadcastTx,
		EndpointAddress,
		EndpointAddressTxs,
		EndpointAddressMempoolTxs,
		EndpointAddressUtxos,
	}
}

// Params returns the placeholder names of the path template in order
func (e Endpoint) Params() []string {
	var names []string
	rest := e.Path
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			return names
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			return names
		}
		names = append(names, rest[start+1:start+end])
		rest = rest[start+end+1:]
	}
}

// Resolve fills the placeholders of the path template with params, in order.
// Each value is path-escaped. A blank value, a missing value or a surplus
// value is a *PathError.
func (e Endpoint) Resolve(params ...string) (string, error) {
	var b strings.Builder
	rest := e.Path
	i := 0
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			break
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			break
		}
		name := rest[start+1 : start+end]
		if i >= len(params) || strings.TrimSpace(params[i]) == "" {
			return "", &PathError{Endpoint: e.Name, Param: name, Err: ErrMissingPathParam}
		}
		b.WriteString(rest[:start])
		b.WriteString(url.PathEscape(params[i]))
		rest = rest[start+end+1:]
		i++
	}
	if i < len(params) {
		return "", &PathError{Endpoint: e.Name, Param: params[i], Err: ErrExtraPathParam}
	}
	b.WriteString(rest)
	return b.String(), nil
}
