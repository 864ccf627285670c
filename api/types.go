package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// RecommendedFees holds the fee rates suggested by the server, in sat/vB
type RecommendedFees struct {
	FastestFee  uint64 `json:"fastestFee"`
	HalfHourFee uint64 `json:"halfHourFee"`
	HourFee     uint64 `json:"hourFee"`
	EconomyFee  uint64 `json:"economyFee"`
	MinimumFee  uint64 `json:"minimumFee"`
}

// MempoolBlock is one projected block of the mempool
type MempoolBlock struct {
	BlockSize  uint64         `json:"blockSize"`
	BlockVSize float64        `json:"blockVSize"`
	NTx        uint32         `json:"nTx"`
	TotalFees  btcutil.Amount `json:"totalFees"`
	MedianFee  float64        `json:"medianFee"`
	FeeRange   []float64      `json:"feeRange"`
}

// DifficultyAdjustment describes progress towards the next retarget
type DifficultyAdjustment struct {
	ProgressPercent       float64 `json:"progressPercent"`
	DifficultyChange      float64 `json:"difficultyChange"`
	EstimatedRetargetDate int64   `json:"estimatedRetargetDate"`
	RemainingBlocks       uint32  `json:"remainingBlocks"`
	RemainingTime         int64   `json:"remainingTime"`
	PreviousRetarget      float64 `json:"previousRetarget"`
	NextRetargetHeight    uint32  `json:"nextRetargetHeight"`
	TimeAvg               int64   `json:"timeAvg"`
	AdjustedTimeAvg       int64   `json:"adjustedTimeAvg"`
	TimeOffset            int64   `json:"timeOffset"`
}

// MempoolStats summarizes the mempool backlog
type MempoolStats struct {
	Count        uint64            `json:"count"`
	VSize        uint64            `json:"vsize"`
	TotalFee     btcutil.Amount    `json:"total_fee"`
	FeeHistogram []FeeHistogramBin `json:"fee_histogram"`
}

// FeeHistogramBin is one [fee_rate, vsize] pair of the mempool fee histogram
type FeeHistogramBin struct {
	FeeRate float64
	VSize   uint64
}

// UnmarshalJSON decodes the two element array form used by the API
func (b *FeeHistogramBin) UnmarshalJSON(data []byte) error {
	var pair []json.Number
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("fee histogram entry has %d elements, want 2", len(pair))
	}
	rate, err := pair[0].Float64()
	if err != nil {
		return fmt.Errorf("invalid fee rate: %w", err)
	}
	vsize, err := pair[1].Int64()
	if err != nil {
		return fmt.Errorf("invalid vsize: %w", err)
	}
	if vsize < 0 {
		return fmt.Errorf("negative vsize %d", vsize)
	}
	b.FeeRate = rate
	b.VSize = uint64(vsize)
	return nil
}

// MarshalJSON encodes the bin back into the [fee_rate, vsize] form
func (b FeeHistogramBin) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{b.FeeRate, b.VSize})
}

// MempoolRecentTx is an entry of the recently seen mempool transactions
type MempoolRecentTx struct {
	Txid  chainhash.Hash `json:"txid"`
	Fee   btcutil.Amount `json:"fee"`
	VSize uint64         `json:"vsize"`
	Value btcutil.Amount `json:"value"`
}

// Status is the confirmation status of a transaction.
// Block fields are only set once it is confirmed.
type Status struct {
	Confirmed   bool            `json:"confirmed"`
	BlockHeight *uint32         `json:"block_height,omitempty"`
	BlockHash   *chainhash.Hash `json:"block_hash,omitempty"`
	BlockTime   *int64          `json:"block_time,omitempty"`
}

// Time returns the block time, or the zero time for unconfirmed transactions
func (s Status) Time() time.Time {
	if s.BlockTime == nil {
		return time.Time{}
	}
	return time.Unix(*s.BlockTime, 0)
}

// TxInfo is a transaction as returned by Get Transaction
type TxInfo struct {
	Txid     chainhash.Hash `json:"txid"`
	Version  int32          `json:"version"`
	Locktime uint32         `json:"locktime"`
	Vin      []Vin          `json:"vin"`
	Vout     []Vout         `json:"vout"`
	Size     uint32         `json:"size"`
	Weight   uint32         `json:"weight"`
	Sigops   uint32         `json:"sigops"`
	Fee      btcutil.Amount `json:"fee"`
	Status   Status         `json:"status"`
}

// AddressTx is an element of Get Address Transactions. It has the same layout as TxInfo.
type AddressTx = TxInfo

// VSize returns the virtual size in vbytes
func (t TxInfo) VSize() uint32 {
	return (t.Weight + 3) / 4
}

// FeeRate returns the paid fee rate in sat/vB
func (t TxInfo) FeeRate() float64 {
	vsize := t.VSize()
	if vsize == 0 {
		return 0
	}
	return float64(t.Fee) / float64(vsize)
}

// Vin is a transaction input
type Vin struct {
	Txid         chainhash.Hash `json:"txid"`
	Vout         uint32         `json:"vout"`
	Prevout      *Vout          `json:"prevout"`
	Scriptsig    string         `json:"scriptsig"`
	ScriptsigAsm string         `json:"scriptsig_asm"`
	Witness      []string       `json:"witness,omitempty"`
	IsCoinbase   bool           `json:"is_coinbase"`
	Sequence     uint32         `json:"sequence"`
}

// Vout is a transaction output
type Vout struct {
	Scriptpubkey        string         `json:"scriptpubkey"`
	ScriptpubkeyAsm     string         `json:"scriptpubkey_asm"`
	ScriptpubkeyType    string         `json:"scriptpubkey_type"`
	ScriptpubkeyAddress string         `json:"scriptpubkey_address,omitempty"`
	Value               btcutil.Amount `json:"value"`
}

// BlockSummary is a block as returned by Get Block
type BlockSummary struct {
	ID                chainhash.Hash  `json:"id"`
	Height            uint32          `json:"height"`
	Version           int32           `json:"version"`
	Timestamp         int64           `json:"timestamp"`
	TxCount           uint32          `json:"tx_count"`
	Size              uint32          `json:"size"`
	Weight            uint32          `json:"weight"`
	MerkleRoot        chainhash.Hash  `json:"merkle_root"`
	PreviousBlockHash *chainhash.Hash `json:"previousblockhash,omitempty"`
	MedianTime        int64           `json:"mediantime"`
	Nonce             uint32          `json:"nonce"`
	Bits              uint32          `json:"bits"`
	Difficulty        float64         `json:"difficulty"`
}

// Time returns the block header timestamp
func (b BlockSummary) Time() time.Time {
	return time.Unix(b.Timestamp, 0)
}

// BlockStatus tells whether a block is part of the best chain
type BlockStatus struct {
	InBestChain bool            `json:"in_best_chain"`
	Height      *uint32         `json:"height,omitempty"`
	NextBest    *chainhash.Hash `json:"next_best,omitempty"`
}

// AddressInfo is the response to Get Address
type AddressInfo struct {
	Address      string       `json:"address"`
	ChainStats   AddressStats `json:"chain_stats"`
	MempoolStats AddressStats `json:"mempool_stats"`
}

// Balance returns the confirmed plus unconfirmed balance
func (a AddressInfo) Balance() btcutil.Amount {
	return a.ChainStats.Balance() + a.MempoolStats.Balance()
}

// TxCount returns the number of confirmed and unconfirmed transactions
func (a AddressInfo) TxCount() uint64 {
	return a.ChainStats.TxCount + a.MempoolStats.TxCount
}

// AddressStats are funding and spending totals for an address
type AddressStats struct {
	FundedTxoCount uint64         `json:"funded_txo_count"`
	FundedTxoSum   btcutil.Amount `json:"funded_txo_sum"`
	SpentTxoCount  uint64         `json:"spent_txo_count"`
	SpentTxoSum    btcutil.Amount `json:"spent_txo_sum"`
	TxCount        uint64         `json:"tx_count"`
}

// Balance returns funded minus spent
func (s AddressStats) Balance() btcutil.Amount {
	return s.FundedTxoSum - s.SpentTxoSum
}

// MerkleProof is the response to Get Transaction Merkle Proof
type MerkleProof struct {
	BlockHeight uint32           `json:"block_height"`
	Merkle      []chainhash.Hash `json:"merkle"`
	Pos         int              `json:"pos"`
}

// AddressUtxo is an unspent output of an address
type AddressUtxo struct {
	Txid   chainhash.Hash `json:"txid"`
	Vout   uint32         `json:"vout"`
	Value  btcutil.Amount `json:"value"`
	Status Status         `json:"status"`
}

// OutputStatus is the spending status of a transaction output.
// Txid, Vin and Status are only set when Spent is true.
type OutputStatus struct {
	Spent  bool            `json:"spent"`
	Txid   *chainhash.Hash `json:"txid,omitempty"`
	Vin    *uint32         `json:"vin,omitempty"`
	Status *Status         `json:"status,omitempty"`
}
