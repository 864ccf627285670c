package bitcoin

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// ErrTrailingBytes is returned when a raw transaction is followed by extra data
var ErrTrailingBytes = errors.New("trailing bytes after transaction")

// DecodeRawTransaction decodes a hex encoded transaction, with or without witness data
func DecodeRawTransaction(rawHex string) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(rawHex))
	if err != nil {
		return nil, fmt.Errorf("invalid transaction hex: %w", err)
	}
	reader := bytes.NewReader(raw)
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(reader); err != nil {
		return nil, fmt.Errorf("failed to deserialize transaction: %w", err)
	}
	if reader.Len() != 0 {
		return nil, fmt.Errorf("%w: %d", ErrTrailingBytes, reader.Len())
	}
	return tx, nil
}

// EncodeRawTransaction serializes tx to hex in the format expected by the broadcast endpoint
func EncodeRawTransaction(tx *wire.MsgTx) (string, error) {
	if tx == nil {
		return "", errors.New("nil transaction")
	}
	var buf bytes.Buffer
	buf.Grow(tx.SerializeSize())
	if err := tx.Serialize(&buf); err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// Weight of the parts of a P2WPKH spend, in weight units
const (
	witnessScaleFactor = 4

	// version, locktime and the segwit marker and flag
	txOverheadWeight = 8*witnessScaleFactor + 2
	// outpoint, empty script, sequence plus a 72 byte signature and a compressed key
	p2wpkhInputWeight = 41*witnessScaleFactor + 108
	// value plus a 22 byte witness program
	p2wpkhOutputWeight = 31 * witnessScaleFactor
)

// EstimateVSize returns the virtual size of a transaction spending inputs
// P2WPKH outputs into outputs P2WPKH outputs
func EstimateVSize(inputs, outputs int) int64 {
	if inputs < 0 {
		inputs = 0
	}
	if outputs < 0 {
		outputs = 0
	}
	weight := int64(txOverheadWeight)
	weight += int64(wire.VarIntSerializeSize(uint64(inputs))+wire.VarIntSerializeSize(uint64(outputs))) * witnessScaleFactor
	weight += int64(inputs) * p2wpkhInputWeight
	weight += int64(outputs) * p2wpkhOutputWeight
	return (weight + witnessScaleFactor - 1) / witnessScaleFactor
}

// EstimateFee estimates the fee of a P2WPKH transaction at rate sat/vB
func EstimateFee(inputs, outputs int, rate uint64) btcutil.Amount {
	return btcutil.Amount(EstimateVSize(inputs, outputs) * int64(rate))
}
