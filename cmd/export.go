package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/chinmay1088/mempool/chains/bitcoin"
	"github.com/chinmay1088/mempool/wallet"
)

// ScanExport is the document written by scan --export-json
type ScanExport struct {
	ExportDate string               `json:"export_date"`
	Network    string               `json:"network"`
	Account    string               `json:"account"`
	Branches   []*wallet.ScanResult `json:"branches"`
	Balance    btcutil.Amount       `json:"balance"`
}

func newScanExport(network, account string, results []*wallet.ScanResult) *ScanExport {
	export := &ScanExport{
		ExportDate: time.Now().Format("2006-01-02 15:04:05"),
		Network:    network,
		Account:    account,
		Branches:   results,
	}
	for _, r := range results {
		export.Balance += r.Balance()
	}
	return export
}

func prepareExportDirectory(dir string) (string, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(homeDir, ".mempool", "exports")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// writeExportFiles writes the requested formats and returns the created paths
func writeExportFiles(export *ScanExport, exportDir string, csvOut, jsonOut bool) ([]string, error) {
	timestamp := time.Now().Format("20060102_150405")
	base := filepath.Join(exportDir, fmt.Sprintf("mempool_scan_%s_%s", export.Network, timestamp))

	var written []string
	if csvOut {
		filename := base + ".csv"
		if err := writeCSVFile(filename, export); err != nil {
			return nil, fmt.Errorf("failed to write CSV export: %w", err)
		}
		written = append(written, filename)
	}
	if jsonOut {
		filename := base + ".json"
		data, err := json.MarshalIndent(export, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode JSON export: %w", err)
		}
		if err := os.WriteFile(filename, data, 0o600); err != nil {
			return nil, fmt.Errorf("failed to write JSON export: %w", err)
		}
		written = append(written, filename)
	}
	return written, nil
}

func writeCSVFile(filename string, export *ScanExport) error {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	return writeAndClose(file, export)
}

// writeAndClose reports a failed Close, which may be the only sign that
// buffered data never reached the disk
func writeAndClose(w io.WriteCloser, export *ScanExport) error {
	err := writeCSV(w, export)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return err
}

// writeCSV writes one row per active address and transaction
func writeCSV(w io.Writer, export *ScanExport) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{
		"network", "branch", "index", "address", "txid", "confirmed", "block_height", "received", "sent", "address_balance",
	}); err != nil {
		return err
	}
	for _, result := range export.Branches {
		branch := strconv.FormatUint(uint64(result.Branch), 10)
		for _, activity := range result.Addresses {
			for _, tx := range activity.Txs {
				height := ""
				if tx.Status.BlockHeight != nil {
					height = strconv.FormatUint(uint64(*tx.Status.BlockHeight), 10)
				}
				net := netValue(tx, activity.Address)
				received, sent := int64(0), int64(0)
				if net >= 0 {
					received = int64(net)
				} else {
					sent = -int64(net)
				}
				if err := writer.Write([]string{
					export.Network,
					branch,
					strconv.FormatUint(uint64(activity.Index), 10),
					activity.Address,
					tx.Txid.String(),
					strconv.FormatBool(tx.Status.Confirmed),
					height,
					strconv.FormatInt(received, 10),
					strconv.FormatInt(sent, 10),
					bitcoin.FormatAmount(activity.Balance()),
				}); err != nil {
					return err
				}
			}
		}
	}
	writer.Flush()
	return writer.Error()
}
